package auth

import (
	"context"
	"strings"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// Roles carried in upstream-issued tokens
const (
	RoleApplicant = "applicant"
	RoleOfficer   = "officer"
	RoleAdmin     = "admin"
)

// AuthorizationService decides which actors may perform which operations.
// An empty role means the deployment does not issue roles (header identity),
// and everything is allowed.
type AuthorizationService struct {
	applicationRepo repositories.ApplicationRepository
	// applicantTargets are the statuses an applicant may move their own case to
	applicantTargets map[models.ApplicationStatus]bool
}

// NewAuthorizationService creates a new AuthorizationService. applicationRepo
// resolves ownership for applicant-initiated transitions.
func NewAuthorizationService(applicationRepo repositories.ApplicationRepository) *AuthorizationService {
	return &AuthorizationService{
		applicationRepo: applicationRepo,
		applicantTargets: map[models.ApplicationStatus]bool{
			models.StatusOfferAccepted: true,
			models.StatusWithdrawn:     true,
		},
	}
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// IsStaff reports whether role may act on any application
func (s *AuthorizationService) IsStaff(role string) bool {
	switch normalizeRole(role) {
	case "", RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// ValidateStaff returns a forbidden error unless role is a staff role
func (s *AuthorizationService) ValidateStaff(role string) error {
	if !s.IsStaff(role) {
		return apperrors.NewForbiddenError("role %q may not perform this action", role)
	}
	return nil
}

// IsOwner reports whether actor is the applicant behind the application.
// Actors are matched on the applicant's email.
func (s *AuthorizationService) IsOwner(ctx context.Context, actor, applicationID string) (bool, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return false, err
	}
	if app.Applicant == nil || actor == "" {
		return false, nil
	}
	return strings.EqualFold(strings.TrimSpace(actor), app.Applicant.Email), nil
}

// ValidateTransition checks that actor, holding role, may move the application to target
func (s *AuthorizationService) ValidateTransition(ctx context.Context, role, actor, applicationID string, target models.ApplicationStatus) error {
	if s.IsStaff(role) {
		return nil
	}
	if normalizeRole(role) != RoleApplicant || !s.applicantTargets[target] {
		return apperrors.NewForbiddenError("role %q may not move an application to %s", role, target)
	}

	owner, err := s.IsOwner(ctx, actor, applicationID)
	if err != nil {
		return err
	}
	if !owner {
		return apperrors.NewForbiddenError("application %s does not belong to %s", applicationID, actor)
	}
	return nil
}
