package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/pkg/apperrors"
	"github.com/yigit/admissions/internal/pkg/metrics"
	"github.com/yigit/admissions/internal/pkg/tuition"
	"github.com/yigit/admissions/internal/pkg/validation"
)

// Listing defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DefaultOfferValidity is how long an applicant has to accept an offer
const DefaultOfferValidity = 30 * 24 * time.Hour

// SubmitRequest opens a new application
type SubmitRequest struct {
	ApplicantEmail string
	ApplicantName  string
	CourseID       string
	Actor          string
}

// TransitionRequest asks to move an application from ExpectedStatus to TargetStatus
type TransitionRequest struct {
	ApplicationID  string
	ExpectedStatus models.ApplicationStatus
	TargetStatus   models.ApplicationStatus
	Actor          string
	// Payment may accompany OFFER_ACCEPTED -> ENROLLED
	Payment *models.Payment
}

// ListFilter selects a page of applications
type ListFilter struct {
	Status models.ApplicationStatus
	Page   int
	Size   int
}

// ApplicationPage is one page of a listing
type ApplicationPage struct {
	Items []*models.Application
	Total int64
	Page  int
	Size  int
}

// AdmissionService is the only component allowed to change an application's status
type AdmissionService interface {
	Submit(ctx context.Context, req SubmitRequest) (*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter ListFilter) (*ApplicationPage, error)
	Transition(ctx context.Context, req TransitionRequest) (models.TransitionEvent, error)
}

// AdmissionConfig tunes the state machine
type AdmissionConfig struct {
	OfferValidity time.Duration
	Clock         Clock
}

type admissionService struct {
	applications repositories.ApplicationRepository
	applicants   repositories.ApplicantRepository
	courses      repositories.CourseRepository
	hooks        []PostCommitHook
	config       AdmissionConfig
	logger       zerolog.Logger
}

// NewAdmissionService creates the admission service. hooks run after every committed change.
func NewAdmissionService(repos *repositories.Repositories, config AdmissionConfig, logger zerolog.Logger, hooks ...PostCommitHook) AdmissionService {
	if config.OfferValidity <= 0 {
		config.OfferValidity = DefaultOfferValidity
	}
	return &admissionService{
		applications: repos.Applications,
		applicants:   repos.Applicants,
		courses:      repos.Courses,
		hooks:        hooks,
		config:       config,
		logger:       logger,
	}
}

// Submit validates the request, registers the applicant and creates a SUBMITTED application
func (s *admissionService) Submit(ctx context.Context, req SubmitRequest) (*models.Application, error) {
	email := validation.NormalizeEmail(req.ApplicantEmail)
	if err := validation.All(
		validation.NewStringValidation("applicantEmail", email).WithPattern(validation.CompiledPatterns.Email),
		validation.NewStringValidation("applicantName", req.ApplicantName).
			WithMinLength(validation.NameMinLength).
			WithMaxLength(validation.NameMaxLength),
		validation.NewStringValidation("courseId", req.CourseID).WithPattern(validation.CompiledPatterns.CourseID),
		validation.NewStringValidation("actor", req.Actor),
	); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown course %q", req.CourseID)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	applicant := &models.Applicant{ID: uuid.NewString(), Email: email, FullName: req.ApplicantName}
	if err := s.applicants.Upsert(ctx, applicant); err != nil {
		return nil, fmt.Errorf("failed to register applicant: %w", err)
	}

	now := s.config.Clock.now()
	app := &models.Application{
		ID:          uuid.NewString(),
		ApplicantID: applicant.ID,
		CourseID:    course.ID,
		Status:      models.InitialStatus,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	app.Applicant = applicant

	s.logger.Info().
		Str("applicationId", app.ID).
		Str("courseId", course.ID).
		Str("actor", req.Actor).
		Msg("Application submitted")

	runHooks(ctx, s.hooks, models.TransitionEvent{
		ApplicationID: app.ID,
		ToStatus:      app.Status,
		Actor:         req.Actor,
		Timestamp:     now,
	}, s.logger)

	return app, nil
}

// Get returns an application with its offer and applicant
func (s *admissionService) Get(ctx context.Context, id string) (*models.Application, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("application id is required")
	}
	return s.applications.GetByID(ctx, id)
}

// List returns a page of applications, newest first
func (s *admissionService) List(ctx context.Context, filter ListFilter) (*ApplicationPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError("unknown status %q", filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size <= 0 {
		filter.Size = DefaultPageSize
	}
	if filter.Size > MaxPageSize {
		filter.Size = MaxPageSize
	}

	items, total, err := s.applications.List(ctx, repositories.ListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Size:   filter.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return &ApplicationPage{Items: items, Total: total, Page: filter.Page, Size: filter.Size}, nil
}

func validateTransitionRequest(req TransitionRequest) error {
	if req.ApplicationID == "" {
		return apperrors.NewValidationError("application id is required")
	}
	if req.Actor == "" {
		return apperrors.NewValidationError("actor is required")
	}
	if !req.ExpectedStatus.IsValid() {
		return apperrors.NewValidationError("unknown expected status %q", req.ExpectedStatus)
	}
	if !req.TargetStatus.IsValid() {
		return apperrors.NewValidationError("unknown target status %q", req.TargetStatus)
	}
	if p := req.Payment; p != nil {
		if req.TargetStatus != models.StatusEnrolled {
			return apperrors.NewValidationError("a payment can only be recorded on enrolment")
		}
		if err := validation.NewStringValidation("payment.reference", p.Reference).
			WithMaxLength(validation.PaymentReferenceMaxLength).Validate(); err != nil {
			return err
		}
		if p.Amount <= 0 {
			return apperrors.NewValidationError("payment amount must be positive")
		}
	}
	return nil
}

// Transition applies one status change. Checks run in order: request shape,
// existence, the caller's expected status, then the transition table. Nothing
// is written unless all pass, and the status and offer are written together.
func (s *admissionService) Transition(ctx context.Context, req TransitionRequest) (models.TransitionEvent, error) {
	event, err := s.transition(ctx, req)
	metrics.RecordTransition(req.TargetStatus.String(), err)
	if err != nil {
		return models.TransitionEvent{}, err
	}

	runHooks(ctx, s.hooks, event, s.logger)
	return event, nil
}

func (s *admissionService) transition(ctx context.Context, req TransitionRequest) (models.TransitionEvent, error) {
	if err := validateTransitionRequest(req); err != nil {
		return models.TransitionEvent{}, err
	}

	app, err := s.applications.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return models.TransitionEvent{}, err
	}

	if app.Status != req.ExpectedStatus {
		return models.TransitionEvent{}, apperrors.NewConflictError(app.ID, req.ExpectedStatus.String(), app.Status.String())
	}

	if !models.CanTransition(app.Status, req.TargetStatus) {
		return models.TransitionEvent{}, apperrors.NewInvalidTransitionError(app.Status.String(), req.TargetStatus.String())
	}

	now := s.config.Clock.now()
	change := repositories.StatusChange{
		ApplicationID:  app.ID,
		ExpectedStatus: req.ExpectedStatus,
		TargetStatus:   req.TargetStatus,
		At:             now,
	}

	switch req.TargetStatus {
	case models.StatusAdmitted:
		offer, err := s.buildOffer(ctx, app, now)
		if err != nil {
			return models.TransitionEvent{}, err
		}
		change.NewOffer = offer

	case models.StatusOfferAccepted:
		if app.Offer == nil {
			return models.TransitionEvent{}, fmt.Errorf("application %s is ADMITTED without an offer", app.ID)
		}
		if app.Offer.Expired(now) {
			return models.TransitionEvent{}, apperrors.NewCustomError(apperrors.ErrOfferExpired,
				fmt.Sprintf("offer for application %s lapsed on %s", app.ID, app.Offer.DeadlineDate.Format(time.RFC3339))).
				WithCode(apperrors.CodeOfferExpired).
				WithDetails(map[string]interface{}{"deadlineDate": app.Offer.DeadlineDate})
		}
		change.AcceptOffer = true

	case models.StatusEnrolled:
		change.Payment = req.Payment
	}

	if err := s.applications.ApplyStatusChange(ctx, change); err != nil {
		if errors.Is(err, repositories.ErrStatusPrecondition) {
			return models.TransitionEvent{}, s.conflictAfterRace(ctx, req)
		}
		return models.TransitionEvent{}, fmt.Errorf("failed to apply transition: %w", err)
	}

	s.logger.Info().
		Str("applicationId", app.ID).
		Str("fromStatus", app.Status.String()).
		Str("toStatus", req.TargetStatus.String()).
		Str("actor", req.Actor).
		Msg("Application status changed")

	return models.TransitionEvent{
		ApplicationID: app.ID,
		FromStatus:    app.Status,
		ToStatus:      req.TargetStatus,
		Actor:         req.Actor,
		Timestamp:     now,
	}, nil
}

// buildOffer prices the application's course
func (s *admissionService) buildOffer(ctx context.Context, app *models.Application, now time.Time) (*models.Offer, error) {
	course, err := s.courses.GetByID(ctx, app.CourseID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			// the application exists; its catalog entry does not
			return nil, apperrors.NewConfigurationError("course %s of application %s is missing from the catalog", app.CourseID, app.ID)
		}
		return nil, fmt.Errorf("failed to load course %s for offer: %w", app.CourseID, err)
	}

	quote, err := tuition.NewQuote(course.DegreeLevel, course.FieldTag, course.DurationText)
	if err != nil {
		return nil, fmt.Errorf("failed to price course %s: %w", course.ID, err)
	}

	return &models.Offer{
		ApplicationID:   app.ID,
		TuitionFeeGross: quote.GrossFee,
		DiscountPercent: quote.DiscountPercent,
		TuitionFeeNet:   quote.NetFee,
		DurationYears:   quote.DurationYears,
		DeadlineDate:    now.Add(s.config.OfferValidity),
		CreatedAt:       now,
	}, nil
}

// conflictAfterRace reports who won when the conditional update matched nothing
func (s *admissionService) conflictAfterRace(ctx context.Context, req TransitionRequest) error {
	current, err := s.applications.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return err
	}
	s.logger.Warn().
		Str("applicationId", req.ApplicationID).
		Str("expectedStatus", req.ExpectedStatus.String()).
		Str("actualStatus", current.Status.String()).
		Msg("Concurrent transition lost the race")
	return apperrors.NewConflictError(req.ApplicationID, req.ExpectedStatus.String(), current.Status.String())
}
