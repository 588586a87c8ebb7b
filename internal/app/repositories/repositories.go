package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/db"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// Shared repository errors
var (
	ErrApplicationNotFound = fmt.Errorf("%w: application", apperrors.ErrNotFound)
	ErrApplicantNotFound   = fmt.Errorf("%w: applicant", apperrors.ErrNotFound)
	ErrCourseNotFound      = fmt.Errorf("%w: course", apperrors.ErrNotFound)
	ErrLetterNotFound      = fmt.Errorf("%w: letter artifact", apperrors.ErrNotFound)

	// ErrStatusPrecondition is returned when a conditional status update matched no row
	ErrStatusPrecondition = errors.New("application status precondition failed")
	// ErrLetterAlreadyExists is returned when another writer stored the letter first
	ErrLetterAlreadyExists = errors.New("letter artifact already exists")
)

// isApplicationID reports whether id can name a stored application. Application ids
// are UUIDs; anything else cannot resolve and must not reach a UUID column.
func isApplicationID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListFilter narrows and paginates application listings. An empty Status matches all.
type ListFilter struct {
	Status models.ApplicationStatus
	Page   int
	Size   int
}

// Offset returns the row offset of the requested page
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Size
}

// StatusChange is everything one transition writes. It is applied all-or-nothing.
type StatusChange struct {
	ApplicationID  string
	ExpectedStatus models.ApplicationStatus
	TargetStatus   models.ApplicationStatus
	At             time.Time

	// NewOffer is inserted when the application enters ADMITTED
	NewOffer *models.Offer
	// AcceptOffer stamps Offer.AcceptedAt with At
	AcceptOffer bool
	// Payment is recorded on the offer with PaidAt = At
	Payment *models.Payment
}

// ApplicationRepository persists applications together with their offers
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Application, int64, error)
	// ApplyStatusChange updates the status only if it still equals ExpectedStatus,
	// returning ErrStatusPrecondition otherwise.
	ApplyStatusChange(ctx context.Context, change StatusChange) error
}

// ApplicantRepository stores applicant contact details
type ApplicantRepository interface {
	// Upsert creates the applicant or resolves the one with the same email,
	// keeping its recorded name
	Upsert(ctx context.Context, applicant *models.Applicant) error
	GetByID(ctx context.Context, id string) (*models.Applicant, error)
}

// CourseRepository is a read-mostly view of the catalog
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Upsert(ctx context.Context, course *models.Course) error
}

// LetterRepository stores generated letter artifacts
type LetterRepository interface {
	Get(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error)
	// Create returns ErrLetterAlreadyExists when the pair is already stored
	Create(ctx context.Context, artifact *models.LetterArtifact) error
	ListByApplication(ctx context.Context, applicationID string) ([]*models.LetterArtifact, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Applications ApplicationRepository
	Applicants   ApplicantRepository
	Courses      CourseRepository
	Letters      LetterRepository
}

// NewRepositories initializes the postgres-backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		Applications: NewApplicationRepository(database),
		Applicants:   NewApplicantRepository(database.Pool),
		Courses:      NewCourseRepository(database.Pool),
		Letters:      NewLetterRepository(database.Pool),
	}
}
