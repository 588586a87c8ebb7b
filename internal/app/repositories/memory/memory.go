// Package memory keeps repositories in process memory. It backs the "memory"
// database driver used for local development and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
)

var (
	errOfferExists  = errors.New("offer already attached")
	errOfferMissing = errors.New("application has no offer")
)

type letterKey struct {
	applicationID string
	letterType    models.LetterType
}

// Store is the shared state behind the memory repositories
type Store struct {
	mu           sync.RWMutex
	applications map[string]*models.Application
	offers       map[string]*models.Offer
	applicants   map[string]*models.Applicant
	emails       map[string]string
	courses      map[string]*models.Course
	letters      map[letterKey]*models.LetterArtifact
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		applications: make(map[string]*models.Application),
		offers:       make(map[string]*models.Offer),
		applicants:   make(map[string]*models.Applicant),
		emails:       make(map[string]string),
		courses:      make(map[string]*models.Course),
		letters:      make(map[letterKey]*models.LetterArtifact),
	}
}

// NewRepositories wires every repository to one fresh store
func NewRepositories() *repositories.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Applications: &ApplicationRepository{s: s},
		Applicants:   &ApplicantRepository{s: s},
		Courses:      &CourseRepository{s: s},
		Letters:      &LetterRepository{s: s},
	}
}

func copyOffer(o *models.Offer) *models.Offer {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// snapshot must be called with s.mu held
func (s *Store) snapshot(app *models.Application) *models.Application {
	c := *app
	c.Offer = copyOffer(s.offers[app.ID])
	if p, ok := s.applicants[app.ApplicantID]; ok {
		pc := *p
		c.Applicant = &pc
	}
	return &c
}

// ApplicationRepository is the in-memory ApplicationRepository
type ApplicationRepository struct {
	s *Store
}

// Create inserts a new application, enforcing the same references as the SQL schema
func (r *ApplicationRepository) Create(_ context.Context, app *models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.applicants[app.ApplicantID]; !ok {
		return repositories.ErrApplicantNotFound
	}
	if _, ok := r.s.courses[app.CourseID]; !ok {
		return repositories.ErrCourseNotFound
	}
	if _, ok := r.s.applications[app.ID]; ok {
		return errors.New("application id already used")
	}

	c := *app
	c.Offer, c.Applicant = nil, nil
	r.s.applications[app.ID] = &c
	return nil
}

// GetByID returns a copy of the application with its offer and applicant
func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	app, ok := r.s.applications[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	return r.s.snapshot(app), nil
}

// List returns one page of applications, newest first
func (r *ApplicationRepository) List(_ context.Context, filter repositories.ListFilter) ([]*models.Application, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*models.Application, 0, len(r.s.applications))
	for _, app := range r.s.applications {
		if filter.Status == "" || app.Status == filter.Status {
			matched = append(matched, app)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Size > 0 && start+filter.Size < end {
		end = start + filter.Size
	}

	page := make([]*models.Application, 0, end-start)
	for _, app := range matched[start:end] {
		page = append(page, r.s.snapshot(app))
	}
	return page, total, nil
}

// ApplyStatusChange validates the whole change before touching anything, so a
// rejected change leaves the store exactly as it was.
func (r *ApplicationRepository) ApplyStatusChange(_ context.Context, change repositories.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app, ok := r.s.applications[change.ApplicationID]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	if app.Status != change.ExpectedStatus {
		return repositories.ErrStatusPrecondition
	}

	offer := r.s.offers[change.ApplicationID]
	if change.NewOffer != nil && offer != nil {
		return errOfferExists
	}
	if (change.AcceptOffer || change.Payment != nil) && offer == nil && change.NewOffer == nil {
		return errOfferMissing
	}
	if change.AcceptOffer && offer != nil && offer.AcceptedAt != nil {
		return errors.New("offer already accepted")
	}

	app.Status = change.TargetStatus
	app.UpdatedAt = change.At

	if change.NewOffer != nil {
		offer = copyOffer(change.NewOffer)
		offer.ApplicationID = change.ApplicationID
		offer.CreatedAt = change.At
		r.s.offers[change.ApplicationID] = offer
	}
	if change.AcceptOffer {
		at := change.At
		offer.AcceptedAt = &at
	}
	if change.Payment != nil {
		ref, amount, at := change.Payment.Reference, change.Payment.Amount, change.At
		offer.PaymentReference = &ref
		offer.AmountPaid = &amount
		offer.PaidAt = &at
	}
	return nil
}

// ApplicantRepository is the in-memory ApplicantRepository
type ApplicantRepository struct {
	s *Store
}

// Upsert stores the applicant keyed by lower-cased email. An existing name is kept.
func (r *ApplicantRepository) Upsert(_ context.Context, applicant *models.Applicant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(applicant.Email)
	if id, ok := r.s.emails[key]; ok {
		stored := r.s.applicants[id]
		if stored.FullName == "" {
			stored.FullName = applicant.FullName
		}
		applicant.ID = id
		applicant.FullName = stored.FullName
		return nil
	}

	if applicant.ID == "" {
		applicant.ID = uuid.NewString()
	}
	c := *applicant
	r.s.applicants[c.ID] = &c
	r.s.emails[key] = c.ID
	return nil
}

// GetByID returns a copy of the applicant
func (r *ApplicantRepository) GetByID(_ context.Context, id string) (*models.Applicant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.applicants[id]
	if !ok {
		return nil, repositories.ErrApplicantNotFound
	}
	c := *p
	return &c, nil
}

// CourseRepository is the in-memory CourseRepository
type CourseRepository struct {
	s *Store
}

// GetByID returns a copy of the course
func (r *CourseRepository) GetByID(_ context.Context, id string) (*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	course, ok := r.s.courses[id]
	if !ok {
		return nil, repositories.ErrCourseNotFound
	}
	c := *course
	return &c, nil
}

// List returns every course ordered by id
func (r *CourseRepository) List(_ context.Context) ([]*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	courses := make([]*models.Course, 0, len(r.s.courses))
	for _, course := range r.s.courses {
		c := *course
		courses = append(courses, &c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

// Upsert inserts or replaces a course
func (r *CourseRepository) Upsert(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *course
	r.s.courses[c.ID] = &c
	return nil
}

// LetterRepository is the in-memory LetterRepository
type LetterRepository struct {
	s *Store
}

// Get returns the artifact for the pair
func (r *LetterRepository) Get(_ context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	artifact, ok := r.s.letters[letterKey{applicationID, letterType}]
	if !ok {
		return nil, repositories.ErrLetterNotFound
	}
	c := *artifact
	return &c, nil
}

// Create stores the artifact unless one already exists for the pair
func (r *LetterRepository) Create(_ context.Context, artifact *models.LetterArtifact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.applications[artifact.ApplicationID]; !ok {
		return repositories.ErrApplicationNotFound
	}
	key := letterKey{artifact.ApplicationID, artifact.LetterType}
	if _, ok := r.s.letters[key]; ok {
		return repositories.ErrLetterAlreadyExists
	}

	c := *artifact
	r.s.letters[key] = &c
	return nil
}

// ListByApplication returns the artifacts of an application, oldest first
func (r *LetterRepository) ListByApplication(_ context.Context, applicationID string) ([]*models.LetterArtifact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	artifacts := []*models.LetterArtifact{}
	for key, artifact := range r.s.letters {
		if key.applicationID == applicationID {
			c := *artifact
			artifacts = append(artifacts, &c)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].GeneratedAt.Before(artifacts[j].GeneratedAt)
	})
	return artifacts, nil
}
