package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/pkg/amountwords"
	"github.com/yigit/admissions/internal/pkg/apperrors"
	"github.com/yigit/admissions/internal/pkg/docgen"
	"github.com/yigit/admissions/internal/pkg/metrics"
)

// DefaultGenerationTimeout bounds one call to the document generator
const DefaultGenerationTimeout = 15 * time.Second

// DocumentService produces offer and admission letters. A letter is generated
// at most once per application and type; later calls return the stored artifact.
type DocumentService interface {
	EnsureLetter(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error)
	ListLetters(ctx context.Context, applicationID string) ([]*models.LetterArtifact, error)
}

// DocumentConfig configures letter generation
type DocumentConfig struct {
	CollegeName string
	Timeout     time.Duration
	Clock       Clock
}

type documentService struct {
	applications repositories.ApplicationRepository
	applicants   repositories.ApplicantRepository
	courses      repositories.CourseRepository
	letters      repositories.LetterRepository
	generator    docgen.Generator
	config       DocumentConfig
	flights      singleflight.Group
	logger       zerolog.Logger
}

// NewDocumentService creates the document service. repos.Letters may be a cached repository.
func NewDocumentService(repos *repositories.Repositories, generator docgen.Generator, config DocumentConfig, logger zerolog.Logger) DocumentService {
	if config.Timeout <= 0 {
		config.Timeout = DefaultGenerationTimeout
	}
	return &documentService{
		applications: repos.Applications,
		applicants:   repos.Applicants,
		courses:      repos.Courses,
		letters:      repos.Letters,
		generator:    generator,
		config:       config,
		logger:       logger,
	}
}

// EnsureLetter returns the letter for the pair, generating it first if needed
func (s *documentService) EnsureLetter(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error) {
	if applicationID == "" {
		return nil, apperrors.NewValidationError("application id is required")
	}
	if !letterType.IsValid() {
		return nil, apperrors.NewValidationError("unknown letter type %q", letterType)
	}

	existing, err := s.letters.Get(ctx, applicationID, letterType)
	if err == nil {
		metrics.RecordLetter(string(letterType), metrics.OutcomeReused)
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrLetterNotFound) {
		return nil, fmt.Errorf("failed to look up letter: %w", err)
	}

	key := applicationID + ":" + string(letterType)
	results := s.flights.DoChan(key, func() (interface{}, error) {
		// the flight outlives any single waiter and is bounded by config.Timeout
		return s.generate(context.WithoutCancel(ctx), applicationID, letterType)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		artifact := *res.Val.(*models.LetterArtifact)
		return &artifact, nil
	case <-ctx.Done():
		s.logger.Warn().Str("applicationId", applicationID).Str("letterType", string(letterType)).
			Msg("Gave up waiting for letter generation")
		return nil, apperrors.NewDocumentGenerationError(applicationID, string(letterType), ctx.Err())
	}
}

func (s *documentService) generate(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error) {
	log := s.logger.With().Str("applicationId", applicationID).Str("letterType", string(letterType)).Logger()

	// another flight may have finished between the lookup and now
	if existing, err := s.letters.Get(ctx, applicationID, letterType); err == nil {
		metrics.RecordLetter(string(letterType), metrics.OutcomeReused)
		return existing, nil
	}

	fields, err := s.letterFields(ctx, applicationID, letterType)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := time.Now()
	reference, err := s.generator.Generate(genCtx, docgen.Request{
		ApplicationID: applicationID,
		LetterType:    string(letterType),
		Fields:        fields,
	})
	metrics.ObserveGeneration(string(letterType), time.Since(started))
	if err != nil {
		metrics.RecordLetter(string(letterType), metrics.OutcomeFailure)
		log.Error().Err(err).Msg("Letter generation failed")
		return nil, apperrors.NewDocumentGenerationError(applicationID, string(letterType), err)
	}

	artifact := &models.LetterArtifact{
		ID:               uuid.NewString(),
		ApplicationID:    applicationID,
		LetterType:       letterType,
		StorageReference: reference,
		GeneratedAt:      s.config.Clock.now(),
	}

	if err := s.letters.Create(ctx, artifact); err != nil {
		if !errors.Is(err, repositories.ErrLetterAlreadyExists) {
			return nil, fmt.Errorf("failed to store letter: %w", err)
		}
		// another process won; its artifact is the letter
		winner, getErr := s.letters.Get(ctx, applicationID, letterType)
		if getErr != nil {
			return nil, fmt.Errorf("failed to read winning letter: %w", getErr)
		}
		log.Info().Str("orphanReference", reference).Msg("Letter already stored by another writer")
		metrics.RecordLetter(string(letterType), metrics.OutcomeReused)
		return winner, nil
	}

	metrics.RecordLetter(string(letterType), metrics.OutcomeSuccess)
	log.Info().Str("storageReference", reference).Msg("Letter generated")
	return artifact, nil
}

// letterFields collects what gets printed on the letter
func (s *documentService) letterFields(ctx context.Context, applicationID string, letterType models.LetterType) (docgen.LetterFields, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return docgen.LetterFields{}, err
	}

	offer := app.Offer
	if offer == nil {
		return docgen.LetterFields{}, apperrors.NewValidationError("application %s has no offer, %s letter cannot be issued", app.ID, letterType)
	}
	if letterType == models.LetterAdmission && offer.AcceptedAt == nil {
		return docgen.LetterFields{}, apperrors.NewValidationError("offer for application %s has not been accepted", app.ID)
	}

	course, err := s.courses.GetByID(ctx, app.CourseID)
	if err != nil {
		return docgen.LetterFields{}, fmt.Errorf("failed to load course %s: %w", app.CourseID, err)
	}

	applicant := app.Applicant
	if applicant == nil {
		if applicant, err = s.applicants.GetByID(ctx, app.ApplicantID); err != nil {
			return docgen.LetterFields{}, fmt.Errorf("failed to load applicant: %w", err)
		}
	}

	return docgen.LetterFields{
		CollegeName:     s.config.CollegeName,
		ApplicantName:   applicant.FullName,
		ApplicantEmail:  applicant.Email,
		CourseName:      course.Name,
		DegreeLevel:     course.DegreeLevel,
		DurationYears:   offer.DurationYears,
		TuitionFeeGross: offer.TuitionFeeGross,
		DiscountPercent: offer.DiscountPercent,
		TuitionFeeNet:   offer.TuitionFeeNet,
		NetFeeWords:     amountwords.NumberToWords(offer.TuitionFeeNet),
		DeadlineDate:    amountwords.LongDate(offer.DeadlineDate),
		DeadlineWords:   amountwords.DateToWords(offer.DeadlineDate),
		IssuedOn:        amountwords.LongDate(s.config.Clock.now()),
	}, nil
}

// ListLetters returns every letter issued for an application
func (s *documentService) ListLetters(ctx context.Context, applicationID string) ([]*models.LetterArtifact, error) {
	if _, err := s.applications.GetByID(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.letters.ListByApplication(ctx, applicationID)
}
