package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

func TestSubmit(t *testing.T) {
	hook := &recordingHook{}
	f := newFixture(t, hook)
	ctx := context.Background()

	app, err := f.admissions.Submit(ctx, SubmitRequest{
		ApplicantEmail: "  Ada@Example.COM ",
		ApplicantName:  "Ada Lovelace",
		CourseID:       "BSC-CS",
		Actor:          "applicant",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.NotEmpty(t, app.ID)
	assert.Nil(t, app.Offer)
	assert.Equal(t, fixedNow, app.CreatedAt)
	require.NotNil(t, app.Applicant)
	assert.Equal(t, "ada@example.com", app.Applicant.Email)

	events := hook.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].IsSubmission())
	assert.Equal(t, app.ID, events[0].ApplicationID)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"bad email", SubmitRequest{ApplicantEmail: "not-an-email", ApplicantName: "Ada", CourseID: "BSC-CS", Actor: "a"}},
		{"short name", SubmitRequest{ApplicantEmail: "ada@example.com", ApplicantName: "A", CourseID: "BSC-CS", Actor: "a"}},
		{"missing course", SubmitRequest{ApplicantEmail: "ada@example.com", ApplicantName: "Ada", Actor: "a"}},
		{"unknown course", SubmitRequest{ApplicantEmail: "ada@example.com", ApplicantName: "Ada", CourseID: "MSC-XX", Actor: "a"}},
		{"missing actor", SubmitRequest{ApplicantEmail: "ada@example.com", ApplicantName: "Ada", CourseID: "BSC-CS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.admissions.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	page, err := f.admissions.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestTransitionGrid(t *testing.T) {
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			from, to := from, to
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				id := f.submit(t)

				// terminal states other than ENROLLED are entered directly from SUBMITTED
				if from == models.StatusRejected || from == models.StatusWithdrawn {
					_, err := f.admissions.Transition(ctx, TransitionRequest{
						ApplicationID: id, ExpectedStatus: models.StatusSubmitted, TargetStatus: from, Actor: "officer",
					})
					require.NoError(t, err)
				} else {
					f.advanceTo(t, id, from)
				}

				before, err := f.admissions.Get(ctx, id)
				require.NoError(t, err)

				event, err := f.admissions.Transition(ctx, TransitionRequest{
					ApplicationID: id, ExpectedStatus: from, TargetStatus: to, Actor: "officer",
				})

				after, getErr := f.admissions.Get(ctx, id)
				require.NoError(t, getErr)

				if models.CanTransition(from, to) {
					require.NoError(t, err)
					assert.Equal(t, from, event.FromStatus)
					assert.Equal(t, to, event.ToStatus)
					assert.Equal(t, to, after.Status)
					return
				}

				assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
				assert.Equal(t, before, after)
			})
		}
	}
}

func TestAdmissionAttachesOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, app.Offer)
	assert.Equal(t, int64(6000), app.Offer.TuitionFeeGross)
	assert.Equal(t, int64(25), app.Offer.DiscountPercent)
	assert.Equal(t, int64(4500), app.Offer.TuitionFeeNet)
	assert.Equal(t, 3, app.Offer.DurationYears)
	assert.Equal(t, fixedNow.Add(14*24*time.Hour), app.Offer.DeadlineDate)
	assert.Nil(t, app.Offer.AcceptedAt)

	f.advanceTo(t, id, models.StatusOfferAccepted)
	app, err = f.admissions.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, app.Offer.AcceptedAt)
	assert.Equal(t, fixedNow, *app.Offer.AcceptedAt)
}

// vanishedCourses behaves like a catalog whose entries were removed after submission
type vanishedCourses struct{}

func (vanishedCourses) GetByID(context.Context, string) (*models.Course, error) {
	return nil, repositories.ErrCourseNotFound
}

func (vanishedCourses) List(context.Context) ([]*models.Course, error) { return nil, nil }

func (vanishedCourses) Upsert(context.Context, *models.Course) error { return nil }

func TestAdmissionWithMissingCourseIsNotANotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusUnderReview)

	repos := *f.repos
	repos.Courses = vanishedCourses{}
	admissions := NewAdmissionService(&repos, AdmissionConfig{Clock: f.clock.Now}, zerolog.Nop())

	_, err := admissions.Transition(ctx, TransitionRequest{
		ApplicationID:  id,
		ExpectedStatus: models.StatusUnderReview,
		TargetStatus:   models.StatusAdmitted,
		Actor:          "officer",
	})
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, app.Status)
}

func TestAcceptExpiredOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	f.clock.Advance(15 * 24 * time.Hour)

	_, err := f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusAdmitted, TargetStatus: models.StatusOfferAccepted, Actor: "applicant",
	})
	require.ErrorIs(t, err, apperrors.ErrOfferExpired)

	var custom *apperrors.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, apperrors.CodeOfferExpired, custom.Code)

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdmitted, app.Status)
	assert.Nil(t, app.Offer.AcceptedAt)

	// rejection is still possible after expiry
	_, err = f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusAdmitted, TargetStatus: models.StatusRejected, Actor: "officer",
	})
	assert.NoError(t, err)
}

func TestTransitionOrderOfChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	_, err := f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: "missing", ExpectedStatus: "BOGUS", TargetStatus: models.StatusUnderReview, Actor: "officer",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "validation precedes lookup")

	_, err = f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: "missing", ExpectedStatus: models.StatusSubmitted, TargetStatus: models.StatusEnrolled, Actor: "officer",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "lookup precedes transition rules")

	_, err = f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusAdmitted, TargetStatus: models.StatusEnrolled, Actor: "officer",
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict, "stale expectation precedes transition rules")

	_, err = f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusSubmitted, TargetStatus: models.StatusUnderReview,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "actor is required")
}

func TestConcurrentTransitionsSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.admissions.Transition(ctx, TransitionRequest{
				ApplicationID: id, ExpectedStatus: models.StatusSubmitted, TargetStatus: models.StatusUnderReview, Actor: "officer",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestEnrolmentRecordsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusOfferAccepted)

	_, err := f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusOfferAccepted, TargetStatus: models.StatusEnrolled, Actor: "bursar",
		Payment: &models.Payment{Reference: "PAY-001", Amount: 4500},
	})
	require.NoError(t, err)

	app, err := f.admissions.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, app.Offer.PaymentReference)
	assert.Equal(t, "PAY-001", *app.Offer.PaymentReference)
	assert.Equal(t, int64(4500), *app.Offer.AmountPaid)
	assert.NotNil(t, app.Offer.PaidAt)
}

func TestPaymentOnlyOnEnrolment(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t)

	_, err := f.admissions.Transition(context.Background(), TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusSubmitted, TargetStatus: models.StatusUnderReview, Actor: "officer",
		Payment: &models.Payment{Reference: "PAY-001", Amount: 100},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestHooksAreIsolated(t *testing.T) {
	failing := &recordingHook{err: errors.New("boom")}
	panicking := &recordingHook{panics: true}
	last := &recordingHook{}
	f := newFixture(t, failing, panicking, last)
	ctx := context.Background()
	id := f.submit(t)

	event, err := f.admissions.Transition(ctx, TransitionRequest{
		ApplicationID: id, ExpectedStatus: models.StatusSubmitted, TargetStatus: models.StatusUnderReview, Actor: "officer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, event.ToStatus)

	events := last.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event, events[1])
}

func TestHooksSeeDetachedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	called := false
	hook := hookFunc(func(ctx context.Context, _ models.TransitionEvent) error {
		called = true
		seen = ctx.Err()
		return nil
	})

	runHooks(ctx, []PostCommitHook{hook}, models.TransitionEvent{ApplicationID: "a1"}, zerolog.Nop())
	assert.True(t, called)
	assert.NoError(t, seen)
}

type hookFunc func(ctx context.Context, event models.TransitionEvent) error

func (h hookFunc) Name() string { return "func" }

func (h hookFunc) AfterCommit(ctx context.Context, event models.TransitionEvent) error {
	return h(ctx, event)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.submit(t)
		f.clock.Advance(time.Minute)
	}

	page, err := f.admissions.List(ctx, ListFilter{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 2)

	page, err = f.admissions.List(ctx, ListFilter{Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)

	_, err = f.admissions.List(ctx, ListFilter{Status: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

type publisherFunc func(event models.TransitionEvent)

func (p publisherFunc) Publish(event models.TransitionEvent) { p(event) }

func TestEventFeedHookPublishesEveryTransition(t *testing.T) {
	var published []models.ApplicationStatus
	hook := NewEventFeedHook(publisherFunc(func(event models.TransitionEvent) {
		published = append(published, event.ToStatus)
	}))
	f := newFixture(t, hook)

	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	assert.Equal(t, []models.ApplicationStatus{
		models.StatusSubmitted, models.StatusUnderReview, models.StatusAdmitted,
	}, published)
}
