package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/app/repositories/memory"
	"github.com/yigit/admissions/internal/pkg/docgen"
	"github.com/yigit/admissions/internal/pkg/email"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// testClock is a settable clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeGenerator counts calls and returns a reference per request
type fakeGenerator struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, req docgen.Request) (string, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return "letters/" + req.ApplicationID + "/" + req.LetterType + ".html", nil
}

// recordingChannel captures sent messages
type recordingChannel struct {
	mu      sync.Mutex
	sent    []email.Message
	failFor map[string]bool
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, msg email.Message) (email.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFor[msg.To] {
		return email.Receipt{}, errors.New("mailbox unavailable")
	}
	c.sent = append(c.sent, msg)
	return email.Receipt{ID: "msg-" + msg.To}, nil
}

func (c *recordingChannel) Messages() []email.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]email.Message, len(c.sent))
	copy(out, c.sent)
	return out
}

type fixture struct {
	repos         *repositories.Repositories
	clock         *testClock
	generator     *fakeGenerator
	admissions    AdmissionService
	documents     DocumentService
	notifications NotificationService
	channel       *recordingChannel
}

func newFixture(t *testing.T, hooks ...PostCommitHook) *fixture {
	t.Helper()

	repos := memory.NewRepositories()
	clock := &testClock{now: fixedNow}
	generator := &fakeGenerator{}
	channel := &recordingChannel{}
	logger := zerolog.Nop()

	require.NoError(t, repos.Courses.Upsert(context.Background(), &models.Course{
		ID:           "BSC-CS",
		Name:         "Computer Science",
		DegreeLevel:  "BACHELOR",
		FieldTag:     "Computing & Technology",
		DurationText: "3 years",
	}))

	return &fixture{
		repos:     repos,
		clock:     clock,
		generator: generator,
		channel:   channel,
		admissions: NewAdmissionService(repos, AdmissionConfig{
			OfferValidity: 14 * 24 * time.Hour,
			Clock:         clock.Now,
		}, logger, hooks...),
		documents: NewDocumentService(repos, generator, DocumentConfig{
			CollegeName: "Northfield College",
			Timeout:     time.Second,
			Clock:       clock.Now,
		}, logger),
		notifications: NewNotificationService(repos, nil, channel, NotificationConfig{
			CollegeName: "Northfield College",
			AdminEmails: []string{"registrar@example.edu", "dean@example.edu"},
			Clock:       clock.Now,
		}, logger),
	}
}

// submit creates an application and returns its id
func (f *fixture) submit(t *testing.T) string {
	t.Helper()
	app, err := f.admissions.Submit(context.Background(), SubmitRequest{
		ApplicantEmail: "ada@example.com",
		ApplicantName:  "Ada Lovelace",
		CourseID:       "BSC-CS",
		Actor:          "applicant",
	})
	require.NoError(t, err)
	return app.ID
}

// advanceTo walks the happy path from SUBMITTED up to target
func (f *fixture) advanceTo(t *testing.T, id string, target models.ApplicationStatus) {
	t.Helper()
	path := []models.ApplicationStatus{
		models.StatusSubmitted,
		models.StatusUnderReview,
		models.StatusAdmitted,
		models.StatusOfferAccepted,
		models.StatusEnrolled,
	}
	for i := 1; i < len(path); i++ {
		if path[i-1] == target {
			return
		}
		_, err := f.admissions.Transition(context.Background(), TransitionRequest{
			ApplicationID:  id,
			ExpectedStatus: path[i-1],
			TargetStatus:   path[i],
			Actor:          "officer",
		})
		require.NoError(t, err)
	}
}

// recordingHook remembers every event it was given
type recordingHook struct {
	mu     sync.Mutex
	events []models.TransitionEvent
	err    error
	panics bool
}

func (h *recordingHook) Name() string { return "recording" }

func (h *recordingHook) AfterCommit(_ context.Context, event models.TransitionEvent) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	if h.panics {
		panic("hook exploded")
	}
	return h.err
}

func (h *recordingHook) Events() []models.TransitionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.TransitionEvent, len(h.events))
	copy(out, h.events)
	return out
}
