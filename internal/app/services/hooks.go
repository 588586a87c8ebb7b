package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models"
)

// PostCommitHook reacts to a committed transition. Hooks run in registration
// order; an error or panic in one is logged and never reaches the others or the caller.
type PostCommitHook interface {
	Name() string
	AfterCommit(ctx context.Context, event models.TransitionEvent) error
}

// runHooks invokes every hook with a context detached from the caller's cancellation
func runHooks(ctx context.Context, hooks []PostCommitHook, event models.TransitionEvent, logger zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)
	for _, hook := range hooks {
		if err := safeCall(ctx, hook, event); err != nil {
			logger.Warn().
				Err(err).
				Str("hook", hook.Name()).
				Str("applicationId", event.ApplicationID).
				Str("toStatus", event.ToStatus.String()).
				Msg("Post-commit hook failed")
		}
	}
}

func safeCall(ctx context.Context, hook PostCommitHook, event models.TransitionEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return hook.AfterCommit(ctx, event)
}

// DocumentHook generates the letter a transition calls for (ADMITTED: offer,
// OFFER_ACCEPTED: admission). It runs inline so the letter exists before
// notifications go out.
type DocumentHook struct {
	documents DocumentService
	timeout   time.Duration
}

// NewDocumentHook creates a DocumentHook. timeout bounds each generation.
func NewDocumentHook(documents DocumentService, timeout time.Duration) *DocumentHook {
	return &DocumentHook{documents: documents, timeout: timeout}
}

// Name implements PostCommitHook
func (h *DocumentHook) Name() string { return "documents" }

// AfterCommit implements PostCommitHook
func (h *DocumentHook) AfterCommit(ctx context.Context, event models.TransitionEvent) error {
	letterType, ok := models.LetterForStatus(event.ToStatus)
	if !ok {
		return nil
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	_, err := h.documents.EnsureLetter(ctx, event.ApplicationID, letterType)
	return err
}

// NotificationHook sends the applicant email and any admin alert in the
// background. The transition does not wait for delivery.
type NotificationHook struct {
	notifications NotificationService
	timeout       time.Duration
	logger        zerolog.Logger
	wg            sync.WaitGroup
}

// NewNotificationHook creates a NotificationHook. timeout bounds each dispatch.
func NewNotificationHook(notifications NotificationService, timeout time.Duration, logger zerolog.Logger) *NotificationHook {
	return &NotificationHook{notifications: notifications, timeout: timeout, logger: logger}
}

// Name implements PostCommitHook
func (h *NotificationHook) Name() string { return "notifications" }

// AfterCommit implements PostCommitHook. It only schedules work and always returns nil.
func (h *NotificationHook) AfterCommit(ctx context.Context, event models.TransitionEvent) error {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error().Interface("panic", r).Str("applicationId", event.ApplicationID).Msg("Notification dispatch panicked")
			}
		}()

		ctx := context.WithoutCancel(ctx)
		if h.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}
		h.dispatch(ctx, event)
	}()
	return nil
}

func (h *NotificationHook) dispatch(ctx context.Context, event models.TransitionEvent) {
	log := h.logger.With().Str("applicationId", event.ApplicationID).Str("toStatus", event.ToStatus.String()).Logger()

	if _, err := h.notifications.NotifyApplicant(ctx, event.ApplicationID, event); err != nil {
		log.Warn().Err(err).Msg("Applicant notification failed")
	}

	if subject, ok := AdminAlertSubject(event); ok {
		if _, err := h.notifications.NotifyAdmins(ctx, subject, event); err != nil {
			log.Warn().Err(err).Msg("Admin alert failed")
		}
	}
}

// Wait blocks until every scheduled dispatch has finished
func (h *NotificationHook) Wait() {
	h.wg.Wait()
}

// EventPublisher receives committed transitions for live subscribers
type EventPublisher interface {
	Publish(event models.TransitionEvent)
}

// EventFeedHook forwards every committed transition to an EventPublisher
type EventFeedHook struct {
	publisher EventPublisher
}

// NewEventFeedHook creates an EventFeedHook
func NewEventFeedHook(publisher EventPublisher) *EventFeedHook {
	return &EventFeedHook{publisher: publisher}
}

// Name implements PostCommitHook
func (h *EventFeedHook) Name() string { return "event-feed" }

// AfterCommit implements PostCommitHook
func (h *EventFeedHook) AfterCommit(_ context.Context, event models.TransitionEvent) error {
	h.publisher.Publish(event)
	return nil
}
