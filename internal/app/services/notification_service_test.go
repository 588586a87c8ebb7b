package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/pkg/apperrors"
	"github.com/yigit/admissions/internal/pkg/docgen"
	"github.com/yigit/admissions/internal/pkg/email"
	"github.com/yigit/admissions/internal/pkg/filestorage"
)

func TestAdminAlertSubject(t *testing.T) {
	tests := []struct {
		event models.TransitionEvent
		want  bool
	}{
		{models.TransitionEvent{ToStatus: models.StatusSubmitted}, true},
		{models.TransitionEvent{FromStatus: models.StatusSubmitted, ToStatus: models.StatusUnderReview}, false},
		{models.TransitionEvent{FromStatus: models.StatusUnderReview, ToStatus: models.StatusAdmitted}, false},
		{models.TransitionEvent{FromStatus: models.StatusAdmitted, ToStatus: models.StatusOfferAccepted}, true},
		{models.TransitionEvent{FromStatus: models.StatusOfferAccepted, ToStatus: models.StatusEnrolled}, true},
		{models.TransitionEvent{FromStatus: models.StatusSubmitted, ToStatus: models.StatusRejected}, false},
		{models.TransitionEvent{FromStatus: models.StatusAdmitted, ToStatus: models.StatusWithdrawn}, true},
	}

	for _, tt := range tests {
		subject, ok := AdminAlertSubject(tt.event)
		assert.Equal(t, tt.want, ok, "%s -> %s", tt.event.FromStatus, tt.event.ToStatus)
		if ok {
			assert.NotEmpty(t, subject)
		}
	}
}

func TestNotifyApplicantOnAdmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	receipt, err := f.notifications.NotifyApplicant(ctx, id, models.TransitionEvent{
		ApplicationID: id, FromStatus: models.StatusUnderReview, ToStatus: models.StatusAdmitted, Actor: "officer",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-ada@example.com", receipt.ID)

	sent := f.channel.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "offer")
	assert.Contains(t, sent[0].HTMLBody, "Ada Lovelace")
	assert.Contains(t, sent[0].HTMLBody, "4500")
	assert.Contains(t, sent[0].HTMLBody, "Four Thousand Five Hundred")
	// no letter generated yet, so nothing to attach
	assert.Empty(t, sent[0].Attachments)
}

func TestNotifyApplicantAttachesStoredLetter(t *testing.T) {
	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	generator, err := docgen.NewLocalGenerator(storage)
	require.NoError(t, err)

	f := newFixture(t)
	documents := NewDocumentService(f.repos, generator, DocumentConfig{CollegeName: "Northfield College", Clock: f.clock.Now}, zerolog.Nop())
	channel := &recordingChannel{}
	notifications := NewNotificationService(f.repos, storage, channel, NotificationConfig{Clock: f.clock.Now}, zerolog.Nop())

	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	_, err = documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.NoError(t, err)

	_, err = notifications.NotifyApplicant(ctx, id, models.TransitionEvent{ApplicationID: id, ToStatus: models.StatusAdmitted})
	require.NoError(t, err)

	sent := channel.Messages()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "offer-letter.html", sent[0].Attachments[0].Filename)
	assert.Contains(t, string(sent[0].Attachments[0].Content), "Ada Lovelace")
}

func TestNotifyApplicantLinksUnreadableLetter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusAdmitted)

	// the fake generator's references do not exist in any storage
	artifact, err := f.documents.EnsureLetter(ctx, id, models.LetterOffer)
	require.NoError(t, err)

	_, err = f.notifications.NotifyApplicant(ctx, id, models.TransitionEvent{ApplicationID: id, ToStatus: models.StatusAdmitted})
	require.NoError(t, err)

	sent := f.channel.Messages()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Attachments)
	assert.Contains(t, sent[0].HTMLBody, artifact.StorageReference)
}

func TestNotifyApplicantFailure(t *testing.T) {
	f := newFixture(t)
	f.channel.failFor = map[string]bool{"ada@example.com": true}
	id := f.submit(t)

	_, err := f.notifications.NotifyApplicant(context.Background(), id, models.TransitionEvent{ApplicationID: id, ToStatus: models.StatusSubmitted})
	require.ErrorIs(t, err, apperrors.ErrNotification)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestNotifyAdminsAttemptsEveryRecipient(t *testing.T) {
	f := newFixture(t)
	f.channel.failFor = map[string]bool{"registrar@example.edu": true}

	receipts, err := f.notifications.NotifyAdmins(context.Background(), "Offer accepted: a1", models.TransitionEvent{
		ApplicationID: "a1", FromStatus: models.StatusAdmitted, ToStatus: models.StatusOfferAccepted, Actor: "applicant", Timestamp: fixedNow,
	})
	require.ErrorIs(t, err, apperrors.ErrNotification)
	require.Len(t, receipts, 1)

	sent := f.channel.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "dean@example.edu", sent[0].To)
	assert.Contains(t, sent[0].HTMLBody, "OFFER_ACCEPTED")
}

func TestNotifyAdminsWithoutRecipients(t *testing.T) {
	f := newFixture(t)
	channel := &recordingChannel{}
	notifications := NewNotificationService(f.repos, nil, channel, NotificationConfig{}, zerolog.Nop())

	receipts, err := notifications.NotifyAdmins(context.Background(), "New application submitted: a1", models.TransitionEvent{ApplicationID: "a1", ToStatus: models.StatusSubmitted})
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Empty(t, channel.Messages())
}

func TestMockModeLogsInsteadOfSending(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	channel, err := email.NewChannel(email.SMTPConfig{}, logger)
	require.NoError(t, err)

	f := newFixture(t)
	notifications := NewNotificationService(f.repos, nil, channel, NotificationConfig{Clock: f.clock.Now}, logger)
	id := f.submit(t)

	receipt, err := notifications.NotifyApplicant(context.Background(), id, models.TransitionEvent{ApplicationID: id, ToStatus: models.StatusSubmitted})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.ID, "mock-"))
	assert.Contains(t, logs.String(), "ada@example.com")
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestResendStatusNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)
	f.advanceTo(t, id, models.StatusUnderReview)

	_, err := f.notifications.ResendStatusNotification(ctx, id, "officer")
	require.NoError(t, err)

	sent := f.channel.Messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "under review")

	_, err = f.notifications.ResendStatusNotification(ctx, "missing", "officer")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNotificationHookDispatchesInBackground(t *testing.T) {
	var hook *NotificationHook
	f := newFixture(t, hookFunc(func(ctx context.Context, event models.TransitionEvent) error {
		return hook.AfterCommit(ctx, event)
	}))
	hook = NewNotificationHook(f.notifications, time.Second, zerolog.Nop())

	id := f.submit(t)
	f.advanceTo(t, id, models.StatusOfferAccepted)
	hook.Wait()

	var applicant, admin int
	for _, msg := range f.channel.Messages() {
		if msg.To == "ada@example.com" {
			applicant++
		} else {
			admin++
		}
	}
	// submission, under review, admitted, offer accepted
	assert.Equal(t, 4, applicant)
	// submission and offer accepted, two admins each
	assert.Equal(t, 4, admin)
}
