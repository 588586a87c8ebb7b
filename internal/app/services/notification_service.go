package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/pkg/amountwords"
	"github.com/yigit/admissions/internal/pkg/apperrors"
	"github.com/yigit/admissions/internal/pkg/email"
	"github.com/yigit/admissions/internal/pkg/filestorage"
	"github.com/yigit/admissions/internal/pkg/metrics"
)

// Notification audiences, used as metric labels
const (
	AudienceApplicant = "applicant"
	AudienceAdmin     = "admin"
)

// NotificationService emails applicants about their status and alerts admissions staff
type NotificationService interface {
	NotifyApplicant(ctx context.Context, applicationID string, event models.TransitionEvent) (email.Receipt, error)
	NotifyAdmins(ctx context.Context, subject string, event models.TransitionEvent) ([]email.Receipt, error)
	ResendStatusNotification(ctx context.Context, applicationID, actor string) (email.Receipt, error)
}

// NotificationConfig configures notification content and recipients
type NotificationConfig struct {
	CollegeName string
	AdminEmails []string
	Clock       Clock
}

type notificationService struct {
	applications repositories.ApplicationRepository
	letters      repositories.LetterRepository
	storage      filestorage.FileStorage
	channel      email.DeliveryChannel
	config       NotificationConfig
	logger       zerolog.Logger
}

// NewNotificationService creates the notification service. storage may be nil,
// in which case letters are referenced instead of attached.
func NewNotificationService(
	repos *repositories.Repositories,
	storage filestorage.FileStorage,
	channel email.DeliveryChannel,
	config NotificationConfig,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		applications: repos.Applications,
		letters:      repos.Letters,
		storage:      storage,
		channel:      channel,
		config:       config,
		logger:       logger,
	}
}

// AdminAlertSubject returns the admin alert subject for event, if the event warrants one
func AdminAlertSubject(event models.TransitionEvent) (string, bool) {
	if event.IsSubmission() {
		return "New application submitted: " + event.ApplicationID, true
	}
	switch event.ToStatus {
	case models.StatusOfferAccepted:
		return "Offer accepted: " + event.ApplicationID, true
	case models.StatusEnrolled:
		return "Applicant enrolled: " + event.ApplicationID, true
	case models.StatusWithdrawn:
		return "Application withdrawn: " + event.ApplicationID, true
	}
	return "", false
}

var applicantSubjects = map[models.ApplicationStatus]string{
	models.StatusSubmitted:     "We have received your application",
	models.StatusUnderReview:   "Your application is under review",
	models.StatusAdmitted:      "Your offer of admission",
	models.StatusOfferAccepted: "Your admission letter",
	models.StatusEnrolled:      "Welcome, your enrolment is complete",
	models.StatusRejected:      "An update on your application",
	models.StatusWithdrawn:     "Your application has been withdrawn",
}

var applicantParagraphs = map[models.ApplicationStatus]string{
	models.StatusSubmitted:     "Thank you for applying. Your application has been received and will be reviewed shortly.",
	models.StatusUnderReview:   "Our admissions team has started reviewing your application.",
	models.StatusAdmitted:      "We are pleased to offer you a place. Your offer letter with the tuition terms is enclosed.",
	models.StatusOfferAccepted: "Thank you for accepting your offer. Your admission letter is enclosed.",
	models.StatusEnrolled:      "Your enrolment is confirmed. We look forward to welcoming you.",
	models.StatusRejected:      "After careful consideration we are unable to offer you a place this time.",
	models.StatusWithdrawn:     "Your application has been withdrawn. No further action is needed.",
}

var applicantTemplate = template.Must(template.New("applicant").Parse(`<html>
<body>
	<h2>{{.CollegeName}}</h2>
	<p>Dear {{.ApplicantName}},</p>
	<p>{{.Paragraph}}</p>
	{{- with .Offer}}
	<table>
		<tr><td>Annual tuition</td><td>{{.TuitionFeeGross}}</td></tr>
		<tr><td>Early payment discount</td><td>{{.DiscountPercent}}%</td></tr>
		<tr><td>Payable</td><td>{{.TuitionFeeNet}} ({{.NetFeeWords}})</td></tr>
		<tr><td>Accept by</td><td>{{.Deadline}}</td></tr>
	</table>
	{{- end}}
	{{- with .LetterReference}}
	<p>Your letter is available at: {{.}}</p>
	{{- end}}
	<p>Application reference: {{.ApplicationID}}</p>
</body>
</html>`))

var adminTemplate = template.Must(template.New("admin").Parse(`<html>
<body>
	<h3>{{.Subject}}</h3>
	<table>
		<tr><td>Application</td><td>{{.ApplicationID}}</td></tr>
		{{- with .FromStatus}}
		<tr><td>From</td><td>{{.}}</td></tr>
		{{- end}}
		<tr><td>To</td><td>{{.ToStatus}}</td></tr>
		<tr><td>Actor</td><td>{{.Actor}}</td></tr>
		<tr><td>At</td><td>{{.Timestamp}}</td></tr>
	</table>
</body>
</html>`))

type offerView struct {
	TuitionFeeGross int64
	DiscountPercent int64
	TuitionFeeNet   int64
	NetFeeWords     string
	Deadline        string
}

type applicantView struct {
	CollegeName     string
	ApplicantName   string
	ApplicationID   string
	Paragraph       string
	Offer           *offerView
	LetterReference string
}

// NotifyApplicant emails the applicant about the status the event entered.
// Offer and admission notifications carry the generated letter when it can be read.
func (s *notificationService) NotifyApplicant(ctx context.Context, applicationID string, event models.TransitionEvent) (email.Receipt, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return email.Receipt{}, err
	}
	if app.Applicant == nil || app.Applicant.Email == "" {
		return email.Receipt{}, fmt.Errorf("application %s has no applicant email", app.ID)
	}

	view := applicantView{
		CollegeName:   s.config.CollegeName,
		ApplicantName: app.Applicant.FullName,
		ApplicationID: app.ID,
		Paragraph:     applicantParagraphs[event.ToStatus],
	}
	if event.ToStatus == models.StatusAdmitted && app.Offer != nil {
		view.Offer = &offerView{
			TuitionFeeGross: app.Offer.TuitionFeeGross,
			DiscountPercent: app.Offer.DiscountPercent,
			TuitionFeeNet:   app.Offer.TuitionFeeNet,
			NetFeeWords:     amountwords.NumberToWords(app.Offer.TuitionFeeNet),
			Deadline:        amountwords.LongDate(app.Offer.DeadlineDate),
		}
	}

	msg := email.Message{
		To:      app.Applicant.Email,
		Subject: s.subject(applicantSubjects[event.ToStatus]),
	}

	if letterType, ok := models.LetterForStatus(event.ToStatus); ok {
		attachment, reference := s.letterAttachment(ctx, app.ID, letterType)
		if attachment != nil {
			msg.Attachments = append(msg.Attachments, *attachment)
		} else {
			view.LetterReference = reference
		}
	}

	var body bytes.Buffer
	if err := applicantTemplate.Execute(&body, view); err != nil {
		return email.Receipt{}, fmt.Errorf("failed to render applicant email: %w", err)
	}
	msg.HTMLBody = body.String()

	receipt, err := s.send(ctx, AudienceApplicant, msg)
	if err != nil {
		return email.Receipt{}, err
	}

	s.logger.Info().
		Str("applicationId", app.ID).
		Str("status", event.ToStatus.String()).
		Str("messageId", receipt.ID).
		Msg("Applicant notified")
	return receipt, nil
}

// letterAttachment loads the letter for attaching. When the document cannot be
// read back (remote storage) only its reference is returned.
func (s *notificationService) letterAttachment(ctx context.Context, applicationID string, letterType models.LetterType) (*email.Attachment, string) {
	artifact, err := s.letters.Get(ctx, applicationID, letterType)
	if err != nil {
		if !errors.Is(err, repositories.ErrLetterNotFound) {
			s.logger.Warn().Err(err).Str("applicationId", applicationID).Msg("Failed to look up letter for notification")
		}
		return nil, ""
	}

	if s.storage != nil {
		content, err := s.storage.Read(ctx, artifact.StorageReference)
		if err == nil {
			return &email.Attachment{
				Filename:    strings.ToLower(string(letterType)) + "-letter.html",
				ContentType: "text/html",
				Content:     content,
			}, artifact.StorageReference
		}
		s.logger.Debug().Err(err).Str("reference", artifact.StorageReference).Msg("Letter not readable locally, linking instead")
	}
	return nil, artifact.StorageReference
}

// NotifyAdmins sends the alert to every configured admin. Each recipient is
// attempted; the returned error joins the individual failures.
func (s *notificationService) NotifyAdmins(ctx context.Context, subject string, event models.TransitionEvent) ([]email.Receipt, error) {
	if len(s.config.AdminEmails) == 0 {
		s.logger.Debug().Str("subject", subject).Msg("No admin recipients configured, skipping alert")
		return nil, nil
	}

	var body bytes.Buffer
	if err := adminTemplate.Execute(&body, struct {
		Subject string
		models.TransitionEvent
	}{subject, event}); err != nil {
		return nil, fmt.Errorf("failed to render admin email: %w", err)
	}

	receipts := make([]email.Receipt, 0, len(s.config.AdminEmails))
	var errs []error
	for _, to := range s.config.AdminEmails {
		receipt, err := s.send(ctx, AudienceAdmin, email.Message{
			To:       to,
			Subject:  s.subject(subject),
			HTMLBody: body.String(),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		receipts = append(receipts, receipt)
	}

	return receipts, errors.Join(errs...)
}

// ResendStatusNotification repeats the applicant email for the current status
func (s *notificationService) ResendStatusNotification(ctx context.Context, applicationID, actor string) (email.Receipt, error) {
	if applicationID == "" {
		return email.Receipt{}, apperrors.NewValidationError("application id is required")
	}
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return email.Receipt{}, err
	}

	return s.NotifyApplicant(ctx, app.ID, models.TransitionEvent{
		ApplicationID: app.ID,
		ToStatus:      app.Status,
		Actor:         actor,
		Timestamp:     s.config.Clock.now(),
	})
}

func (s *notificationService) subject(text string) string {
	if s.config.CollegeName == "" {
		return text
	}
	return s.config.CollegeName + " - " + text
}

func (s *notificationService) send(ctx context.Context, audience string, msg email.Message) (email.Receipt, error) {
	receipt, err := s.channel.Send(ctx, msg)
	metrics.RecordNotification(s.channel.Name(), audience, err)
	if err != nil {
		return email.Receipt{}, apperrors.NewNotificationError(msg.To, err)
	}
	return receipt, nil
}
