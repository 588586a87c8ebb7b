package dto

import (
	"time"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/pkg/amountwords"
	"github.com/yigit/admissions/internal/pkg/tuition"
)

// SubmitApplicationRequest opens a new application
type SubmitApplicationRequest struct {
	ApplicantEmail string `json:"applicantEmail" binding:"required,email"`
	ApplicantName  string `json:"applicantName" binding:"required,min=2,max=100"`
	CourseID       string `json:"courseId" binding:"required"`
}

// PaymentRequest records a tuition payment made outside this service
type PaymentRequest struct {
	Reference string `json:"reference" binding:"required,max=255"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// TransitionRequest moves an application to a new status.
// ExpectedStatus is the status the caller last saw.
type TransitionRequest struct {
	ExpectedStatus string          `json:"expectedStatus" binding:"required"`
	TargetStatus   string          `json:"targetStatus" binding:"required"`
	Payment        *PaymentRequest `json:"payment,omitempty"`
}

// ToPayment converts the optional payment block
func (r TransitionRequest) ToPayment() *models.Payment {
	if r.Payment == nil {
		return nil
	}
	return &models.Payment{Reference: r.Payment.Reference, Amount: r.Payment.Amount}
}

// OfferResponse is the tuition offer attached to an admitted application
type OfferResponse struct {
	TuitionFeeGross  int64      `json:"tuitionFeeGross"`
	DiscountPercent  int64      `json:"discountPercent"`
	TuitionFeeNet    int64      `json:"tuitionFeeNet"`
	NetFeeWords      string     `json:"netFeeWords"`
	DurationYears    int        `json:"durationYears"`
	DeadlineDate     time.Time  `json:"deadlineDate"`
	DeadlineWords    string     `json:"deadlineWords"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty"`
	PaymentReference *string    `json:"paymentReference,omitempty"`
	AmountPaid       *int64     `json:"amountPaid,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
}

// ApplicationResponse is the API view of an application
type ApplicationResponse struct {
	ID                 string         `json:"id"`
	ApplicantID        string         `json:"applicantId"`
	ApplicantEmail     string         `json:"applicantEmail,omitempty"`
	ApplicantName      string         `json:"applicantName,omitempty"`
	CourseID           string         `json:"courseId"`
	Status             string         `json:"status"`
	AllowedTransitions []string       `json:"allowedTransitions"`
	Offer              *OfferResponse `json:"offer,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// FromApplication converts a models.Application to an ApplicationResponse
func FromApplication(app *models.Application) ApplicationResponse {
	if app == nil {
		return ApplicationResponse{}
	}

	resp := ApplicationResponse{
		ID:                 app.ID,
		ApplicantID:        app.ApplicantID,
		CourseID:           app.CourseID,
		Status:             app.Status.String(),
		AllowedTransitions: []string{},
		CreatedAt:          app.CreatedAt,
		UpdatedAt:          app.UpdatedAt,
	}
	for _, next := range app.Status.Successors() {
		resp.AllowedTransitions = append(resp.AllowedTransitions, next.String())
	}

	if app.Applicant != nil {
		resp.ApplicantEmail = app.Applicant.Email
		resp.ApplicantName = app.Applicant.FullName
	}

	if o := app.Offer; o != nil {
		resp.Offer = &OfferResponse{
			TuitionFeeGross:  o.TuitionFeeGross,
			DiscountPercent:  o.DiscountPercent,
			TuitionFeeNet:    o.TuitionFeeNet,
			NetFeeWords:      amountwords.NumberToWords(o.TuitionFeeNet),
			DurationYears:    o.DurationYears,
			DeadlineDate:     o.DeadlineDate,
			DeadlineWords:    amountwords.DateToWords(o.DeadlineDate),
			AcceptedAt:       o.AcceptedAt,
			PaymentReference: o.PaymentReference,
			AmountPaid:       o.AmountPaid,
			PaidAt:           o.PaidAt,
		}
	}

	return resp
}

// FromApplications converts a page of applications
func FromApplications(apps []*models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, FromApplication(app))
	}
	return out
}

// TransitionResponse describes the committed change
type TransitionResponse struct {
	ApplicationID string    `json:"applicationId"`
	FromStatus    string    `json:"fromStatus"`
	ToStatus      string    `json:"toStatus"`
	Actor         string    `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
}

// FromTransitionEvent converts a models.TransitionEvent
func FromTransitionEvent(e models.TransitionEvent) TransitionResponse {
	return TransitionResponse{
		ApplicationID: e.ApplicationID,
		FromStatus:    e.FromStatus.String(),
		ToStatus:      e.ToStatus.String(),
		Actor:         e.Actor,
		Timestamp:     e.Timestamp,
	}
}

// LetterResponse is a generated letter
type LetterResponse struct {
	ID               string    `json:"id"`
	ApplicationID    string    `json:"applicationId"`
	LetterType       string    `json:"letterType"`
	StorageReference string    `json:"storageReference"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// FromLetter converts a models.LetterArtifact
func FromLetter(a *models.LetterArtifact) LetterResponse {
	return LetterResponse{
		ID:               a.ID,
		ApplicationID:    a.ApplicationID,
		LetterType:       string(a.LetterType),
		StorageReference: a.StorageReference,
		GeneratedAt:      a.GeneratedAt,
	}
}

// NotificationResponse reports an accepted notification
type NotificationResponse struct {
	MessageID string `json:"messageId"`
}

// TuitionQuoteResponse is a tuition breakdown with worded amounts
type TuitionQuoteResponse struct {
	tuition.Quote
	NetFeeWords         string `json:"netFeeWords"`
	ProgrammeTotalWords string `json:"programmeTotalWords"`
}

// FromQuote converts a tuition.Quote
func FromQuote(q tuition.Quote) TuitionQuoteResponse {
	return TuitionQuoteResponse{
		Quote:               q,
		NetFeeWords:         amountwords.NumberToWords(q.NetFee),
		ProgrammeTotalWords: amountwords.NumberToWords(q.ProgrammeTotal),
	}
}
