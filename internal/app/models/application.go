package models

import "time"

// Application is a single applicant's admissions case
type Application struct {
	ID          string            `json:"id" db:"id"`
	ApplicantID string            `json:"applicantId" db:"applicant_id"`
	CourseID    string            `json:"courseId" db:"course_id"`
	Status      ApplicationStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Offer     *Offer     `json:"offer,omitempty"`
	Applicant *Applicant `json:"applicant,omitempty"`
}

// Applicant is the person behind an application
type Applicant struct {
	ID       string `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	FullName string `json:"fullName" db:"full_name"`
}

// Offer holds the tuition terms issued on admission
type Offer struct {
	ApplicationID    string     `json:"applicationId" db:"application_id"`
	TuitionFeeGross  int64      `json:"tuitionFeeGross" db:"tuition_fee_gross"`
	DiscountPercent  int64      `json:"discountPercent" db:"discount_percent"`
	TuitionFeeNet    int64      `json:"tuitionFeeNet" db:"tuition_fee_net"`
	DurationYears    int        `json:"durationYears" db:"duration_years"`
	DeadlineDate     time.Time  `json:"deadlineDate" db:"deadline_date"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	PaymentReference *string    `json:"paymentReference,omitempty" db:"payment_reference"`
	AmountPaid       *int64     `json:"amountPaid,omitempty" db:"amount_paid"`
	PaidAt           *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// Expired reports whether the acceptance deadline has passed at now
func (o *Offer) Expired(now time.Time) bool {
	return now.After(o.DeadlineDate)
}

// Payment records the outcome of a tuition payment made outside this system
type Payment struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

// Course is a catalog entry. The catalog owns it; admissions only reads it.
type Course struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	DegreeLevel  string `json:"degreeLevel" db:"degree_level"`
	FieldTag     string `json:"fieldTag" db:"field_tag"`
	DurationText string `json:"durationText" db:"duration_text"`
}
