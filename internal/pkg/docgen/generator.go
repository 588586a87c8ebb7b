// Package docgen produces offer and admission letters and returns the
// storage reference of the rendered document.
package docgen

import (
	"context"
	"errors"
)

// Letter types understood by the generators
const (
	LetterOffer     = "OFFER"
	LetterAdmission = "ADMISSION"
)

// ErrUnknownTemplate is returned for a letter type with no template
var ErrUnknownTemplate = errors.New("no template for letter type")

// LetterFields is the data printed on a letter. Amounts and dates arrive pre-rendered.
type LetterFields struct {
	CollegeName     string `json:"collegeName"`
	ApplicantName   string `json:"applicantName"`
	ApplicantEmail  string `json:"applicantEmail"`
	CourseName      string `json:"courseName"`
	DegreeLevel     string `json:"degreeLevel"`
	DurationYears   int    `json:"durationYears"`
	TuitionFeeGross int64  `json:"tuitionFeeGross"`
	DiscountPercent int64  `json:"discountPercent"`
	TuitionFeeNet   int64  `json:"tuitionFeeNet"`
	NetFeeWords     string `json:"netFeeWords"`
	DeadlineDate    string `json:"deadlineDate"`
	DeadlineWords   string `json:"deadlineWords"`
	IssuedOn        string `json:"issuedOn"`
}

// Request asks for one letter
type Request struct {
	ApplicationID string       `json:"applicationId"`
	LetterType    string       `json:"letterType"`
	Fields        LetterFields `json:"fields"`
}

// Response is the document service reply
type Response struct {
	Success          bool   `json:"success"`
	StorageReference string `json:"storageReference,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Generator renders a letter and returns where it was stored. Callers enforce
// idempotency; a generator may be invoked more than once for the same request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
