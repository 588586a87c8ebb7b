package models

import (
	"strings"
	"time"
)

// LetterType identifies which legal document a letter artifact is
type LetterType string

// Letter types
const (
	LetterOffer     LetterType = "OFFER"
	LetterAdmission LetterType = "ADMISSION"
)

// IsValid reports whether t is a known letter type
func (t LetterType) IsValid() bool {
	return t == LetterOffer || t == LetterAdmission
}

// ParseLetterType normalizes user input such as "offer" to a LetterType
func ParseLetterType(s string) (LetterType, bool) {
	t := LetterType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.IsValid()
}

// LetterForStatus maps a status entered by a transition to the letter it triggers
func LetterForStatus(s ApplicationStatus) (LetterType, bool) {
	switch s {
	case StatusAdmitted:
		return LetterOffer, true
	case StatusOfferAccepted:
		return LetterAdmission, true
	}
	return "", false
}

// LetterArtifact is a generated letter. At most one exists per (ApplicationID, LetterType).
type LetterArtifact struct {
	ID               string     `json:"id" db:"id"`
	ApplicationID    string     `json:"applicationId" db:"application_id"`
	LetterType       LetterType `json:"letterType" db:"letter_type"`
	StorageReference string     `json:"storageReference" db:"storage_reference"`
	GeneratedAt      time.Time  `json:"generatedAt" db:"generated_at"`
}
