package models

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

// Application status constants
const (
	StatusSubmitted     ApplicationStatus = "SUBMITTED"
	StatusUnderReview   ApplicationStatus = "UNDER_REVIEW"
	StatusAdmitted      ApplicationStatus = "ADMITTED"
	StatusOfferAccepted ApplicationStatus = "OFFER_ACCEPTED"
	StatusEnrolled      ApplicationStatus = "ENROLLED"
	StatusRejected      ApplicationStatus = "REJECTED"
	StatusWithdrawn     ApplicationStatus = "WITHDRAWN"
)

// InitialStatus is the status of a freshly submitted application.
const InitialStatus = StatusSubmitted

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ApplicationStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusAdmitted,
	StatusOfferAccepted,
	StatusEnrolled,
	StatusRejected,
	StatusWithdrawn,
}

// transitions holds the direct successors of every non-terminal status.
// Terminal statuses have no entry.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusSubmitted:     {StatusUnderReview, StatusRejected, StatusWithdrawn},
	StatusUnderReview:   {StatusAdmitted, StatusRejected, StatusWithdrawn},
	StatusAdmitted:      {StatusOfferAccepted, StatusRejected, StatusWithdrawn},
	StatusOfferAccepted: {StatusEnrolled, StatusRejected, StatusWithdrawn},
}

// IsValid reports whether s is one of the known statuses
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusAdmitted, StatusOfferAccepted,
		StatusEnrolled, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusEnrolled || s == StatusRejected || s == StatusWithdrawn
}

// String returns the status as stored
func (s ApplicationStatus) String() string {
	return string(s)
}

// Successors returns the statuses directly reachable from s
func (s ApplicationStatus) Successors() []ApplicationStatus {
	next := transitions[s]
	out := make([]ApplicationStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to is a direct successor of from
func CanTransition(from, to ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HasOffer reports whether an application in status s must carry an offer.
// REJECTED and WITHDRAWN may or may not, depending on where they were entered from.
func (s ApplicationStatus) HasOffer() bool {
	return s == StatusAdmitted || s == StatusOfferAccepted || s == StatusEnrolled
}

// OfferAccepted reports whether the offer must carry an acceptance stamp in status s
func (s ApplicationStatus) OfferAccepted() bool {
	return s == StatusOfferAccepted || s == StatusEnrolled
}
