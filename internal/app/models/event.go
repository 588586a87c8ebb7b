package models

import "time"

// TransitionEvent describes a committed status change.
// FromStatus is empty for the event emitted on submission.
type TransitionEvent struct {
	ApplicationID string            `json:"applicationId"`
	FromStatus    ApplicationStatus `json:"fromStatus,omitempty"`
	ToStatus      ApplicationStatus `json:"toStatus"`
	Actor         string            `json:"actor"`
	Timestamp     time.Time         `json:"timestamp"`
}

// IsSubmission reports whether the event records the creation of an application
func (e TransitionEvent) IsSubmission() bool {
	return e.FromStatus == "" && e.ToStatus == InitialStatus
}
