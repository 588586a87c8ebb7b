// Package services holds the admissions business logic:
//   - AdmissionService: submission, lookup and the status state machine
//   - DocumentService: idempotent offer/admission letter generation
//   - NotificationService: applicant emails and admin alerts
//
// Post-commit hooks (hooks.go) connect committed transitions to the last two.
package services

import "time"

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
