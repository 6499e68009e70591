package models

import "time"

// ApplicationStatus tracks a tutor's self-submitted interest in a job.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

func (s ApplicationStatus) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:   {ApplicationApproved, ApplicationRejected, ApplicationWithdrawn},
	ApplicationApproved:  {ApplicationWithdrawn},
	ApplicationRejected:  {ApplicationWithdrawn},
	ApplicationWithdrawn: {ApplicationPending},
}

// NextApplicationStatuses lists the statuses reachable from current.
func NextApplicationStatuses(current ApplicationStatus) []ApplicationStatus {
	return append([]ApplicationStatus(nil), applicationTransitions[current]...)
}

// CanTransitionApplication reports whether from -> to is allowed.
func CanTransitionApplication(from, to ApplicationStatus) bool {
	return containsStatus(applicationTransitions[from], to)
}

// Application is a tutor-initiated expression of interest in a request.
// There is at most one row per (tutor, request); withdrawing and re-applying
// reuse it.
type Application struct {
	ID             string            `db:"id" json:"id"`
	TutorRequestID string            `db:"tutor_request_id" json:"tutor_request_id"`
	TutorID        string            `db:"tutor_id" json:"tutor_id"`
	CoverLetter    string            `db:"cover_letter" json:"cover_letter"`
	ProposedRate   *int              `db:"proposed_rate" json:"proposed_rate,omitempty"`
	Status         ApplicationStatus `db:"status" json:"status"`
	AdminNotes     *string           `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}
