package models

import "time"

// AssignmentStatus is the state of an admin-created tutor pairing.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentRejected  AssignmentStatus = "rejected"
	AssignmentCompleted AssignmentStatus = "completed"
)

func (s AssignmentStatus) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s AssignmentStatus) Valid() bool {
	_, ok := assignmentTransitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed.
func (s AssignmentStatus) Terminal() bool {
	return s.Valid() && len(assignmentTransitions[s]) == 0
}

// Active assignments block a second row for the same tutor and request.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentPending || s == AssignmentAccepted
}

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:   {AssignmentAccepted, AssignmentRejected},
	AssignmentAccepted:  {AssignmentCompleted, AssignmentRejected},
	AssignmentRejected:  {},
	AssignmentCompleted: {},
}

// NextAssignmentStatuses lists the statuses reachable from current.
func NextAssignmentStatuses(current AssignmentStatus) []AssignmentStatus {
	return append([]AssignmentStatus(nil), assignmentTransitions[current]...)
}

// CanTransitionAssignment reports whether from -> to is allowed for anyone.
func CanTransitionAssignment(from, to AssignmentStatus) bool {
	return containsStatus(assignmentTransitions[from], to)
}

// AssignmentTransitionAllowed adds role gating on top of the table: the
// assigned tutor may only answer a pending assignment, staff may do anything
// the table allows.
func AssignmentTransitionAllowed(from, to AssignmentStatus, staff, assignedTutor bool) bool {
	if !CanTransitionAssignment(from, to) {
		return false
	}
	if staff {
		return true
	}
	return assignedTutor && from == AssignmentPending
}

// TutorAssignment is an admin's pairing of a tutor to a request.
type TutorAssignment struct {
	ID             string           `db:"id" json:"id"`
	TutorRequestID string           `db:"tutor_request_id" json:"tutor_request_id"`
	TutorID        string           `db:"tutor_id" json:"tutor_id"`
	Status         AssignmentStatus `db:"status" json:"status"`
	AssignedBy     string           `db:"assigned_by" json:"assigned_by"`
	AssignedAt     time.Time        `db:"assigned_at" json:"assigned_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
	Notes          *string          `db:"notes" json:"notes,omitempty"`
	DemoClassID    *string          `db:"demo_class_id" json:"demo_class_id,omitempty"`
}

// TutorAssignmentDetail enriches assignments with descriptive fields.
type TutorAssignmentDetail struct {
	TutorAssignment
	TutorName  *string `db:"tutor_name" json:"tutor_name,omitempty"`
	TutorEmail *string `db:"tutor_email" json:"tutor_email,omitempty"`
}
