package models

import "time"

// DemoClassStatus tracks a scheduled trial session.
type DemoClassStatus string

const (
	DemoPending   DemoClassStatus = "pending"
	DemoAccepted  DemoClassStatus = "accepted"
	DemoRejected  DemoClassStatus = "rejected"
	DemoCompleted DemoClassStatus = "completed"
	DemoCancelled DemoClassStatus = "cancelled"
)

func (s DemoClassStatus) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s DemoClassStatus) Valid() bool {
	_, ok := demoTransitions[s]
	return ok
}

// Terminal reports whether the demo is finalized.
func (s DemoClassStatus) Terminal() bool {
	return s.Valid() && len(demoTransitions[s]) == 0
}

// pending and accepted may flip back and forth; everything else only moves
// toward completed, rejected or cancelled.
var demoTransitions = map[DemoClassStatus][]DemoClassStatus{
	DemoPending:   {DemoAccepted, DemoRejected, DemoCancelled},
	DemoAccepted:  {DemoPending, DemoCompleted, DemoCancelled},
	DemoRejected:  {},
	DemoCompleted: {},
	DemoCancelled: {},
}

// NextDemoClassStatuses lists the statuses reachable from current.
func NextDemoClassStatuses(current DemoClassStatus) []DemoClassStatus {
	return append([]DemoClassStatus(nil), demoTransitions[current]...)
}

// CanTransitionDemoClass reports whether from -> to is allowed.
func CanTransitionDemoClass(from, to DemoClassStatus) bool {
	return containsStatus(demoTransitions[from], to)
}

// DemoClass is an optional trial session tied to a match.
type DemoClass struct {
	ID              string          `db:"id" json:"id"`
	TutorRequestID  *string         `db:"tutor_request_id" json:"tutor_request_id,omitempty"`
	StudentID       *string         `db:"student_id" json:"student_id,omitempty"`
	TutorID         string          `db:"tutor_id" json:"tutor_id"`
	Subject         string          `db:"subject" json:"subject"`
	RequestedDate   time.Time       `db:"requested_date" json:"requested_date"`
	DurationMinutes int             `db:"duration_minutes" json:"duration"`
	Status          DemoClassStatus `db:"status" json:"status"`
	StudentNotes    *string         `db:"student_notes" json:"student_notes,omitempty"`
	TutorNotes      *string         `db:"tutor_notes" json:"tutor_notes,omitempty"`
	AdminNotes      *string         `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DemoClassFilter constrains listing queries.
type DemoClassFilter struct {
	Status    []DemoClassStatus
	TutorID   string
	StudentID string
	Page      int
	PageSize  int
}
