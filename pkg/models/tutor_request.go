package models

import (
	"time"

	"github.com/lib/pq"
)

// TutorRequestStatus is the lifecycle state of a posted tuition need.
type TutorRequestStatus string

const (
	TutorRequestActive    TutorRequestStatus = "Active"
	TutorRequestInactive  TutorRequestStatus = "Inactive"
	TutorRequestAssign    TutorRequestStatus = "Assign"
	TutorRequestCompleted TutorRequestStatus = "Completed"
)

func (s TutorRequestStatus) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s TutorRequestStatus) Valid() bool {
	_, ok := tutorRequestTransitions[s]
	return ok
}

var tutorRequestTransitions = map[TutorRequestStatus][]TutorRequestStatus{
	TutorRequestActive:    {TutorRequestInactive, TutorRequestAssign, TutorRequestCompleted},
	TutorRequestInactive:  {TutorRequestActive},
	TutorRequestAssign:    {TutorRequestCompleted},
	TutorRequestCompleted: {},
}

// NextTutorRequestStatuses lists the statuses reachable from current without
// an admin override.
func NextTutorRequestStatuses(current TutorRequestStatus) []TutorRequestStatus {
	return append([]TutorRequestStatus(nil), tutorRequestTransitions[current]...)
}

// CanTransitionTutorRequest reports whether from -> to is a forward move.
func CanTransitionTutorRequest(from, to TutorRequestStatus) bool {
	return containsStatus(tutorRequestTransitions[from], to)
}

// TutorRequest is a student's posted tuition need.
type TutorRequest struct {
	ID               string             `db:"id" json:"id"`
	StudentID        *string            `db:"student_id" json:"student_id,omitempty"`
	PreferredTutorID *string            `db:"preferred_tutor_id" json:"preferred_tutor_id,omitempty"`
	ContactName      *string            `db:"contact_name" json:"contact_name,omitempty"`
	ContactPhone     *string            `db:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail     *string            `db:"contact_email" json:"contact_email,omitempty"`
	Subjects         pq.StringArray     `db:"subjects" json:"subjects"`
	ClassLevels      pq.StringArray     `db:"class_levels" json:"class_levels"`
	District         string             `db:"district" json:"district"`
	Area             string             `db:"area" json:"area"`
	SalaryMin        int                `db:"salary_min" json:"salary_min"`
	SalaryMax        int                `db:"salary_max" json:"salary_max"`
	Medium           string             `db:"medium" json:"medium"`
	TutoringType     string             `db:"tutoring_type" json:"tutoring_type"`
	StudentCount     int                `db:"student_count" json:"student_count"`
	DaysPerWeek      int                `db:"days_per_week" json:"days_per_week"`
	PreferredTime    string             `db:"preferred_time" json:"preferred_time"`
	ExtraInfo        string             `db:"extra_info" json:"extra_info"`
	AdminNote        *string            `db:"admin_note" json:"admin_note,omitempty"`
	UpdateNotice     *string            `db:"update_notice" json:"update_notice,omitempty"`
	Status           TutorRequestStatus `db:"status" json:"status"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether the request was posted by userID.
func (r *TutorRequest) OwnedBy(userID string) bool {
	return r != nil && r.StudentID != nil && *r.StudentID == userID
}

// TutorRequestFilter captures list query parameters.
type TutorRequestFilter struct {
	Status    []TutorRequestStatus
	Subject   string
	District  string
	Area      string
	Search    string
	StudentID string
	Page      int
	PageSize  int
}

func containsStatus[S comparable](set []S, target S) bool {
	for _, s := range set {
		if s == target {
			return true
		}
	}
	return false
}
