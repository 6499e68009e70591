package dto

import (
	"time"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// UpdateDemoClassRequest edits a demo class. Nil fields are left untouched.
type UpdateDemoClassRequest struct {
	Status        *models.DemoClassStatus `json:"status"`
	AdminNotes    *string                 `json:"admin_notes"`
	RequestedDate *time.Time              `json:"requested_date"`
	Duration      *int                    `json:"duration" validate:"omitempty,min=15,max=240"`
}

// ChangesSchedule reports whether anything besides notes is edited.
func (r UpdateDemoClassRequest) ChangesSchedule() bool {
	return r.RequestedDate != nil || r.Duration != nil
}

// DemoClassQuery mirrors supported listing filters.
type DemoClassQuery struct {
	Status    []models.DemoClassStatus
	TutorID   string
	StudentID string
	Page      int
	Limit     int
}
