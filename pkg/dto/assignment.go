package dto

import (
	"time"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// DefaultDemoDuration applies when a demo is booked without a duration.
const DefaultDemoDuration = 60

// DemoClassOptions optionally books a demo class together with an assignment.
type DemoClassOptions struct {
	CreateDemo    bool       `json:"createDemo"`
	RequestedDate *time.Time `json:"requestedDate" validate:"required_if=CreateDemo true"`
	Duration      int        `json:"duration" validate:"omitempty,min=15,max=240"`
	Subject       string     `json:"subject"`
	StudentNotes  string     `json:"studentNotes"`
	TutorNotes    string     `json:"tutorNotes"`
}

// AssignTutorRequest is the single body sent by the assign endpoint.
// Notification flags default to true when omitted.
type AssignTutorRequest struct {
	TutorID               string            `json:"tutorId" validate:"required"`
	Notes                 *string           `json:"notes"`
	DemoClass             *DemoClassOptions `json:"demoClass"`
	SendEmailNotification *bool             `json:"sendEmailNotification"`
	SendSMSNotification   *bool             `json:"sendSMSNotification"`
}

// WantsDemo reports whether a demo class must be created atomically.
func (r AssignTutorRequest) WantsDemo() bool {
	return r.DemoClass != nil && r.DemoClass.CreateDemo
}

// EmailEnabled resolves the email flag with its default.
func (r AssignTutorRequest) EmailEnabled() bool {
	return r.SendEmailNotification == nil || *r.SendEmailNotification
}

// SMSEnabled resolves the SMS flag with its default.
func (r AssignTutorRequest) SMSEnabled() bool {
	return r.SendSMSNotification == nil || *r.SendSMSNotification
}

// AssignTutorResponse carries the assignment and, when booked, its demo.
type AssignTutorResponse struct {
	Assignment *models.TutorAssignment `json:"assignment"`
	DemoClass  *models.DemoClass       `json:"demoClass,omitempty"`
	Reassigned bool                    `json:"reassigned"`
}

// UpdateAssignmentStatusRequest moves an assignment through its table.
type UpdateAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status" validate:"required"`
	Notes  *string                 `json:"notes"`
}
