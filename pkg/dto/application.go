package dto

import "github.com/noah-isme/tuition-match-api/pkg/models"

// ApplyForJobRequest is the optional body of the apply endpoint.
type ApplyForJobRequest struct {
	CoverLetter  string `json:"coverLetter" validate:"max=5000"`
	ProposedRate *int   `json:"proposedRate" validate:"omitempty,gte=0"`
}

// ResetApplicationRequest lets staff name the tutor whose application is
// reset; tutors reset their own and leave it empty.
type ResetApplicationRequest struct {
	TutorID string `json:"tutorId"`
}

// ReviewApplicationRequest carries an admin decision. Rejections need notes.
type ReviewApplicationRequest struct {
	Status     models.ApplicationStatus `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes string                   `json:"adminNotes"`
}
