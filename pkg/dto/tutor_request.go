package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// SalaryRange is the monthly budget window for a request.
type SalaryRange struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gte=0"`
}

// CreateTutorRequestRequest is the payload for both the authenticated and the
// public submission endpoints.
type CreateTutorRequestRequest struct {
	Subjects         []string    `json:"subjects" validate:"required,min=1,dive,required"`
	ClassLevels      []string    `json:"classLevels" validate:"required,min=1,dive,required"`
	District         string      `json:"district" validate:"required"`
	Area             string      `json:"area" validate:"required"`
	SalaryRange      SalaryRange `json:"salaryRange"`
	Medium           string      `json:"medium"`
	TutoringType     string      `json:"tutoringType"`
	NumberOfStudents int         `json:"numberOfStudents" validate:"omitempty,min=1"`
	DaysPerWeek      int         `json:"daysPerWeek" validate:"omitempty,min=1,max=7"`
	PreferredTime    string      `json:"preferredTime"`
	ExtraInfo        string      `json:"extraInfo"`
	ContactName      string      `json:"contactName"`
	ContactPhone     string      `json:"contactPhone"`
	ContactEmail     string      `json:"contactEmail" validate:"omitempty,email"`
}

// Validate runs struct tags and the cross-field rules. public additionally
// requires contact details since there is no account to reach.
func (r CreateTutorRequestRequest) Validate(v *validator.Validate, public bool) error {
	if err := v.Struct(r); err != nil {
		return ValidationFailed(err)
	}
	if err := checkSalary(r.SalaryRange); err != nil {
		return err
	}
	if public && (strings.TrimSpace(r.ContactName) == "" || strings.TrimSpace(r.ContactPhone) == "") {
		return appErrors.Clone(appErrors.ErrValidation, "contactName and contactPhone are required")
	}
	return nil
}

// ToModel builds a new Active request from the payload.
func (r CreateTutorRequestRequest) ToModel() *models.TutorRequest {
	req := &models.TutorRequest{
		Subjects:      append([]string(nil), r.Subjects...),
		ClassLevels:   append([]string(nil), r.ClassLevels...),
		District:      strings.TrimSpace(r.District),
		Area:          strings.TrimSpace(r.Area),
		SalaryMin:     r.SalaryRange.Min,
		SalaryMax:     r.SalaryRange.Max,
		Medium:        r.Medium,
		TutoringType:  r.TutoringType,
		StudentCount:  r.NumberOfStudents,
		DaysPerWeek:   r.DaysPerWeek,
		PreferredTime: r.PreferredTime,
		ExtraInfo:     r.ExtraInfo,
		Status:        models.TutorRequestActive,
	}
	if req.StudentCount == 0 {
		req.StudentCount = 1
	}
	req.ContactName = optional(r.ContactName)
	req.ContactPhone = optional(r.ContactPhone)
	req.ContactEmail = optional(r.ContactEmail)
	return req
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func checkSalary(sr SalaryRange) error {
	if sr.Min > sr.Max {
		return appErrors.Clone(appErrors.ErrValidation, "salaryRange: min must be <= max")
	}
	return nil
}

// UpdateTutorRequestRequest is a partial update. A nil field is left
// untouched; a pointer to "" is stored as "".
type UpdateTutorRequestRequest struct {
	Subjects         []string     `json:"subjects" validate:"omitempty,min=1,dive,required"`
	ClassLevels      []string     `json:"classLevels" validate:"omitempty,min=1,dive,required"`
	District         *string      `json:"district" validate:"omitempty,min=1"`
	Area             *string      `json:"area" validate:"omitempty,min=1"`
	SalaryRange      *SalaryRange `json:"salaryRange"`
	Medium           *string      `json:"medium"`
	TutoringType     *string      `json:"tutoringType"`
	NumberOfStudents *int         `json:"numberOfStudents" validate:"omitempty,min=1"`
	DaysPerWeek      *int         `json:"daysPerWeek" validate:"omitempty,min=1,max=7"`
	PreferredTime    *string      `json:"preferredTime"`
	ExtraInfo        *string      `json:"extraInfo"`
	AdminNote        *string      `json:"adminNote"`
	UpdateNotice     *string      `json:"updateNotice"`
}

// TouchesAdminFields reports whether staff-only columns are being written.
func (r UpdateTutorRequestRequest) TouchesAdminFields() bool {
	return r.AdminNote != nil || r.UpdateNotice != nil
}

// Apply merges the update into req and validates the result.
func (r UpdateTutorRequestRequest) Apply(req *models.TutorRequest) error {
	if r.Subjects != nil {
		req.Subjects = append([]string(nil), r.Subjects...)
	}
	if r.ClassLevels != nil {
		req.ClassLevels = append([]string(nil), r.ClassLevels...)
	}
	setString(&req.District, r.District)
	setString(&req.Area, r.Area)
	if r.SalaryRange != nil {
		req.SalaryMin = r.SalaryRange.Min
		req.SalaryMax = r.SalaryRange.Max
	}
	setString(&req.Medium, r.Medium)
	setString(&req.TutoringType, r.TutoringType)
	if r.NumberOfStudents != nil {
		req.StudentCount = *r.NumberOfStudents
	}
	if r.DaysPerWeek != nil {
		req.DaysPerWeek = *r.DaysPerWeek
	}
	setString(&req.PreferredTime, r.PreferredTime)
	setString(&req.ExtraInfo, r.ExtraInfo)
	if r.AdminNote != nil {
		note := *r.AdminNote
		req.AdminNote = &note
	}
	if r.UpdateNotice != nil {
		notice := *r.UpdateNotice
		req.UpdateNotice = &notice
	}
	return checkSalary(SalaryRange{Min: req.SalaryMin, Max: req.SalaryMax})
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// UpdateTutorRequestStatusRequest changes the lifecycle status. Force lets
// staff move outside the forward-only table.
type UpdateTutorRequestStatusRequest struct {
	Status models.TutorRequestStatus `json:"status" validate:"required"`
	Force  bool                      `json:"force"`
}

// TutorRequestQuery mirrors supported listing filters.
type TutorRequestQuery struct {
	Status   []models.TutorRequestStatus
	Subject  string
	District string
	Area     string
	Search   string
	Page     int
	Limit    int
}
