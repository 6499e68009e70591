package models

import "time"

// Audit actions recorded by the matching workflow.
const (
	AuditActionRequestCreate     = "TUTOR_REQUEST_CREATE"
	AuditActionRequestUpdate     = "TUTOR_REQUEST_UPDATE"
	AuditActionRequestStatus     = "TUTOR_REQUEST_STATUS"
	AuditActionRequestDelete     = "TUTOR_REQUEST_DELETE"
	AuditActionAssignTutor       = "ASSIGN_TUTOR"
	AuditActionAssignmentStatus  = "ASSIGNMENT_STATUS"
	AuditActionAssignmentDelete  = "ASSIGNMENT_DELETE"
	AuditActionApplicationApply  = "APPLICATION_APPLY"
	AuditActionApplicationReset  = "APPLICATION_RESET"
	AuditActionApplicationReview = "APPLICATION_REVIEW"
	AuditActionDemoClassUpdate   = "DEMO_CLASS_UPDATE"
	AuditActionDemoClassDelete   = "DEMO_CLASS_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
