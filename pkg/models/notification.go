package models

// NotificationChannel selects the delivery transport.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// NotificationKind names the workflow event behind a message.
type NotificationKind string

const (
	NotifyTutorAssigned     NotificationKind = "tutor_assigned"
	NotifyAssignmentUpdated NotificationKind = "assignment_updated"
	NotifyDemoScheduled     NotificationKind = "demo_scheduled"
	NotifyApplicationReview NotificationKind = "application_reviewed"
)

// Notification is a single fire-and-forget message.
type Notification struct {
	Kind      NotificationKind    `json:"kind"`
	Channel   NotificationChannel `json:"channel"`
	UserID    string              `json:"user_id"`
	Subject   string              `json:"subject"`
	Body      string              `json:"body"`
	RequestID string              `json:"request_id,omitempty"`
}
