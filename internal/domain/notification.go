package domain

import "time"

// Notification is a legally-binding notification document. Content is
// fingerprinted at creation; the hash must stay valid for the lifetime of the
// record because it is the evidentiary anchor verified by third parties.
type Notification struct {
	NotificationID string `json:"id" dynamodbav:"notification_id"`
	UserID         string `json:"user_id" dynamodbav:"user_id"`

	RecipientName    string  `json:"recipient_name" dynamodbav:"recipient_name"`
	RecipientEmail   string  `json:"recipient_email" dynamodbav:"recipient_email"`
	RecipientPhone   *string `json:"recipient_phone,omitempty" dynamodbav:"recipient_phone"`
	RecipientAddress *string `json:"recipient_address,omitempty" dynamodbav:"recipient_address"`
	Subject          string  `json:"subject" dynamodbav:"subject"`
	Content          string  `json:"content" dynamodbav:"content"`

	CertificationLevel CertificationLevel `json:"certification_level" dynamodbav:"certification_level"`
	DocumentHash       string             `json:"document_hash" dynamodbav:"document_hash"`
	TimestampToken     string             `json:"timestamp_token,omitempty" dynamodbav:"timestamp_token"`
	TimestampURL       string             `json:"timestamp_url,omitempty" dynamodbav:"timestamp_url"`
	CertificateURL     string             `json:"certificate_url,omitempty" dynamodbav:"certificate_url"`

	Status        Status     `json:"status" dynamodbav:"status"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty" dynamodbav:"scheduled_for"`
	SentAt        *time.Time `json:"sent_at,omitempty" dynamodbav:"sent_at"`
	ReadAt        *time.Time `json:"read_at,omitempty" dynamodbav:"read_at"`
	FailureReason string     `json:"failure_reason,omitempty" dynamodbav:"failure_reason"`

	// Read telemetry, captured once when the recipient opens the notification.
	ReadIP        string `json:"read_ip,omitempty" dynamodbav:"read_ip"`
	ReadUserAgent string `json:"read_user_agent,omitempty" dynamodbav:"read_user_agent"`
	ReadLocation  string `json:"read_location,omitempty" dynamodbav:"read_location"`

	ExternalServiceID   string `json:"external_service_id,omitempty" dynamodbav:"external_service_id"`
	ExternalServiceName string `json:"external_service_name,omitempty" dynamodbav:"external_service_name"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// CertificationLevel selects the evidentiary steps a notification must pass
// before it counts as sent. Immutable after creation.
type CertificationLevel string

const (
	LevelSimple    CertificationLevel = "simple"
	LevelAdvanced  CertificationLevel = "advanced"
	LevelQualified CertificationLevel = "qualified"
)

func (l CertificationLevel) Valid() bool {
	switch l {
	case LevelSimple, LevelAdvanced, LevelQualified:
		return true
	}
	return false
}

// CreateNotificationRequest carries exactly the fields a caller may set at
// creation. Status and document hash are derived, never accepted as input.
type CreateNotificationRequest struct {
	RecipientName      string     `json:"recipient_name" validate:"required"`
	RecipientEmail     string     `json:"recipient_email" validate:"required,email"`
	RecipientPhone     *string    `json:"recipient_phone"`
	RecipientAddress   *string    `json:"recipient_address"`
	Subject            string     `json:"subject" validate:"required"`
	Content            string     `json:"content" validate:"required"`
	CertificationLevel string     `json:"certification_level" validate:"omitempty,oneof=simple advanced qualified"`
	ScheduledFor       *time.Time `json:"scheduled_for"`
}

// EditNotificationRequest carries the fields editable before dispatch.
// Certification level, status and hash are deliberately absent: the level is
// immutable after creation and the other two only move through the state
// machine.
type EditNotificationRequest struct {
	RecipientName    *string    `json:"recipient_name"`
	RecipientEmail   *string    `json:"recipient_email" validate:"omitempty,email"`
	RecipientPhone   *string    `json:"recipient_phone"`
	RecipientAddress *string    `json:"recipient_address"`
	Subject          *string    `json:"subject"`
	Content          *string    `json:"content"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
}

// ReadTelemetry is captured from the recipient's request when a read receipt
// is recorded. Write-once.
type ReadTelemetry struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Location  string `json:"location"`
}

// StatusCounts aggregates a user's notifications per status.
type StatusCounts struct {
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Sending   int `json:"sending"`
	Sent      int `json:"sent"`
	Read      int `json:"read"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}
