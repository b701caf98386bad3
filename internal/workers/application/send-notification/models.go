// internal/workers/application/send-notification/models.go
package sendnotification

import "creators-club/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	models.ApplicationDraft
}

type Output struct {
	NotificationID string `json:"notificationId"`
	EmailStatus    string `json:"emailStatus"`
	SMSStatus      string `json:"smsStatus"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)
