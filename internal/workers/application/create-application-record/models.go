// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "creators-club/internal/models"

// Input is the subset of process variables set at intake.
type Input struct {
	ApplicationID string `json:"applicationId"`
	models.ApplicationDraft
	ReceivedAt string `json:"receivedAt"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
