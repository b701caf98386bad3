package indexapplication

import "creators-club/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	models.ApplicationDraft
	ReceivedAt string `json:"receivedAt"`
}

// Document is what lands in the search index.
type Document struct {
	ApplicationID string `json:"applicationId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Instagram     string `json:"instagram"`
	CurrentStatus string `json:"currentStatus"`
	Goal          string `json:"goal"`
	CreatedAt     string `json:"createdAt"`
}

type Output struct {
	Indexed     bool   `json:"indexed"`
	IndexName   string `json:"indexName"`
	DocumentID  string `json:"documentId"`
	IndexResult string `json:"indexResult"`
}
