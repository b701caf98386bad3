package crmleadcreate

import (
	"context"

	"creators-club/internal/common/zoho"
	"creators-club/internal/models"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	models.ApplicationDraft
}

type Output struct {
	Success     bool   `json:"crmLeadCreated"`
	Message     string `json:"crmMessage"`
	LeadID      string `json:"crmLeadId,omitempty"`
	CRMProvider string `json:"crmProvider,omitempty"`
	Existing    bool   `json:"crmLeadExisting,omitempty"`
}

// LeadStore is implemented by *zoho.CRMClient.
type LeadStore interface {
	FindLeadByEmail(ctx context.Context, email string) (*zoho.Lead, error)
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}
