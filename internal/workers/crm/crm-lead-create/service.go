package crmleadcreate

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/zoho"
)

const (
	leadSource = "4Creators Wizard"
	leadStatus = "Not Contacted"
	provider   = "zoho"
)

type Service struct {
	leads  LeadStore
	logger logger.Logger
}

func NewService(leads LeadStore, log logger.Logger) *Service {
	return &Service{leads: leads, logger: log}
}

// Execute creates the lead unless one with the same e-mail exists already,
// which keeps job retries from creating duplicates.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	existing, err := s.leads.FindLeadByEmail(ctx, input.Email)
	switch {
	case err != nil:
		s.logger.Warn("Lead search failed, creating anyway", map[string]interface{}{
			"email": input.Email,
			"error": err.Error(),
		})
	case existing != nil:
		s.logger.Info("Lead already exists in CRM", map[string]interface{}{
			"email":  input.Email,
			"leadId": existing.ID,
		})
		return &Output{
			Success:     true,
			Message:     "Lead already exists in CRM",
			LeadID:      existing.ID,
			CRMProvider: provider,
			Existing:    true,
		}, nil
	}

	id, err := s.leads.CreateLead(ctx, leadFrom(input))
	if err != nil {
		return nil, classify(err)
	}

	s.logger.Info("Lead created in CRM", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"leadId":        id,
	})
	return &Output{
		Success:     true,
		Message:     "Lead created",
		LeadID:      id,
		CRMProvider: provider,
	}, nil
}

func leadFrom(input *Input) *zoho.Lead {
	first, last := splitName(input.Name)
	return &zoho.Lead{
		FirstName:   first,
		LastName:    last,
		Email:       input.Email,
		Mobile:      input.Phone,
		Instagram:   input.Instagram,
		Source:      leadSource,
		Status:      leadStatus,
		Description: fmt.Sprintf("Status atual: %s\nObjetivo: %s", input.CurrentStatus, input.Goal),
	}
}

// splitName puts everything after the first word into the last name. Zoho
// requires a last name, so a single word goes there.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func classify(err error) *errors.StandardError {
	var se *zoho.StatusError
	if !stderrors.As(err, &se) || se.Retryable() {
		return errors.NewCRMLeadCreateFailedError(err)
	}
	if se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden {
		return errors.NewAuthenticationError(se.Error())
	}
	return errors.NewBusinessRuleError("CRM rejected the lead", se.Error())
}
