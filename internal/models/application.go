package models

import (
	"fmt"
	"strings"
)

// CurrentStatus is how far along the applicant says they are as a creator.
type CurrentStatus string

const (
	StatusComecando     CurrentStatus = "comecando"
	StatusIniciante     CurrentStatus = "iniciante"
	StatusIntermediario CurrentStatus = "intermediario"
	StatusAvancado      CurrentStatus = "avancado"
)

// CurrentStatuses lists the accepted values in display order.
var CurrentStatuses = []CurrentStatus{StatusComecando, StatusIniciante, StatusIntermediario, StatusAvancado}

// ParseCurrentStatus accepts the four enum values, case-insensitively.
func ParseCurrentStatus(s string) (CurrentStatus, error) {
	v := CurrentStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range CurrentStatuses {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid currentStatus %q", s)
}

// ApplicationDraft is what the wizard collects and posts, field for field.
type ApplicationDraft struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Instagram     string        `json:"instagram"`
	CurrentStatus CurrentStatus `json:"currentStatus"`
	Goal          string        `json:"goal"`
}

// Application is the stored form of a received draft.
type Application struct {
	ID        string           `json:"id"`
	Draft     ApplicationDraft `json:"draft"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"createdAt"`
}

// Application statuses
const (
	ApplicationStatusReceived = "received"
)
