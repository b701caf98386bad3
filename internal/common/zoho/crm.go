// Package zoho is a small client for the Zoho CRM v3 REST API.
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	commonhttp "creators-club/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	baseURL string
	http    *commonhttp.Client
}

// Lead is a Zoho CRM lead. Field names follow the Zoho API.
type Lead struct {
	ID          string `json:"id,omitempty"`
	LastName    string `json:"Last_Name"`
	FirstName   string `json:"First_Name,omitempty"`
	Email       string `json:"Email"`
	Mobile      string `json:"Mobile,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Status      string `json:"Lead_Status,omitempty"`
	Description string `json:"Description,omitempty"`
	Instagram   string `json:"Instagram,omitempty"`
}

type actionResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zoho: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: commonhttp.NewClient(timeout).
			WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken).
			WithHeader("Accept", "application/json"),
	}
}

// CreateLead inserts a lead and returns its Zoho ID.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/Leads", map[string]interface{}{
		"data": []Lead{*lead},
	})
	if err != nil {
		return "", fmt.Errorf("zoho create lead: %w", err)
	}
	defer commonhttp.Drain(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("zoho read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out actionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("zoho decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("zoho create lead: empty response")
	}
	if out.Data[0].Status != "success" {
		return "", fmt.Errorf("zoho create lead: %s: %s", out.Data[0].Code, out.Data[0].Message)
	}
	return out.Data[0].Details.ID, nil
}

// FindLeadByEmail returns the first lead with the e-mail, or nil.
func (c *CRMClient) FindLeadByEmail(ctx context.Context, email string) (*Lead, error) {
	u := c.baseURL + "/Leads/search?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("zoho build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoho search leads: %w", err)
	}
	defer commonhttp.Drain(resp)

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("zoho decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}
