package crmleadcreate

import (
	"fmt"
	"time"

	"creators-club/internal/common/config"
)

type Config struct {
	Enabled        bool
	Timeout        time.Duration
	ZohoBaseURL    string
	ZohoOAuthToken string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
	}
}

// ConfigFromApp reads the worker block and the Zoho integration settings.
func ConfigFromApp(app *config.Config) *Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	if w, ok := app.Workers[TaskType]; ok {
		cfg.Enabled = w.Enabled
		if w.Timeout > 0 {
			cfg.Timeout = config.GetDuration(w.Timeout)
		}
	}
	cfg.ZohoBaseURL = app.Integrations.Zoho.BaseURL
	cfg.ZohoOAuthToken = app.Integrations.Zoho.AuthToken
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Enabled && c.ZohoOAuthToken == "" {
		return fmt.Errorf("zoho oauth_token is required")
	}
	return nil
}
