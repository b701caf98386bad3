// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"creators-club/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	TeamPhone    string
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		EmailEnabled: cfg.Integrations.AWS.SES.Enabled,
		SMSEnabled:   cfg.Integrations.AWS.SNS.Enabled,
		TeamPhone:    cfg.Integrations.AWS.SNS.TeamPhone,
		Timeout:      15 * time.Second,
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
