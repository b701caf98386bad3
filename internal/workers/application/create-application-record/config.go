// internal/workers/application/create-application-record/config.go
package createapplicationrecord

import (
	"time"

	"creators-club/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker block; a zero timeout falls back to 10s.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 10 * time.Second}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
