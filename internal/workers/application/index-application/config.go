package indexapplication

import (
	"time"

	"creators-club/internal/common/config"
)

const DefaultIndex = "creator-applications"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{Index: DefaultIndex, Timeout: 10 * time.Second}
	if app.Database.Elasticsearch.Index != "" {
		cfg.Index = app.Database.Elasticsearch.Index
	}
	if w, ok := app.Workers[TaskType]; ok && w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
