// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Wizard       WizardConfig            `mapstructure:"wizard"`
	Intake       IntakeConfig            `mapstructure:"intake"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Tracing      TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	ProcessID      string `mapstructure:"process_id"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Wizard ---

// WizardConfig drives the application wizard sessions.
type WizardConfig struct {
	// Flows maps a flow name (checkout, community) to the URL the visitor is
	// sent to once the analysis finishes.
	Flows      map[string]string `mapstructure:"flows"`
	SessionTTL int               `mapstructure:"session_ttl"` // milliseconds
	Analysis   AnalysisConfig    `mapstructure:"analysis"`
}

// AnalysisConfig tunes the simulated analysis. Durations are milliseconds.
// Omitted keys keep the engine defaults; an explicit 0 is applied as is.
type AnalysisConfig struct {
	IncrementMin     *float64 `mapstructure:"increment_min"`
	IncrementMax     *float64 `mapstructure:"increment_max"`
	FastDelayMin     *int     `mapstructure:"fast_delay_min"`
	FastDelayMax     *int     `mapstructure:"fast_delay_max"`
	PauseProbability *float64 `mapstructure:"pause_probability"`
	PauseDelayMin    *int     `mapstructure:"pause_delay_min"`
	PauseDelayMax    *int     `mapstructure:"pause_delay_max"`
	SettleDelay      *int     `mapstructure:"settle_delay"`
}

// --- Intake ---

// IntakeConfig covers both sides of the application submission: the URL the
// wizard posts to and the endpoint that receives it.
type IntakeConfig struct {
	EndpointURL   string `mapstructure:"endpoint_url"`
	SubmitTimeout int    `mapstructure:"submit_timeout"` // milliseconds, 0 = none
	DedupTTL      int    `mapstructure:"dedup_ttl"`      // milliseconds
	MaxBodyBytes  int64  `mapstructure:"max_body_bytes"`
}

// IntegrationConfig holds settings for CRM, Email, and other external services.
type IntegrationConfig struct {
	Zoho struct {
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled   bool   `mapstructure:"enabled"`
			TeamPhone string `mapstructure:"team_phone"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig enables span export to a Jaeger collector when set.
type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
