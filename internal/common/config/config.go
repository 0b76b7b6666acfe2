// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Evidence      EvidenceConfig          `mapstructure:"evidence"`
	Dashboard     DashboardConfig         `mapstructure:"dashboard"`
	Hubs          []HubConfig             `mapstructure:"hubs"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Digest        DigestConfig            `mapstructure:"digest"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"`   // milliseconds
	IdleTimeout    int      `mapstructure:"idle_timeout"`    // milliseconds
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      struct {
		Enabled           bool    `mapstructure:"enabled"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
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
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Evidence backends
const (
	BackendPostgres      = "postgres"
	BackendRedis         = "redis"
	BackendElasticsearch = "elasticsearch"
)

// EvidenceConfig controls where each evidence kind is read from and how long a
// single evidence query may run.
type EvidenceConfig struct {
	QueryTimeout        int    `mapstructure:"query_timeout"` // milliseconds
	VerificationBackend string `mapstructure:"verification_backend"`
	LeadBackend         string `mapstructure:"lead_backend"`
	LeadsIndex          string `mapstructure:"leads_index"`
	RedisKeyPrefix      string `mapstructure:"redis_key_prefix"`
}

// DashboardConfig bounds the derived-result tables returned to callers.
type DashboardConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// HubConfig is one entry of the hub directory.
type HubConfig struct {
	ID          int    `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	DisplayName string `mapstructure:"display_name"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// DigestConfig holds settings for the onboarding-digest worker.
type DigestConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	FromEmail  string `mapstructure:"from_email"`
	SMSEnabled bool   `mapstructure:"sms_enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
