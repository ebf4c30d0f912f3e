// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	APIs      APIsConfig              `mapstructure:"apis"`
	Retrieval RetrievalConfig         `mapstructure:"retrieval"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
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
	// Role-partitioned evidence indices. Ingestion writes them in an
	// earlier pipeline phase; retrieval only reads.
	ApplicationIndex string `mapstructure:"application_index"`
	PolicyIndex      string `mapstructure:"policy_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// TTL in seconds for cached assessment snapshots.
	AssessmentTTL int `mapstructure:"assessment_ttl"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`

	PrecedentSearch struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"precedent_search"`

	ConstraintRegistry struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"constraint_registry"`
}

// RetrievalConfig carries the fusion tunables. The defaults mirror the
// production values; they are configuration, not contract.
type RetrievalConfig struct {
	TopK             int     `mapstructure:"top_k"`
	JaccardThreshold float64 `mapstructure:"jaccard_threshold"`
	// Per-source diversification caps keyed by source tier.
	SourceCaps map[string]int `mapstructure:"source_caps"`
	// Token budgeting.
	GlobalTokenBudget int     `mapstructure:"global_token_budget"`
	PolicyBudget      int     `mapstructure:"policy_budget"`
	ApplicationBudget int     `mapstructure:"application_budget"`
	OtherBudget       int     `mapstructure:"other_budget"`
	TokensPerWord     float64 `mapstructure:"tokens_per_word"`
	// Policy matrix extraction.
	PolicyScanCap int `mapstructure:"policy_scan_cap"`
	PolicyCodeCap int `mapstructure:"policy_code_cap"`
	// Grounding escalation thresholds.
	GroundingMinPolicies int `mapstructure:"grounding_min_policies"`
	GroundingMinContext  int `mapstructure:"grounding_min_context"`
	GroundingMaxQueries  int `mapstructure:"grounding_max_queries"`
	GroundingTimeout     int `mapstructure:"grounding_timeout"` // milliseconds
}

// RegistryConfig locates the task registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
