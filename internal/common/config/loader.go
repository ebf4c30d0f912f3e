// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from the working directory or any parent up to the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		if val := os.Getenv("GENAI_API_KEY"); val != "" {
			cfg.APIs.GenAI.APIKey = val
		}
	}
	if cfg.APIs.PrecedentSearch.APIKey == "" {
		if val := os.Getenv("PRECEDENT_SEARCH_API_KEY"); val != "" {
			cfg.APIs.PrecedentSearch.APIKey = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("POSTGRES_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "planning-workers"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Database.Elasticsearch.ApplicationIndex == "" {
		cfg.Database.Elasticsearch.ApplicationIndex = "evidence-application"
	}
	if cfg.Database.Elasticsearch.PolicyIndex == "" {
		cfg.Database.Elasticsearch.PolicyIndex = "evidence-policy"
	}
	if cfg.Database.Redis.AssessmentTTL == 0 {
		cfg.Database.Redis.AssessmentTTL = 3600
	}
	if cfg.APIs.GenAI.Model == "" {
		cfg.APIs.GenAI.Model = "gemini-1.5-flash"
	}
	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = 15000
	}
	if cfg.APIs.PrecedentSearch.Timeout == 0 {
		cfg.APIs.PrecedentSearch.Timeout = 10000
	}
	if cfg.APIs.ConstraintRegistry.Timeout == 0 {
		cfg.APIs.ConstraintRegistry.Timeout = 10000
	}
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/registry.json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	applyRetrievalDefaults(&cfg.Retrieval)
}

// applyRetrievalDefaults fills the production fusion tunables wherever the
// config file is silent.
func applyRetrievalDefaults(r *RetrievalConfig) {
	if r.TopK == 0 {
		r.TopK = 25
	}
	if r.JaccardThreshold == 0 {
		r.JaccardThreshold = 0.9
	}
	if len(r.SourceCaps) == 0 {
		r.SourceCaps = map[string]int{
			"local_policy":      8,
			"local_application": 8,
			"external_policy":   4,
			"constraints":       4,
			"precedent":         3,
			"targeted":          3,
			"grounding":         2,
		}
	}
	if r.GlobalTokenBudget == 0 {
		r.GlobalTokenBudget = 8000
	}
	if r.PolicyBudget == 0 {
		r.PolicyBudget = 3200
	}
	if r.ApplicationBudget == 0 {
		r.ApplicationBudget = 3200
	}
	if r.OtherBudget == 0 {
		r.OtherBudget = 1600
	}
	if r.TokensPerWord == 0 {
		r.TokensPerWord = 1.3
	}
	if r.PolicyScanCap == 0 {
		r.PolicyScanCap = 60
	}
	if r.PolicyCodeCap == 0 {
		r.PolicyCodeCap = 40
	}
	if r.GroundingMinPolicies == 0 {
		r.GroundingMinPolicies = 3
	}
	if r.GroundingMinContext == 0 {
		r.GroundingMinContext = 6
	}
	if r.GroundingMaxQueries == 0 {
		r.GroundingMaxQueries = 2
	}
	if r.GroundingTimeout == 0 {
		r.GroundingTimeout = 8000
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda broker address is required")
	}
	if cfg.Retrieval.PolicyBudget+cfg.Retrieval.ApplicationBudget+cfg.Retrieval.OtherBudget > cfg.Retrieval.GlobalTokenBudget {
		return fmt.Errorf("bucket budgets exceed global token budget")
	}
	return nil
}
