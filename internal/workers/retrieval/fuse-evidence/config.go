// internal/workers/retrieval/fuse-evidence/config.go
package fuseevidence

import (
	"time"

	"planning-workers/internal/common/config"
	"planning-workers/internal/models"
)

type Config struct {
	Timeout time.Duration

	TopK             int
	JaccardThreshold float64
	SourceCaps       map[models.SourceTier]int

	GlobalTokenBudget int
	PolicyBudget      int
	ApplicationBudget int
	OtherBudget       int
	TokensPerWord     float64

	PolicyScanCap int
	PolicyCodeCap int

	GroundingMinPolicies int
	GroundingMinContext  int
	GroundingMaxQueries  int
	GroundingTimeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          60 * time.Second,
		TopK:             25,
		JaccardThreshold: 0.9,
		SourceCaps: map[models.SourceTier]int{
			models.SourceLocalPolicy:      8,
			models.SourceLocalApplication: 8,
			models.SourceExternalPolicy:   4,
			models.SourceConstraints:      4,
			models.SourcePrecedent:        3,
			models.SourceTargeted:         3,
			models.SourceGrounding:        2,
		},
		GlobalTokenBudget:    8000,
		PolicyBudget:         3200,
		ApplicationBudget:    3200,
		OtherBudget:          1600,
		TokensPerWord:        1.3,
		PolicyScanCap:        60,
		PolicyCodeCap:        40,
		GroundingMinPolicies: 3,
		GroundingMinContext:  6,
		GroundingMaxQueries:  2,
		GroundingTimeout:     8 * time.Second,
	}
}

// ConfigFromRetrieval maps the application-level retrieval settings onto the
// worker config, falling back to the static defaults for anything unset.
func ConfigFromRetrieval(rc config.RetrievalConfig, timeout time.Duration) *Config {
	cfg := LoadConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if rc.TopK > 0 {
		cfg.TopK = rc.TopK
	}
	if rc.JaccardThreshold > 0 {
		cfg.JaccardThreshold = rc.JaccardThreshold
	}
	if len(rc.SourceCaps) > 0 {
		caps := make(map[models.SourceTier]int, len(rc.SourceCaps))
		for tier, n := range rc.SourceCaps {
			caps[models.SourceTier(tier)] = n
		}
		cfg.SourceCaps = caps
	}
	if rc.GlobalTokenBudget > 0 {
		cfg.GlobalTokenBudget = rc.GlobalTokenBudget
	}
	if rc.PolicyBudget > 0 {
		cfg.PolicyBudget = rc.PolicyBudget
	}
	if rc.ApplicationBudget > 0 {
		cfg.ApplicationBudget = rc.ApplicationBudget
	}
	if rc.OtherBudget > 0 {
		cfg.OtherBudget = rc.OtherBudget
	}
	if rc.TokensPerWord > 0 {
		cfg.TokensPerWord = rc.TokensPerWord
	}
	if rc.PolicyScanCap > 0 {
		cfg.PolicyScanCap = rc.PolicyScanCap
	}
	if rc.PolicyCodeCap > 0 {
		cfg.PolicyCodeCap = rc.PolicyCodeCap
	}
	if rc.GroundingMinPolicies > 0 {
		cfg.GroundingMinPolicies = rc.GroundingMinPolicies
	}
	if rc.GroundingMinContext > 0 {
		cfg.GroundingMinContext = rc.GroundingMinContext
	}
	if rc.GroundingMaxQueries > 0 {
		cfg.GroundingMaxQueries = rc.GroundingMaxQueries
	}
	if rc.GroundingTimeout > 0 {
		cfg.GroundingTimeout = time.Duration(rc.GroundingTimeout) * time.Millisecond
	}
	return cfg
}
