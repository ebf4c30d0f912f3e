// internal/workers/assessment/run-planning-balance/config.go
package runplanningbalance

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
