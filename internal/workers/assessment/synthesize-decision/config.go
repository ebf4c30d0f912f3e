// internal/workers/assessment/synthesize-decision/config.go
package synthesizedecision

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
