// internal/workers/retrieval/assess-data-needs/config.go
package assessdataneeds

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
