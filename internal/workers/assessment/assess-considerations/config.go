// internal/workers/assessment/assess-considerations/config.go
package assessconsiderations

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
