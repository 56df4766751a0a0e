package deliverorderdocument

import "time"

type Config struct {
	// Timeout covers composition and both channel sends.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
