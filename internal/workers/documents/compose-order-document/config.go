package composeorderdocument

import "time"

type Config struct {
	Timeout          time.Duration
	MaxDocumentBytes int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		MaxDocumentBytes: 3 << 20,
	}
}
