package composeevidencedocument

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// MaxDocumentBytes bounds the document returned as a process variable.
	MaxDocumentBytes int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		MaxDocumentBytes: 3 << 20,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max document bytes must be positive")
	}
	return nil
}
