package config

import (
	"fmt"
	"time"
)

type Config struct {
	Bind         string
	Port         int
	TotalRounds  int
	RoundTimeout time.Duration
	RevealDelay  time.Duration
	GraceTimeout time.Duration
	SettleWindow time.Duration
	ContentFile  string
	Verbose      bool
}

func Default() Config {
	return Config{
		Bind:         "0.0.0.0",
		Port:         8080,
		TotalRounds:  5,
		RoundTimeout: 30 * time.Second,
		RevealDelay:  3 * time.Second,
		GraceTimeout: 30 * time.Second,
		SettleWindow: 5 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.TotalRounds < 1 {
		return fmt.Errorf("invalid round count: %d", c.TotalRounds)
	}
	if c.RoundTimeout < time.Second {
		return fmt.Errorf("round timeout must be at least 1s, got %s", c.RoundTimeout)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
