package core

import (
	"fmt"
	"strings"
	"time"
)

type RetryConfig struct {
	// MaxAttempts bounds retryable dispatches per transfer; zero disables the bound.
	MaxAttempts    int `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialDelayMS int `koanf:"initial_delay_ms" mapstructure:"initial_delay_ms"`
	MaxDelayMS     int `koanf:"max_delay_ms" mapstructure:"max_delay_ms"`
}

func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	Retry       RetryConfig `koanf:"retry" mapstructure:"retry"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "dataflow",
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialDelayMS: 2000,
			MaxDelayMS:     300000,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("core: retry.max_attempts must be >= 0")
	}
	if c.Retry.InitialDelayMS < 0 || c.Retry.MaxDelayMS < 0 {
		return fmt.Errorf("core: retry delays must be >= 0")
	}
	if c.Retry.MaxDelayMS > 0 && c.Retry.InitialDelayMS > c.Retry.MaxDelayMS {
		return fmt.Errorf("core: retry.initial_delay_ms must not exceed retry.max_delay_ms")
	}
	return nil
}
