package flow

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-dataflow/core"
)

const (
	DefaultPath           = "/transfers"
	DefaultCredentialsKey = "dataflow.credentials"
	DefaultTimeout        = 30 * time.Second
)

// EmptyBodyPolicy classifies a success status that carries no body.
type EmptyBodyPolicy string

const (
	EmptyBodyFatal EmptyBodyPolicy = "fatal"
	EmptyBodyRetry EmptyBodyPolicy = "retry"
)

type Config struct {
	BaseURL              string          `koanf:"base_url" mapstructure:"base_url"`
	Path                 string          `koanf:"path" mapstructure:"path"`
	CredentialsKey       string          `koanf:"credentials_key" mapstructure:"credentials_key"`
	Timeout              time.Duration   `koanf:"timeout" mapstructure:"timeout"`
	AcceptTypes          []string        `koanf:"accept_types" mapstructure:"accept_types"`
	EmptyBodyPolicy      EmptyBodyPolicy `koanf:"empty_body_policy" mapstructure:"empty_body_policy"`
	RetryStatusCodes     []int           `koanf:"retry_status_codes" mapstructure:"retry_status_codes"`
	MaxResponseBodyBytes int64           `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

func DefaultConfig() Config {
	return Config{
		Path:            DefaultPath,
		CredentialsKey:  DefaultCredentialsKey,
		Timeout:         DefaultTimeout,
		EmptyBodyPolicy: EmptyBodyFatal,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if strings.TrimSpace(c.Path) == "" {
		c.Path = defaults.Path
	}
	if strings.TrimSpace(c.CredentialsKey) == "" {
		c.CredentialsKey = defaults.CredentialsKey
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if strings.TrimSpace(string(c.EmptyBodyPolicy)) == "" {
		c.EmptyBodyPolicy = defaults.EmptyBodyPolicy
	}
	c.EmptyBodyPolicy = EmptyBodyPolicy(strings.ToLower(strings.TrimSpace(string(c.EmptyBodyPolicy))))
	return c
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return core.NewConfigurationError("flow: base url is required", nil)
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return core.WrapConfigurationError(err, "flow: base url must be absolute", map[string]any{"base_url": c.BaseURL})
	}
	switch c.EmptyBodyPolicy {
	case EmptyBodyFatal, EmptyBodyRetry:
	default:
		return core.NewConfigurationError(
			fmt.Sprintf("flow: unsupported empty body policy %q", c.EmptyBodyPolicy),
			map[string]any{"empty_body_policy": string(c.EmptyBodyPolicy)},
		)
	}
	for _, code := range c.RetryStatusCodes {
		if code < 100 || code > 599 {
			return core.NewConfigurationError(
				fmt.Sprintf("flow: invalid retry status code %d", code),
				map[string]any{"status_code": code},
			)
		}
		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return core.NewConfigurationError(
				fmt.Sprintf("flow: success status %d cannot be retried", code),
				map[string]any{"status_code": code},
			)
		}
	}
	return nil
}

func (c Config) endpointURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(strings.TrimSpace(c.Path), "/")
}
