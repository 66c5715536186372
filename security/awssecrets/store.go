// Package awssecrets resolves transfer secrets from AWS Secrets Manager.
package awssecrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/goliatone/go-dataflow/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

// ManagerAPI is the subset of the Secrets Manager client used by the store.
type ManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(
		ctx context.Context,
		params *secretsmanager.PutSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.PutSecretValueOutput, error)
}

type Option func(*SecretStore)

// WithKeyPrefix prepends a path prefix to every key before lookup.
func WithKeyPrefix(prefix string) Option {
	return func(s *SecretStore) {
		s.prefix = strings.TrimSpace(prefix)
	}
}

func WithVersionStage(stage string) Option {
	return func(s *SecretStore) {
		s.versionStage = strings.TrimSpace(stage)
	}
}

func WithLogger(logger glog.Logger) Option {
	return func(s *SecretStore) {
		s.logger = logger
	}
}

type SecretStore struct {
	api          ManagerAPI
	prefix       string
	versionStage string
	logger       glog.Logger
}

func New(api ManagerAPI, opts ...Option) (*SecretStore, error) {
	if api == nil {
		return nil, fmt.Errorf("awssecrets: manager api is required")
	}
	store := &SecretStore{api: api}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	store.logger = glog.Ensure(store.logger)
	return store, nil
}

// NewFromDefaultConfig loads the default AWS credential chain for region.
func NewFromDefaultConfig(ctx context.Context, region string, opts ...Option) (*SecretStore, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, fmt.Errorf("awssecrets: region is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("awssecrets: load aws config: %w", err)
	}
	return New(secretsmanager.NewFromConfig(cfg), opts...)
}

func (s *SecretStore) ResolveSecret(ctx context.Context, key string) (string, error) {
	if s == nil || s.api == nil {
		return "", fmt.Errorf("awssecrets: store is not configured")
	}
	secretID := s.secretID(key)
	if secretID == "" {
		return "", fmt.Errorf("awssecrets: secret key is required")
	}
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)}
	if s.versionStage != "" {
		input.VersionStage = aws.String(s.versionStage)
	}

	output, err := s.api.GetSecretValue(ctx, input)
	if err != nil {
		return "", s.mapError("get", secretID, err)
	}
	switch {
	case output.SecretString != nil:
		return *output.SecretString, nil
	case output.SecretBinary != nil:
		return string(output.SecretBinary), nil
	default:
		return "", fmt.Errorf("%w: %s has no value", core.ErrSecretNotFound, secretID)
	}
}

func (s *SecretStore) StoreSecret(ctx context.Context, key string, value string) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("awssecrets: store is not configured")
	}
	secretID := s.secretID(key)
	if secretID == "" {
		return fmt.Errorf("awssecrets: secret key is required")
	}
	_, err := s.api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(secretID),
		SecretString: aws.String(value),
	})
	if err != nil {
		return s.mapError("put", secretID, err)
	}
	s.logger.Debug("secret value stored", "secret_id", secretID)
	return nil
}

func (s *SecretStore) secretID(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if s.prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

func (s *SecretStore) mapError(operation string, secretID string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn("secrets manager call failed",
			"operation", operation,
			"secret_id", secretID,
			"error_code", apiErr.ErrorCode(),
		)
		switch apiErr.ErrorCode() {
		case ResourceNotFoundException:
			return fmt.Errorf("%w: %s", core.ErrSecretNotFound, secretID)
		case AccessDeniedException:
			return fmt.Errorf("awssecrets: access denied for %s: %w", secretID, err)
		}
		return core.NewTransportError(err, fmt.Sprintf("awssecrets: %s %s failed (%s)", operation, secretID, apiErr.ErrorCode()), map[string]any{
			"operation":  operation,
			"error_code": apiErr.ErrorCode(),
		})
	}
	return core.NewTransportError(err, fmt.Sprintf("awssecrets: %s %s failed", operation, secretID), map[string]any{
		"operation": operation,
	})
}

var (
	_ core.SecretStore  = (*SecretStore)(nil)
	_ core.SecretWriter = (*SecretStore)(nil)
)
