package security

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-dataflow/core"
)

type SecretStoreFailurePolicy string

const (
	// SecretStoreFailurePolicyStrict consults the fallback only for keys the
	// primary does not know.
	SecretStoreFailurePolicyStrict SecretStoreFailurePolicy = "strict_fail"
	// SecretStoreFailurePolicyFallback consults the fallback on any primary error.
	SecretStoreFailurePolicyFallback SecretStoreFailurePolicy = "fallback_allowed"
)

type SecretStoreDiagnostic struct {
	OccurredAt time.Time
	Key        string
	Policy     SecretStoreFailurePolicy
	Outcome    string
	Primary    string
	Fallback   string
	Error      string
}

type SecretStoreDiagnosticHook func(event SecretStoreDiagnostic)

type FailoverOption func(*FailoverSecretStore)

type FailoverSecretStore struct {
	primary        core.SecretStore
	fallback       core.SecretStore
	policy         SecretStoreFailurePolicy
	diagnosticHook SecretStoreDiagnosticHook
	now            func() time.Time
}

func NewFailoverSecretStore(primary core.SecretStore, fallback core.SecretStore, opts ...FailoverOption) (*FailoverSecretStore, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret store is required")
	}
	store := &FailoverSecretStore{
		primary:  primary,
		fallback: fallback,
		policy:   SecretStoreFailurePolicyStrict,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	store.policy = normalizeFailurePolicy(store.policy)
	if store.policy == SecretStoreFailurePolicyFallback && store.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback secret store")
	}
	if store.now == nil {
		store.now = func() time.Time { return time.Now().UTC() }
	}
	return store, nil
}

func WithSecretStoreFailurePolicy(policy SecretStoreFailurePolicy) FailoverOption {
	return func(f *FailoverSecretStore) {
		f.policy = policy
	}
}

func WithSecretStoreDiagnostics(hook SecretStoreDiagnosticHook) FailoverOption {
	return func(f *FailoverSecretStore) {
		f.diagnosticHook = hook
	}
}

func WithFailoverClock(now func() time.Time) FailoverOption {
	return func(f *FailoverSecretStore) {
		f.now = now
	}
}

func (s *FailoverSecretStore) ResolveSecret(ctx context.Context, key string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("security: secret store is nil")
	}
	value, err := s.primary.ResolveSecret(ctx, key)
	if err == nil {
		return value, nil
	}
	s.emit(key, "primary_failed", err)
	if s.fallback == nil {
		return "", err
	}
	if s.policy == SecretStoreFailurePolicyStrict && !errors.Is(err, core.ErrSecretNotFound) {
		return "", fmt.Errorf("security: primary resolve failed with %s policy: %w", s.policy, err)
	}
	value, fallbackErr := s.fallback.ResolveSecret(ctx, key)
	if fallbackErr != nil {
		s.emit(key, "fallback_failed", fallbackErr)
		return "", fmt.Errorf("security: primary resolve failed: %v; fallback resolve failed: %w", err, fallbackErr)
	}
	s.emit(key, "fallback_succeeded", err)
	return value, nil
}

func (s *FailoverSecretStore) emit(key string, outcome string, err error) {
	if s == nil || s.diagnosticHook == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.diagnosticHook(SecretStoreDiagnostic{
		OccurredAt: s.now().UTC(),
		Key:        strings.TrimSpace(key),
		Policy:     s.policy,
		Outcome:    outcome,
		Primary:    describeSecretStore(s.primary),
		Fallback:   describeSecretStore(s.fallback),
		Error:      msg,
	})
}

func normalizeFailurePolicy(policy SecretStoreFailurePolicy) SecretStoreFailurePolicy {
	normalized := SecretStoreFailurePolicy(strings.ToLower(strings.TrimSpace(string(policy))))
	switch normalized {
	case SecretStoreFailurePolicyFallback:
		return SecretStoreFailurePolicyFallback
	default:
		return SecretStoreFailurePolicyStrict
	}
}

func describeSecretStore(store core.SecretStore) string {
	if store == nil {
		return ""
	}
	return reflect.TypeOf(store).String()
}

var _ core.SecretStore = (*FailoverSecretStore)(nil)
