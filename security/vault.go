package security

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-dataflow/core"
)

// Vault is an in-process secret store. Values are sealed by the configured
// SecretProvider and only opened on resolution.
type Vault struct {
	mu       sync.RWMutex
	sealed   map[string][]byte
	provider core.SecretProvider
}

func NewVault(provider core.SecretProvider) (*Vault, error) {
	if provider == nil {
		return nil, fmt.Errorf("security: secret provider is required")
	}
	return &Vault{sealed: make(map[string][]byte), provider: provider}, nil
}

func (v *Vault) StoreSecret(ctx context.Context, key string, value string) error {
	if v == nil {
		return fmt.Errorf("security: vault is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("security: secret key is required")
	}
	ciphertext, err := v.provider.Encrypt(ctx, []byte(value))
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sealed[key] = ciphertext
	v.mu.Unlock()
	return nil
}

func (v *Vault) DeleteSecret(_ context.Context, key string) {
	if v == nil {
		return
	}
	v.mu.Lock()
	delete(v.sealed, strings.TrimSpace(key))
	v.mu.Unlock()
}

func (v *Vault) ResolveSecret(ctx context.Context, key string) (string, error) {
	if v == nil {
		return "", fmt.Errorf("security: vault is nil")
	}
	key = strings.TrimSpace(key)
	v.mu.RLock()
	ciphertext, ok := v.sealed[key]
	v.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrSecretNotFound, key)
	}
	plaintext, err := v.provider.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// StaticSecretStore serves fixed plaintext secrets, mainly for tests and
// local wiring.
type StaticSecretStore map[string]string

func (s StaticSecretStore) ResolveSecret(_ context.Context, key string) (string, error) {
	value, ok := s[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrSecretNotFound, key)
	}
	return value, nil
}

var (
	_ core.SecretStore  = (*Vault)(nil)
	_ core.SecretWriter = (*Vault)(nil)
	_ core.SecretStore  = StaticSecretStore(nil)
)
