package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-dataflow/core"
)

// MemoryRegistry holds immutable schema definitions keyed by name.
type MemoryRegistry struct {
	mu      sync.RWMutex
	schemas map[string]core.Schema
}

func NewMemoryRegistry(schemas ...core.Schema) (*MemoryRegistry, error) {
	registry := &MemoryRegistry{schemas: make(map[string]core.Schema)}
	for _, schema := range schemas {
		if err := registry.Register(schema); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *MemoryRegistry) Register(schema core.Schema) error {
	if r == nil {
		return fmt.Errorf("schema: registry is nil")
	}
	schema.Name = strings.TrimSpace(schema.Name)
	if err := schema.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemas == nil {
		r.schemas = make(map[string]core.Schema)
	}
	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("schema: already registered: %s", schema.Name)
	}
	r.schemas[schema.Name] = schema.Clone()
	return nil
}

func (r *MemoryRegistry) Schema(name string) (core.Schema, bool) {
	if r == nil {
		return core.Schema{}, false
	}
	r.mu.RLock()
	schema, ok := r.schemas[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return core.Schema{}, false
	}
	return schema.Clone(), true
}

func (r *MemoryRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

var _ core.SchemaRegistry = (*MemoryRegistry)(nil)
