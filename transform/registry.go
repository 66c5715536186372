package transform

import (
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/goliatone/go-dataflow/core"
	goerrors "github.com/goliatone/go-errors"
)

type typePair struct {
	input  reflect.Type
	output reflect.Type
}

type Registry struct {
	mu         sync.RWMutex
	exact      map[typePair]Transformer
	interfaces []Transformer
	fallback   Resolver
}

type Option func(*Registry)

// WithFallback delegates lookups this registry cannot satisfy. The
// fallback's result, including its error, is returned unchanged.
func WithFallback(fallback Resolver) Option {
	return func(r *Registry) {
		r.fallback = fallback
	}
}

func NewRegistry(opts ...Option) *Registry {
	registry := &Registry{exact: make(map[typePair]Transformer)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(registry)
	}
	return registry
}

func (r *Registry) Register(transformers ...Transformer) error {
	if r == nil {
		return fmt.Errorf("transform: registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, transformer := range transformers {
		if transformer == nil {
			return fmt.Errorf("transform: transformer is nil")
		}
		key := typePair{input: transformer.InputType(), output: transformer.OutputType()}
		if key.input == nil || key.output == nil {
			return fmt.Errorf("transform: transformer input and output types are required")
		}
		if _, exists := r.exact[key]; exists {
			return fmt.Errorf("transform: transformer already registered: %s -> %s", key.input, key.output)
		}
		r.exact[key] = transformer
		if key.input.Kind() == reflect.Interface {
			r.interfaces = append(r.interfaces, transformer)
		}
	}
	return nil
}

func (r *Registry) MustRegister(transformers ...Transformer) *Registry {
	if err := r.Register(transformers...); err != nil {
		panic(err)
	}
	return r
}

// TransformerFor returns the transformer registered for the dynamic type of
// input and the requested output. Exact matches win over interface input
// types, which are tried in registration order.
func (r *Registry) TransformerFor(input any, output reflect.Type) (Transformer, error) {
	if r == nil {
		return nil, notFoundError(input, output)
	}
	inputType := reflect.TypeOf(input)
	if inputType != nil && output != nil {
		r.mu.RLock()
		transformer, ok := r.exact[typePair{input: inputType, output: output}]
		if !ok {
			for _, candidate := range r.interfaces {
				if candidate.OutputType() == output && inputType.Implements(candidate.InputType()) {
					transformer, ok = candidate, true
					break
				}
			}
		}
		r.mu.RUnlock()
		if ok {
			return transformer, nil
		}
	}
	if r.fallback != nil {
		return r.fallback.TransformerFor(input, output)
	}
	return nil, notFoundError(input, output)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact)
}

func IsNotFound(err error) bool {
	return core.IsNotFound(err)
}

func notFoundError(input any, output reflect.Type) error {
	outputName := "<nil>"
	if output != nil {
		outputName = output.String()
	}
	return goerrors.New("transform: no transformer registered", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.DataflowErrorNotFound).
		WithMetadata(map[string]any{
			"input_type":  fmt.Sprintf("%T", input),
			"output_type": outputName,
		})
}
