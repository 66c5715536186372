package transform

import (
	"context"
	"fmt"
	"reflect"
)

type Transformer interface {
	InputType() reflect.Type
	OutputType() reflect.Type
	Transform(ctx context.Context, input any) (any, error)
}

type Resolver interface {
	TransformerFor(input any, output reflect.Type) (Transformer, error)
}

type funcTransformer[I any, O any] struct {
	fn func(ctx context.Context, input I) (O, error)
}

// Func builds a Transformer from a typed function.
func Func[I any, O any](fn func(ctx context.Context, input I) (O, error)) Transformer {
	return funcTransformer[I, O]{fn: fn}
}

func (t funcTransformer[I, O]) InputType() reflect.Type {
	return reflect.TypeFor[I]()
}

func (t funcTransformer[I, O]) OutputType() reflect.Type {
	return reflect.TypeFor[O]()
}

func (t funcTransformer[I, O]) Transform(ctx context.Context, input any) (any, error) {
	typed, ok := input.(I)
	if !ok {
		return nil, fmt.Errorf("transform: expected input %s, got %T", t.InputType(), input)
	}
	if t.fn == nil {
		return nil, fmt.Errorf("transform: transformer function is nil")
	}
	return t.fn(ctx, typed)
}

// Transform resolves a transformer for input towards O and applies it.
func Transform[O any](ctx context.Context, resolver Resolver, input any) (O, error) {
	var zero O
	if resolver == nil {
		return zero, fmt.Errorf("transform: resolver is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	transformer, err := resolver.TransformerFor(input, reflect.TypeFor[O]())
	if err != nil {
		return zero, err
	}
	out, err := transformer.Transform(ctx, input)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(O)
	if !ok {
		return zero, fmt.Errorf("transform: transformer returned %T, expected %s", out, reflect.TypeFor[O]())
	}
	return typed, nil
}

// Apply resolves and applies a transformer for a runtime output type.
func Apply(ctx context.Context, resolver Resolver, input any, output reflect.Type) (any, error) {
	if resolver == nil {
		return nil, fmt.Errorf("transform: resolver is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	transformer, err := resolver.TransformerFor(input, output)
	if err != nil {
		return nil, err
	}
	return transformer.Transform(ctx, input)
}
