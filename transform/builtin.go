package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// NewBuiltinRegistry returns a registry holding scalar conversions between
// strings, numbers, booleans and timestamps.
func NewBuiltinRegistry(opts ...Option) *Registry {
	registry := NewRegistry(opts...)
	registry.MustRegister(
		Func(func(_ context.Context, in string) (string, error) { return in, nil }),
		Func(func(_ context.Context, in string) (int64, error) { return toInt(in) }),
		Func(func(_ context.Context, in string) (float64, error) { return toFloat(in) }),
		Func(func(_ context.Context, in string) (bool, error) { return toBool(in) }),
		Func(func(_ context.Context, in string) (time.Time, error) { return toTime(in) }),
		Func(func(_ context.Context, in json.Number) (int64, error) { return toInt(in) }),
		Func(func(_ context.Context, in json.Number) (float64, error) { return toFloat(in) }),
		Func(func(_ context.Context, in json.Number) (string, error) { return in.String(), nil }),
		Func(func(_ context.Context, in int) (int64, error) { return int64(in), nil }),
		Func(func(_ context.Context, in int) (string, error) { return strconv.Itoa(in), nil }),
		Func(func(_ context.Context, in int64) (string, error) { return strconv.FormatInt(in, 10), nil }),
		Func(func(_ context.Context, in int64) (float64, error) { return float64(in), nil }),
		Func(func(_ context.Context, in float64) (string, error) {
			return strconv.FormatFloat(in, 'f', -1, 64), nil
		}),
		Func(func(_ context.Context, in float64) (int64, error) { return toInt(in) }),
		Func(func(_ context.Context, in bool) (string, error) { return strconv.FormatBool(in), nil }),
		Func(func(_ context.Context, in time.Time) (string, error) {
			return in.UTC().Format(time.RFC3339), nil
		}),
		Func(func(_ context.Context, in fmt.Stringer) (string, error) { return in.String(), nil }),
	)
	return registry
}

// AttributeType maps a schema attribute type name to the Go type values of
// that attribute must convert to. Unknown names report false.
func AttributeType(name string) (reflect.Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "text":
		return reflect.TypeFor[string](), true
	case "int", "integer", "long":
		return reflect.TypeFor[int64](), true
	case "float", "double", "number", "decimal":
		return reflect.TypeFor[float64](), true
	case "bool", "boolean":
		return reflect.TypeFor[bool](), true
	case "time", "datetime", "timestamp":
		return reflect.TypeFor[time.Time](), true
	default:
		return nil, false
	}
}

func toInt(value any) (int64, error) {
	switch typed := value.(type) {
	case int64:
		return typed, nil
	case float64:
		if typed != float64(int64(typed)) {
			return 0, fmt.Errorf("transform: %v is not an integer", typed)
		}
		return int64(typed), nil
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, fmt.Errorf("transform: parse number as int: %w", err)
		}
		return parsed, nil
	case string:
		candidate := strings.TrimSpace(typed)
		if candidate == "" {
			return 0, fmt.Errorf("transform: empty string cannot convert to int")
		}
		parsed, err := strconv.ParseInt(candidate, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("transform: parse string as int: %w", err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("transform: unsupported int conversion from %T", value)
	}
}

func toFloat(value any) (float64, error) {
	switch typed := value.(type) {
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, fmt.Errorf("transform: parse number as float: %w", err)
		}
		return parsed, nil
	case string:
		candidate := strings.TrimSpace(typed)
		if candidate == "" {
			return 0, fmt.Errorf("transform: empty string cannot convert to float")
		}
		parsed, err := strconv.ParseFloat(candidate, 64)
		if err != nil {
			return 0, fmt.Errorf("transform: parse string as float: %w", err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("transform: unsupported float conversion from %T", value)
	}
}

func toBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("transform: unsupported bool value %q", value)
	}
}

func toTime(value string) (time.Time, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		return time.Time{}, fmt.Errorf("transform: empty string cannot convert to time")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed.UTC(), nil
		}
	}
	if unix, err := strconv.ParseInt(candidate, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("transform: unsupported time value %q", value)
}
