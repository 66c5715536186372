// Package endpoint converts catalog addresses into backend transfer
// endpoints, validating them against registered schemas and merging the
// referenced secret material.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-dataflow/core"
	"github.com/goliatone/go-dataflow/transform"
)

type Option func(*Converter)

// WithTypeResolver sets the resolver used to check declared attribute types.
// A nil resolver disables the check.
func WithTypeResolver(resolver transform.Resolver) Option {
	return func(c *Converter) {
		c.types = resolver
		c.typesSet = true
	}
}

// Converter turns an Address into a TransferEndpoint. Every failure is a
// configuration error: retrying the same address cannot succeed.
type Converter struct {
	schemas  core.SchemaRegistry
	secrets  core.SecretStore
	types    transform.Resolver
	typesSet bool
}

func NewConverter(schemas core.SchemaRegistry, secrets core.SecretStore, opts ...Option) (*Converter, error) {
	if schemas == nil {
		return nil, fmt.Errorf("endpoint: schema registry is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("endpoint: secret store is required")
	}
	converter := &Converter{schemas: schemas, secrets: secrets}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(converter)
	}
	if !converter.typesSet {
		converter.types = transform.NewBuiltinRegistry()
	}
	return converter, nil
}

func (c *Converter) Convert(ctx context.Context, address core.Address) (core.TransferEndpoint, error) {
	if c == nil {
		return core.TransferEndpoint{}, fmt.Errorf("endpoint: converter is nil")
	}
	addressType := strings.TrimSpace(address.Type)
	if addressType == "" {
		return core.TransferEndpoint{}, core.NewConfigurationError("endpoint: address type is required", nil)
	}
	schema, ok := c.schemas.Schema(addressType)
	if !ok {
		return core.TransferEndpoint{}, core.NewConfigurationError(
			fmt.Sprintf("endpoint: no schema registered for type %s", addressType),
			map[string]any{"schema": addressType},
		)
	}
	for _, attr := range schema.RequiredAttributes {
		if _, present := address.Properties[attr.Name]; !present {
			return core.TransferEndpoint{}, core.MissingRequiredAttributeError(schema.Name, attr.Name)
		}
	}
	if err := c.checkAttributeTypes(ctx, schema, address.Properties); err != nil {
		return core.TransferEndpoint{}, err
	}

	keyName := address.ResolvedKeyName()
	if keyName == "" {
		return core.TransferEndpoint{}, core.NewConfigurationError(
			"endpoint: address keyName is required",
			map[string]any{"schema": schema.Name},
		)
	}

	properties := make(map[string]string, len(address.Properties))
	for key, value := range address.Properties {
		if key == core.KeyNameProperty {
			continue
		}
		properties[key] = value
	}

	secret, err := c.secrets.ResolveSecret(ctx, keyName)
	if err != nil {
		message := "endpoint: secret lookup failed"
		if errors.Is(err, core.ErrSecretNotFound) {
			message = "endpoint: secret not found for keyName"
		}
		return core.TransferEndpoint{}, core.WrapConfigurationError(err, message, map[string]any{"key_name": keyName})
	}
	secretValues, err := parseSecret(secret)
	if err != nil {
		return core.TransferEndpoint{}, core.WrapConfigurationError(err, "endpoint: secret is not a JSON object", map[string]any{"key_name": keyName})
	}
	for key, value := range secretValues {
		properties[key] = value
	}

	return core.TransferEndpoint{Type: addressType, Properties: properties}, nil
}

func (c *Converter) checkAttributeTypes(ctx context.Context, schema core.Schema, properties map[string]string) error {
	if c.types == nil {
		return nil
	}
	declared := append(append([]core.AttributeDescriptor(nil), schema.RequiredAttributes...), schema.Attributes...)
	for _, attr := range declared {
		target, known := transform.AttributeType(attr.Type)
		if !known {
			continue
		}
		value, present := properties[attr.Name]
		if !present {
			continue
		}
		if _, err := transform.Apply(ctx, c.types, value, target); err != nil {
			return core.NewSchemaValidationError(
				schema.Name,
				attr.Name,
				fmt.Sprintf("Property %s in DataAddress is not a valid %s (schema: %s)", attr.Name, attr.Type, schema.Name),
			)
		}
	}
	return nil
}

// parseSecret decodes a JSON object and flattens its values to strings.
// Numbers keep their JSON text, nested values are re-encoded as JSON and
// null becomes an empty string.
func parseSecret(secret string) (map[string]string, error) {
	decoder := json.NewDecoder(strings.NewReader(secret))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("endpoint: secret must be a JSON object")
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		text, err := stringifySecretValue(value)
		if err != nil {
			return nil, fmt.Errorf("endpoint: secret field %s: %w", key, err)
		}
		out[key] = text
	}
	return out, nil
}

func stringifySecretValue(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case bool:
		return strconv.FormatBool(typed), nil
	default:
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(typed); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
}

var _ core.EndpointConverter = (*Converter)(nil)
