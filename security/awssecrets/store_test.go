package awssecrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/goliatone/go-dataflow/core"
)

type fakeManagerAPI struct {
	values  map[string]string
	binary  map[string][]byte
	err     error
	lastGet *secretsmanager.GetSecretValueInput
	lastPut *secretsmanager.PutSecretValueInput
}

func (f *fakeManagerAPI) GetSecretValue(
	_ context.Context,
	params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	f.lastGet = params
	if f.err != nil {
		return nil, f.err
	}
	id := aws.ToString(params.SecretId)
	if value, ok := f.values[id]; ok {
		return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
	}
	if value, ok := f.binary[id]; ok {
		return &secretsmanager.GetSecretValueOutput{SecretBinary: value}, nil
	}
	return nil, &smithy.GenericAPIError{Code: ResourceNotFoundException, Message: "not found"}
}

func (f *fakeManagerAPI) PutSecretValue(
	_ context.Context,
	params *secretsmanager.PutSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.PutSecretValueOutput, error) {
	f.lastPut = params
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[aws.ToString(params.SecretId)] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func TestSecretStore_ResolvesStringAndBinary(t *testing.T) {
	api := &fakeManagerAPI{
		values: map[string]string{"dataflow/dst-key": `{"token":"abc"}`},
		binary: map[string][]byte{"dataflow/bin-key": []byte("raw")},
	}
	store, err := New(api, WithKeyPrefix("dataflow/"), WithVersionStage("AWSCURRENT"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	value, err := store.ResolveSecret(context.Background(), "dst-key")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value != `{"token":"abc"}` {
		t.Fatalf("unexpected value %q", value)
	}
	if aws.ToString(api.lastGet.VersionStage) != "AWSCURRENT" {
		t.Fatalf("expected version stage to be forwarded")
	}
	if value, _ := store.ResolveSecret(context.Background(), "bin-key"); value != "raw" {
		t.Fatalf("expected binary secret, got %q", value)
	}
}

func TestSecretStore_MapsResourceNotFound(t *testing.T) {
	store, _ := New(&fakeManagerAPI{})
	_, err := store.ResolveSecret(context.Background(), "missing")
	if !errors.Is(err, core.ErrSecretNotFound) {
		t.Fatalf("expected secret not found, got %v", err)
	}
}

func TestSecretStore_PropagatesOtherErrors(t *testing.T) {
	failure := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	store, _ := New(&fakeManagerAPI{err: failure})
	_, err := store.ResolveSecret(context.Background(), "k")
	if err == nil || errors.Is(err, core.ErrSecretNotFound) {
		t.Fatalf("expected non not-found error, got %v", err)
	}
	if !core.IsTransportFailure(err) {
		t.Fatalf("expected throttling to be a transport failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "ThrottlingException") {
		t.Fatalf("expected error code in message, got %v", err)
	}
}

func TestSecretStore_StoreSecret(t *testing.T) {
	api := &fakeManagerAPI{}
	store, _ := New(api, WithKeyPrefix("dataflow"))
	if err := store.StoreSecret(context.Background(), "k", "v"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if aws.ToString(api.lastPut.SecretId) != "dataflow/k" {
		t.Fatalf("expected prefixed secret id, got %q", aws.ToString(api.lastPut.SecretId))
	}
}
