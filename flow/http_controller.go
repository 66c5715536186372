package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/goliatone/go-dataflow/core"
	"github.com/goliatone/go-dataflow/transport"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Option func(*HTTPController)

func WithAdapter(adapter transport.Adapter) Option {
	return func(c *HTTPController) {
		if adapter != nil {
			c.adapter = adapter
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *HTTPController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// HTTPController initiates transfers on an HTTP flow service.
type HTTPController struct {
	config      Config
	converter   core.EndpointConverter
	secrets     core.SecretStore
	adapter     transport.Adapter
	logger      core.Logger
	acceptTypes map[string]struct{}
}

type transferPayload struct {
	RequestID   string          `json:"requestId"`
	Source      endpointPayload `json:"source"`
	Destination endpointPayload `json:"destination"`
}

type endpointPayload struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

func NewHTTPController(
	cfg Config,
	converter core.EndpointConverter,
	secrets core.SecretStore,
	opts ...Option,
) (*HTTPController, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if converter == nil {
		return nil, core.NewConfigurationError("flow: endpoint converter is required", nil)
	}
	if secrets == nil {
		return nil, core.NewConfigurationError("flow: secret store is required", nil)
	}
	controller := &HTTPController{
		config:      cfg,
		converter:   converter,
		secrets:     secrets,
		acceptTypes: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(controller)
		}
	}
	if controller.adapter == nil {
		controller.adapter = transport.NewRESTAdapter(nil)
	}
	controller.logger = glog.Ensure(controller.logger)
	for _, accepted := range cfg.AcceptTypes {
		accepted = strings.TrimSpace(accepted)
		if accepted != "" {
			controller.acceptTypes[accepted] = struct{}{}
		}
	}
	return controller, nil
}

func (c *HTTPController) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

// CanHandle claims every request when no accept types are configured,
// otherwise only requests whose destination type is listed.
func (c *HTTPController) CanHandle(req core.TransferRequest) bool {
	if c == nil {
		return false
	}
	if len(c.acceptTypes) == 0 {
		return true
	}
	if req.Destination == nil {
		return false
	}
	_, ok := c.acceptTypes[strings.TrimSpace(req.Destination.Type)]
	return ok
}

func (c *HTTPController) InitiateFlow(ctx context.Context, req core.TransferRequest) core.FlowOutcome {
	if c == nil {
		return core.Fatal("flow: controller is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	entryID := req.DataEntryID()

	if req.Destination == nil {
		return c.fatal(ctx, req, "flow: destination address is required",
			core.NewConfigurationError("flow: destination address is required", map[string]any{"request_id": req.ID}))
	}

	credentials, err := c.secrets.ResolveSecret(ctx, c.config.CredentialsKey)
	if err != nil || strings.TrimSpace(credentials) == "" {
		if core.IsTransportFailure(err) {
			return c.retryable(ctx, req, "flow: credentials lookup failed", err)
		}
		message := fmt.Sprintf("flow: credentials not found for key %s", c.config.CredentialsKey)
		if err != nil && !errors.Is(err, core.ErrSecretNotFound) {
			message = fmt.Sprintf("flow: credentials lookup failed for key %s", c.config.CredentialsKey)
		}
		return c.fatal(ctx, req, message, core.WrapConfigurationError(err, message, map[string]any{"credentials_key": c.config.CredentialsKey}))
	}

	source := req.SourceAddress()
	if source == nil || source.ResolvedKeyName() == "" {
		message := fmt.Sprintf("flow: no keyName found for the source address (entry %s)", entryID)
		return c.fatal(ctx, req, message, core.NewConfigurationError(message, map[string]any{"side": "source", "entry_id": entryID}))
	}
	if req.Destination.ResolvedKeyName() == "" {
		message := fmt.Sprintf("flow: no keyName found for the destination address (entry %s)", entryID)
		return c.fatal(ctx, req, message, core.NewConfigurationError(message, map[string]any{"side": "destination", "entry_id": entryID}))
	}

	sourceEndpoint, err := c.converter.Convert(ctx, *source)
	if err != nil {
		return c.fatal(ctx, req, fmt.Sprintf("flow: convert source endpoint: %s", errorMessage(err)), err)
	}
	destinationEndpoint, err := c.converter.Convert(ctx, *req.Destination)
	if err != nil {
		return c.fatal(ctx, req, fmt.Sprintf("flow: convert destination endpoint: %s", errorMessage(err)), err)
	}

	body, err := json.Marshal(transferPayload{
		RequestID:   req.ID,
		Source:      endpointPayload{Type: sourceEndpoint.Type, Properties: sourceEndpoint.Properties},
		Destination: endpointPayload{Type: destinationEndpoint.Type, Properties: destinationEndpoint.Properties},
	})
	if err != nil {
		return c.fatal(ctx, req, "flow: encode transfer payload", err)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.config.endpointURL(),
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"Authorization": credentials,
		},
		Body:                 body,
		Timeout:              c.config.Timeout,
		MaxResponseBodyBytes: c.config.MaxResponseBodyBytes,
	})
	if err != nil {
		if core.IsTransportFailure(err) {
			return c.retryable(ctx, req, "flow: error initiating transfer", err)
		}
		return c.fatal(ctx, req, "flow: backend call failed", err)
	}
	return c.classifyResponse(ctx, req, res)
}

func (c *HTTPController) classifyResponse(ctx context.Context, req core.TransferRequest, res transport.Response) core.FlowOutcome {
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		message := fmt.Sprintf("flow: backend rejected transfer with status %d", res.StatusCode)
		rejection := core.NewBackendRejectedError(message, res.StatusCode, map[string]any{"request_id": req.ID})
		if slices.Contains(c.config.RetryStatusCodes, res.StatusCode) {
			return c.retryable(ctx, req, message, rejection)
		}
		return c.fatal(ctx, req, message, rejection)
	}
	if len(strings.TrimSpace(string(res.Body))) == 0 {
		message := "flow: backend returned an empty response body"
		rejection := core.NewBackendRejectedError(message, res.StatusCode, map[string]any{"request_id": req.ID})
		if c.config.EmptyBodyPolicy == EmptyBodyRetry {
			return c.retryable(ctx, req, message, rejection)
		}
		return c.fatal(ctx, req, message, rejection)
	}
	var decoded map[string]any
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		message := "flow: backend returned a malformed response body"
		rejection := core.NewBackendRejectedError(message, res.StatusCode, map[string]any{"request_id": req.ID})
		return c.fatal(ctx, req, message, errors.Join(rejection, err))
	}
	c.logger.WithContext(ctx).Info("flow transfer initiated",
		"request_id", req.ID,
		"status_code", res.StatusCode,
		"destination_type", req.Destination.Type,
	)
	return core.OK()
}

func (c *HTTPController) fatal(ctx context.Context, req core.TransferRequest, message string, err error) core.FlowOutcome {
	c.logger.WithContext(ctx).Error("flow transfer failed",
		"request_id", req.ID,
		"entry_id", req.DataEntryID(),
		"reason", message,
	)
	return core.Fatal(message, err)
}

func (c *HTTPController) retryable(ctx context.Context, req core.TransferRequest, message string, err error) core.FlowOutcome {
	c.logger.WithContext(ctx).Warn("flow transfer attempt failed",
		"request_id", req.ID,
		"entry_id", req.DataEntryID(),
		"reason", message,
	)
	return core.Retryable(message, err)
}

func errorMessage(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && strings.TrimSpace(rich.Message) != "" {
		return rich.Message
	}
	return err.Error()
}

var _ core.FlowController = (*HTTPController)(nil)
