package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DataflowErrorBadInput             = "DATAFLOW_BAD_INPUT"
	DataflowErrorConfiguration        = "DATAFLOW_CONFIGURATION"
	DataflowErrorSchemaValidation     = "DATAFLOW_SCHEMA_VALIDATION"
	DataflowErrorNoCapableController  = "DATAFLOW_NO_CAPABLE_CONTROLLER"
	DataflowErrorTransportFailure     = "DATAFLOW_TRANSPORT_FAILURE"
	DataflowErrorBackendRejected      = "DATAFLOW_BACKEND_REJECTED"
	DataflowErrorNotFound             = "DATAFLOW_NOT_FOUND"
	DataflowErrorInvalidTransition    = "DATAFLOW_INVALID_TRANSITION"
	DataflowErrorRetryAttemptsExpired = "DATAFLOW_RETRY_ATTEMPTS_EXHAUSTED"
	DataflowErrorInternal             = "DATAFLOW_INTERNAL_ERROR"
)

// NewConfigurationError reports a transfer that can never succeed as
// configured: missing destination, missing secret, unknown schema.
func NewConfigurationError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(DataflowErrorConfiguration)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapConfigurationError(source error, message string, metadata map[string]any) error {
	if source == nil {
		return NewConfigurationError(message, metadata)
	}
	err := goerrors.Wrap(source, goerrors.CategoryBadInput, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(DataflowErrorConfiguration)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func NewSchemaValidationError(schemaName string, field string, message string) error {
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(DataflowErrorSchemaValidation).
		WithMetadata(map[string]any{"schema": schemaName, "attribute": field})
}

// MissingRequiredAttributeError names both the attribute and the schema.
func MissingRequiredAttributeError(schemaName string, attribute string) error {
	return NewSchemaValidationError(
		schemaName,
		attribute,
		fmt.Sprintf("Required property is missing in DataAddress: %s (schema: %s)", attribute, schemaName),
	)
}

func NewNoCapableControllerError(requestID string) error {
	return goerrors.New("core: no flow controller can handle transfer request", goerrors.CategoryOperation).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(DataflowErrorNoCapableController).
		WithMetadata(map[string]any{"request_id": requestID})
}

func NewTransportError(source error, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(http.StatusBadGateway).WithTextCode(DataflowErrorTransportFailure)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func NewBackendRejectedError(message string, statusCode int, metadata map[string]any) error {
	fields := cloneFields(metadata)
	if statusCode > 0 {
		fields["status_code"] = statusCode
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(DataflowErrorBackendRejected).
		WithMetadata(fields)
}

func NewNotFoundError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(DataflowErrorNotFound)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func IsConfigurationError(err error) bool {
	return hasTextCode(err, DataflowErrorConfiguration, DataflowErrorSchemaValidation)
}

func IsSchemaValidationError(err error) bool {
	return hasTextCode(err, DataflowErrorSchemaValidation)
}

func IsNoCapableController(err error) bool {
	return hasTextCode(err, DataflowErrorNoCapableController)
}

func IsTransportFailure(err error) bool {
	return hasTextCode(err, DataflowErrorTransportFailure)
}

func IsBackendRejection(err error) bool {
	return hasTextCode(err, DataflowErrorBackendRejected)
}

func IsNotFound(err error) bool {
	if hasTextCode(err, DataflowErrorNotFound) {
		return true
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.Category == goerrors.CategoryNotFound
}

func hasTextCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	for _, code := range codes {
		if rich.TextCode == code {
			return true
		}
	}
	return false
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "invalid data flow state transition"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, DataflowErrorInvalidTransition)
	case strings.Contains(msg, "not found"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, DataflowErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, DataflowErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return DataflowErrorBadInput
	case goerrors.CategoryNotFound:
		return DataflowErrorNotFound
	case goerrors.CategoryConflict:
		return DataflowErrorInvalidTransition
	case goerrors.CategoryExternal:
		return DataflowErrorTransportFailure
	default:
		return DataflowErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
