package transport

import (
	"net/http"

	"github.com/goliatone/go-dataflow/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.DataflowErrorConfiguration
	case goerrors.CategoryExternal:
		return core.DataflowErrorTransportFailure
	default:
		return core.DataflowErrorInternal
	}
}

// IsTransportFailure reports whether err came from the exchange itself
// (connect, timeout, read) rather than from a backend response.
func IsTransportFailure(err error) bool {
	return core.IsTransportFailure(err)
}

func responseTooLargeError(limit int64, statusCode int) error {
	return core.NewBackendRejectedError(
		"transport: response body exceeds limit",
		statusCode,
		map[string]any{"adapter": KindREST, "response_limit_b": limit, "http_status": http.StatusBadGateway},
	)
}
