package service

import (
	"context"
	"net/http"

	"github.com/Segevolp/AlgoTrade/internal/apperrors"
)

// Gateway is the transport the services talk to the backend through.
// *api.Gateway is the production implementation.
type Gateway interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// missingField reports a 2xx response that lacks a field the operation depends on.
func missingField(method, path, field string) error {
	return &apperrors.APIError{
		Kind:       apperrors.ErrServer,
		StatusCode: http.StatusOK,
		Message:    "response did not include " + field,
		Method:     method,
		Path:       path,
	}
}
