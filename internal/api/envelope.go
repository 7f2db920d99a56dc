package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeapp/recipe-server/internal/http/response"
)

// EnvelopeTransformer wraps every response body in the standard envelope.
// Errors are already enveloped by APIError and pass through unchanged.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch v.(type) {
	case nil:
		return nil, nil
	case *APIError, response.Envelope, *response.Envelope, []byte:
		return v, nil
	}

	code, err := strconv.Atoi(status)
	success := err != nil || code < 400
	return response.Envelope{Version: response.Version, Success: success, Data: v}, nil
}
