package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/http/response"
	"github.com/recipeapp/recipe-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Version int    `json:"v" doc:"Envelope version"`
	Success bool   `json:"success" doc:"Always false for errors"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details, usually a field to problem map"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(p response.Problem) *APIError {
	return &APIError{
		status:  p.Status,
		Version: response.Version,
		Code:    string(p.Code),
		Message: p.Message,
		Details: p.Details,
	}
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		// Domain and store errors carry their own status.
		for _, err := range errs {
			if isClassified(err) {
				return newAPIError(response.Classify(err))
			}
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("unhandled API error", "status", status, "message", message, "errors", errs)
			}
			return newAPIError(response.Problem{
				Status:  status,
				Code:    response.CodeForStatus(status),
				Message: "internal server error",
			})
		}

		// Huma reports schema violations as 422; clients get the same
		// 400 VALIDATION shape the services produce.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		p := response.Problem{
			Status:  status,
			Code:    response.CodeForStatus(status),
			Message: message,
		}
		if fields := fieldErrors(errs); len(fields) > 0 {
			p.Details = fields
		}
		return newAPIError(p)
	}
}

// isClassified reports whether err is a domain or store error.
func isClassified(err error) bool {
	if err == nil {
		return false
	}
	var domainErr *domainerrors.Error
	var storeErr *store.Error
	return errors.As(err, &domainErr) || errors.As(err, &storeErr)
}

// fieldErrors collects huma error details keyed by field. Messages for the
// same field are joined.
func fieldErrors(errs []error) domainerrors.FieldErrors {
	fields := domainerrors.FieldErrors{}
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if !errors.As(err, &detailer) {
			continue
		}
		detail := detailer.ErrorDetail()
		if detail == nil {
			continue
		}
		key, msg := fieldName(detail.Location), detail.Message
		// Missing properties are reported against the parent object.
		if prop, ok := strings.CutPrefix(msg, requiredPrefix); ok {
			prop = strings.TrimSuffix(prop, " to be present")
			if key == "body" {
				key = prop
			} else {
				key += "." + prop
			}
			msg = "this field is required"
		}
		if prev, ok := fields[key]; ok {
			fields[key] = prev + "; " + msg
			continue
		}
		fields[key] = msg
	}
	return fields
}

const requiredPrefix = "expected required property "

// fieldName strips huma's location prefix: "body.tags[0].name" -> "tags[0].name".
func fieldName(location string) string {
	for _, prefix := range []string{"body.", "query.", "path.", "header."} {
		if rest, ok := strings.CutPrefix(location, prefix); ok {
			return rest
		}
	}
	if location == "" {
		return "body"
	}
	return location
}
