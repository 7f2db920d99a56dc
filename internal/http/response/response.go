// Package response writes the API's JSON envelope for handlers that live
// outside huma: raw chi routes and middleware.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/store"
)

// Version is the envelope format version, sent as "v".
const Version = 1

// Envelope wraps every successful response body.
type Envelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Problem is an error resolved to what the client sees.
type Problem struct {
	Status  int
	Code    domainerrors.Code
	Message string
	Details any
}

// Envelope renders the problem as an error body.
func (p Problem) Envelope() ErrorEnvelope {
	return ErrorEnvelope{
		Version: Version,
		Success: false,
		Code:    string(p.Code),
		Message: p.Message,
		Details: p.Details,
	}
}

// Classify maps domain and store errors to their status and code. Anything
// else is an internal error whose message is not exposed.
func Classify(err error) Problem {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return Problem{
			Status:  domainErr.HTTPStatus(),
			Code:    domainErr.Code,
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return Problem{
			Status:  storeErr.HTTPCode(),
			Code:    CodeForStatus(storeErr.HTTPCode()),
			Message: storeErr.Message,
		}
	}

	return Problem{
		Status:  http.StatusInternalServerError,
		Code:    domainerrors.CodeInternal,
		Message: "internal server error",
	}
}

// CodeForStatus picks the error code for a bare HTTP status.
func CodeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeAlreadyExists
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType:
		return domainerrors.CodeValidation
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code domainerrors.Code, message string, logger *slog.Logger) {
	write(w, status, Problem{Status: status, Code: code, Message: message}.Envelope(), logger)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, domainerrors.CodeNotFound, message, logger)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, domainerrors.CodeRateLimited, message, logger)
}

// HandleError writes the envelope for err. Internal errors are logged.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	p := Classify(err)
	if p.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	write(w, p.Status, p.Envelope(), logger)
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
