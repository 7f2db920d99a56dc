package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnvelope_EmptyListIsKept(t *testing.T) {
	body, err := json.Marshal(Envelope{Version: Version, Success: true, Data: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":true,"data":[]}`, string(body))
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"generic", func(w http.ResponseWriter) { Error(w, http.StatusConflict, domainerrors.CodeConflict, "busy", discard()) }, http.StatusConflict, "CONFLICT"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, nil) }, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"rate limited", func(w http.ResponseWriter) { TooManyRequests(w, "slow down", nil) }, http.StatusTooManyRequests, "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, 1, body.Version)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    domainerrors.Code
		message string
	}{
		{
			name:    "domain validation",
			err:     domainerrors.FieldInvalid("title", "must not be blank"),
			status:  http.StatusBadRequest,
			code:    domainerrors.CodeValidation,
			message: "validation failed",
		},
		{
			name:    "wrapped domain",
			err:     fmt.Errorf("outer: %w", domainerrors.TokenExpired("token expired")),
			status:  http.StatusUnauthorized,
			code:    domainerrors.CodeTokenExpired,
			message: "token expired",
		},
		{
			name:    "store not found",
			err:     store.ErrNotFound.WithMessage("recipe not found"),
			status:  http.StatusNotFound,
			code:    domainerrors.CodeNotFound,
			message: "recipe not found",
		},
		{
			name:    "store conflict",
			err:     fmt.Errorf("create: %w", store.ErrAlreadyExists),
			status:  http.StatusConflict,
			code:    domainerrors.CodeAlreadyExists,
			message: "resource already exists",
		},
		{
			name:    "unknown",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			code:    domainerrors.CodeInternal,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.err)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.code, p.Code)
			assert.Equal(t, tt.message, p.Message)
		})
	}
}

func TestHandleError_Details(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.FieldInvalid("image", "upload a valid image"), discard())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t,
		`{"v":1,"success":false,"code":"VALIDATION","message":"validation failed","details":{"image":"upload a valid image"}}`,
		w.Body.String())
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("pq: connection refused"), discard())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, domainerrors.CodeValidation, CodeForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, domainerrors.CodeRateLimited, CodeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, domainerrors.CodeInternal, CodeForStatus(http.StatusBadGateway))
}
