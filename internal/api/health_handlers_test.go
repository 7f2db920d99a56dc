package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.True(t, health.Healthy)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.NotEmpty(t, health.Components["database"].Latency)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, jsonUnmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.False(t, envelope.Data.Healthy)
	assert.Equal(t, "unhealthy", envelope.Data.Components["database"].Status)
}
