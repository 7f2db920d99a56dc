package api

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeImage_UploadAndServe(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")
	r := ts.createRecipe(t, authz, map[string]any{"title": "Toast", "time_minutes": 5, "price": 1})
	data := testPNG(t)

	resp := ts.api.Post(pathRecipes+"/"+r.ID+"/upload-image", authz, "Content-Type: image/png", bytes.NewReader(data))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	uploaded := decodeData[RecipeImageResponse](t, resp)
	assert.Equal(t, r.ID, uploaded.ID)
	assert.Equal(t, pathRecipes+"/"+r.ID+"/image", uploaded.Image)
	assert.NotEmpty(t, uploaded.BlurHash)

	resp = ts.api.Get(pathRecipes+"/"+r.ID, authz)
	got := decodeData[RecipeResponse](t, resp)
	require.NotNil(t, got.Image)
	assert.Equal(t, uploaded.Image, *got.Image)

	resp = ts.api.Get(uploaded.Image, authz)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, data, resp.Body.Bytes())

	etag := resp.Header().Get("ETag")
	require.NotEmpty(t, etag)
	resp = ts.api.Get(uploaded.Image, authz, "If-None-Match: "+etag)
	assert.Equal(t, http.StatusNotModified, resp.Code)
}

func TestRecipeImage_RejectsInvalidUploads(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")
	r := ts.createRecipe(t, authz, map[string]any{"title": "Toast", "time_minutes": 5, "price": 1})
	upload := pathRecipes + "/" + r.ID + "/upload-image"

	resp := ts.api.Post(upload, authz, "Content-Type: image/png", bytes.NewReader(testPNG(t)))
	require.Equal(t, http.StatusOK, resp.Code)
	before := decodeData[RecipeImageResponse](t, resp)

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"not an image", "image/png", []byte("definitely not a png")},
		{"unsupported content type", "text/plain", testPNG(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(upload, authz, "Content-Type: "+tt.contentType, bytes.NewReader(tt.body))
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			e := decodeError(t, resp)
			assert.Equal(t, "VALIDATION", e.Code)
			assert.Contains(t, e.Details, "image")
		})
	}

	// The previous image is untouched.
	resp = ts.api.Get(pathRecipes+"/"+r.ID, authz)
	assert.Equal(t, before.BlurHash, decodeData[RecipeResponse](t, resp).ImageBlurHash)
	assert.Equal(t, http.StatusOK, ts.api.Get(before.Image, authz).Code)
}

func TestRecipeImage_TooLarge(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{MaxUploadBytes: 64, AuthRateLimit: 100, AuthRateBurst: 100})
	authz := ts.createUser(t, "cook@example.com")
	r := ts.createRecipe(t, authz, map[string]any{"title": "Toast", "time_minutes": 5, "price": 1})

	resp := ts.api.Post(pathRecipes+"/"+r.ID+"/upload-image", authz, "Content-Type: image/png", bytes.NewReader(testPNG(t)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestRecipeImage_Ownership(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createUser(t, "alice@example.com")
	bob := ts.createUser(t, "bob@example.com")
	r := ts.createRecipe(t, alice, map[string]any{"title": "Toast", "time_minutes": 5, "price": 1})

	resp := ts.api.Post(pathRecipes+"/"+r.ID+"/upload-image", bob, "Content-Type: image/png", bytes.NewReader(testPNG(t)))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post(pathRecipes+"/"+r.ID+"/upload-image", "Content-Type: image/png", bytes.NewReader(testPNG(t)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get(pathRecipes+"/"+r.ID+"/image", alice)
	assert.Equal(t, http.StatusNotFound, resp.Code, "no image yet")

	resp = ts.api.Get(pathRecipes + "/" + r.ID + "/image")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
}
