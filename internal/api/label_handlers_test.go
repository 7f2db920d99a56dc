package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLabel(t *testing.T, ts *testServer, authz, basePath, name string) LabelResponse {
	t.Helper()

	resp := ts.api.Post(basePath, authz, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeData[LabelResponse](t, resp)
}

func TestLabels_CreateAndList(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")

	for _, basePath := range []string{"/api/v1/tags", "/api/v1/ingredients"} {
		t.Run(basePath, func(t *testing.T) {
			createLabel(t, ts, authz, basePath, "Vegan")
			created := createLabel(t, ts, authz, basePath, "  Dessert ")
			assert.Equal(t, "Dessert", created.Name)

			resp := ts.api.Get(basePath, authz)
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, []string{"Dessert", "Vegan"}, labelNames(decodeData[[]LabelResponse](t, resp)))

			resp = ts.api.Get(basePath+"/"+created.ID, authz)
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, created, decodeData[LabelResponse](t, resp))
		})
	}
}

func TestLabels_IDPrefixes(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")

	assert.Regexp(t, `^tag-`, createLabel(t, ts, authz, "/api/v1/tags", "Quick").ID)
	assert.Regexp(t, `^ing-`, createLabel(t, ts, authz, "/api/v1/ingredients", "Salt").ID)
}

func TestLabels_CreateErrors(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")
	createLabel(t, ts, authz, "/api/v1/tags", "Quick")

	resp := ts.api.Post("/api/v1/tags", authz, map[string]any{"name": "Quick"})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_EXISTS", decodeError(t, resp).Code)

	resp = ts.api.Post("/api/v1/tags", authz, map[string]any{"name": "   "})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Details, "name")

	resp = ts.api.Post("/api/v1/tags", authz, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "this field is required", decodeError(t, resp).Details["name"])
}

func TestLabels_PerUserNamespaces(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createUser(t, "alice@example.com")
	bob := ts.createUser(t, "bob@example.com")

	aliceSpicy := createLabel(t, ts, alice, "/api/v1/tags", "Spicy")
	bobSpicy := createLabel(t, ts, bob, "/api/v1/tags", "Spicy")
	assert.NotEqual(t, aliceSpicy.ID, bobSpicy.ID)

	resp := ts.api.Get("/api/v1/tags", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	bobTags := decodeData[[]LabelResponse](t, resp)
	require.Len(t, bobTags, 1)
	assert.Equal(t, bobSpicy.ID, bobTags[0].ID)

	// Someone else's label is indistinguishable from a missing one.
	item := "/api/v1/tags/" + aliceSpicy.ID
	for _, resp := range []*httptest.ResponseRecorder{
		ts.api.Get(item, bob),
		ts.api.Put(item, bob, map[string]any{"name": "Mild"}),
		ts.api.Patch(item, bob, map[string]any{"name": "Mild"}),
		ts.api.Delete(item, bob),
	} {
		assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	}

	resp = ts.api.Get(item, alice)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Spicy", decodeData[LabelResponse](t, resp).Name)
}

func TestLabels_Update(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")
	salt := createLabel(t, ts, authz, "/api/v1/ingredients", "Salt")
	createLabel(t, ts, authz, "/api/v1/ingredients", "Pepper")
	item := "/api/v1/ingredients/" + salt.ID

	resp := ts.api.Put(item, authz, map[string]any{"name": "Sea salt"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Sea salt", decodeData[LabelResponse](t, resp).Name)

	resp = ts.api.Patch(item, authz, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Sea salt", decodeData[LabelResponse](t, resp).Name)

	resp = ts.api.Patch(item, authz, map[string]any{"name": "Pepper"})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Put(item, authz, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLabels_Delete(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")

	r := ts.createRecipe(t, authz, map[string]any{
		"title": "Toast", "time_minutes": 5, "price": 1,
		"tags": []map[string]any{{"name": "Quick"}},
	})
	require.Len(t, r.Tags, 1)

	resp := ts.api.Delete("/api/v1/tags/"+r.Tags[0].ID, authz)
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.Bytes())

	resp = ts.api.Get(pathRecipes+"/"+r.ID, authz)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeData[RecipeResponse](t, resp).Tags)

	resp = ts.api.Delete("/api/v1/tags/"+r.Tags[0].ID, authz)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLabels_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")

	createLabel(t, ts, authz, "/api/v1/ingredients", "Saffron")
	ts.createRecipe(t, authz, map[string]any{
		"title": "Soup", "time_minutes": 30, "price": 4,
		"ingredients": []map[string]any{{"name": "Leek"}, {"name": "Potato"}},
	})
	ts.createRecipe(t, authz, map[string]any{
		"title": "Mash", "time_minutes": 20, "price": 2,
		"ingredients": []map[string]any{{"name": "Potato"}},
	})

	resp := ts.api.Get("/api/v1/ingredients?assigned_only=1", authz)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"Leek", "Potato"}, labelNames(decodeData[[]LabelResponse](t, resp)))

	resp = ts.api.Get("/api/v1/ingredients?assigned_only=0", authz)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"Leek", "Potato", "Saffron"}, labelNames(decodeData[[]LabelResponse](t, resp)))

	resp = ts.api.Get("/api/v1/ingredients?assigned_only=yes", authz)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Details, "assigned_only")
}

func TestLabels_ListDefaultsAndAuthOrder(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.createUser(t, "cook@example.com")
	createLabel(t, ts, authz, "/api/v1/tags", "Quick")

	for _, basePath := range []string{"/api/v1/tags", "/api/v1/ingredients"} {
		resp := ts.api.Get(basePath, authz)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.NotNil(t, decodeData[[]LabelResponse](t, resp))

		// Credentials are checked before the query string.
		for _, query := range []string{"", "?assigned_only=1", "?assigned_only=yes"} {
			resp := ts.api.Get(basePath + query)
			require.Equal(t, http.StatusUnauthorized, resp.Code, basePath+query)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		}
	}
}

func TestParseAssignedOnly(t *testing.T) {
	for in, want := range map[string]bool{"": false, "0": false, "1": true, " 1 ": true} {
		got, err := parseAssignedOnly(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseAssignedOnly("true")
	require.Error(t, err)
}
