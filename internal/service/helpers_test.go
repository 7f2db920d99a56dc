package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/require"

	"github.com/recipeapp/recipe-server/internal/auth"
	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/media/images"
	"github.com/recipeapp/recipe-server/internal/store/sqlstore"
)

// testEnv bundles services sharing one temporary SQLite store.
type testEnv struct {
	store       *sqlstore.Store
	imageStore  *images.FileStore
	tokens      *auth.TokenService
	auth        *AuthService
	users       *UserService
	tags        *LabelService
	ingredients *LabelService
	recipes     *RecipeService
}

// fastHasher keeps argon2 cheap in tests.
func fastHasher() *auth.Hasher {
	return auth.NewHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlstore.Open(context.Background(),
		sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: filepath.Join(dir, "test.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	imageStore, err := images.NewFileStore(dir, "media")
	require.NoError(t, err)

	tokens := auth.NewTokenService(paseto.NewV4SymmetricKey(), time.Hour)
	hasher := fastHasher()

	return &testEnv{
		store:       s,
		imageStore:  imageStore,
		tokens:      tokens,
		auth:        NewAuthService(s, tokens, hasher, logger),
		users:       NewUserService(s, hasher, imageStore, logger),
		tags:        NewLabelService(domain.LabelTag, s, logger),
		ingredients: NewLabelService(domain.LabelIngredient, s, logger),
		recipes:     NewRecipeService(s, images.NewProcessor(imageStore, "recipe", logger), logger),
	}
}

// registerUser creates an account with a default password.
func (e *testEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{Email: email, Password: "testpass123"})
	require.NoError(t, err)
	return u
}

func names(labels []*domain.Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Name
	}
	return out
}

func labelInputs(ns ...string) *[]LabelInput {
	in := make([]LabelInput, len(ns))
	for i, n := range ns {
		in[i] = LabelInput{Name: n}
	}
	return &in
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := range 10 {
			img.Set(x, y, color.RGBA{R: uint8(x * 25), G: uint8(y * 25), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
