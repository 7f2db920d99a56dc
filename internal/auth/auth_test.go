package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeapp/recipe-server/internal/domain"
)

// fastParams keeps argon2 cheap in tests.
var fastParams = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(fastParams)

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify(encoded, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewHasher(fastParams)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_Rejects(t *testing.T) {
	h := NewHasher(fastParams)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Hash(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	ok, err := h.Verify("not-a-hash", "pw")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_NeedsRehash(t *testing.T) {
	encoded, err := NewHasher(fastParams).Hash("pw")
	require.NoError(t, err)

	assert.False(t, NewHasher(fastParams).NeedsRehash(encoded))
	assert.True(t, NewHasher(DefaultArgon2Params).NeedsRehash(encoded))
	assert.True(t, NewHasher(fastParams).NeedsRehash("garbage"))
}

func TestLoadOrGenerateKey_PersistsKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := LoadOrGenerateKey(dir, "")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, first.ExportHex(), string(raw))

	second, err := LoadOrGenerateKey(dir, "")
	require.NoError(t, err)
	assert.Equal(t, first.ExportHex(), second.ExportHex())
}

func TestLoadOrGenerateKey_ConfiguredHexWins(t *testing.T) {
	want := paseto.NewV4SymmetricKey()

	got, err := LoadOrGenerateKey(t.TempDir(), want.ExportHex())
	require.NoError(t, err)
	assert.Equal(t, want.ExportHex(), got.ExportHex())

	_, err = LoadOrGenerateKey(t.TempDir(), "zz")
	assert.Error(t, err)
}

func testUser() *domain.User {
	return &domain.User{Entity: domain.Entity{ID: "user-1"}, Email: "cook@example.com", IsActive: true}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService(paseto.NewV4SymmetricKey(), time.Hour)

	tok, err := svc.Issue(testUser())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok.Value, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "cook@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, tokenAudience, claims.Audience)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(paseto.NewV4SymmetricKey(), time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	tok, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_WrongKeyOrGarbage(t *testing.T) {
	issuer := NewTokenService(paseto.NewV4SymmetricKey(), time.Hour)
	other := NewTokenService(paseto.NewV4SymmetricKey(), time.Hour)

	tok, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = other.Verify(tok.Value)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = issuer.Verify("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
