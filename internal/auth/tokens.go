package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/id"
)

const (
	tokenIssuer   = "recipe-server"
	tokenAudience = "recipe-client"

	// TokenType is reported to clients alongside the token.
	TokenType = "Bearer"
)

// Token verification errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IssuedToken is a freshly minted access token.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service whose tokens live for duration.
func NewTokenService(key paseto.V4SymmetricKey, duration time.Duration) *TokenService {
	return &TokenService{key: key, duration: duration, now: time.Now}
}

// Duration returns the access token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Issue creates an encrypted access token for user.
func (s *TokenService) Issue(user *domain.User) (IssuedToken, error) {
	now := s.now()
	exp := now.Add(s.duration)

	tokenID, err := id.Generate("tok")
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate token id: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetJti(tokenID)

	//nolint:errcheck // Set only fails on unmarshalable values
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // Set only fails on unmarshalable values
	_ = token.Set("email", user.Email)
	//nolint:errcheck // Set only fails on unmarshalable values
	_ = token.Set("is_staff", user.IsStaff)

	return IssuedToken{Value: token.V4Encrypt(s.key, nil), ExpiresAt: exp}, nil
}

// Verify decrypts tokenString and checks its audience, issuer and validity window.
// Expired tokens return ErrTokenExpired; anything else unusable returns ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	exp, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("%w: missing expiration", ErrInvalidToken)
	}
	if !s.now().Before(exp) {
		return nil, ErrTokenExpired
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return &claims, nil
}
