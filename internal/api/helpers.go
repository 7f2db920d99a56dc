package api

import (
	"context"
	"strings"

	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", domainerrors.Unauthorized("authentication credentials were not provided")
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", domainerrors.Unauthorized("invalid authorization header format")
	}
	return token, nil
}

// authenticateRequest validates the Authorization header and returns the
// user. It runs before any entity lookup so unauthenticated callers learn
// nothing about what exists.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*domain.User, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return user, nil
}
