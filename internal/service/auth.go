package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipeapp/recipe-server/internal/auth"
	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/id"
	"github.com/recipeapp/recipe-server/internal/store"
	"github.com/recipeapp/recipe-server/internal/validation"
)

// AuthService handles registration, login and bearer token verification.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	hasher    *auth.Hasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	hasher *auth.Hasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		validator: validation.New(),
		logger:    logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=1024"`
	FirstName  string `json:"first_name" validate:"max=55"`
	MiddleName string `json:"middle_name" validate:"max=55"`
	LastName   string `json:"last_name" validate:"max=55"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries a freshly issued access token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// errEmailTaken is the registration failure for a duplicate email.
func errEmailTaken() error {
	return domainerrors.FieldInvalid("email", "already registered")
}

// Register creates an active, non-staff account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = store.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if store.IsAlreadyExists(err) {
			return nil, errEmailTaken()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email, "name", user.FullName())
	return user, nil
}

// CreateSuperuser creates an active staff+superuser account.
func (s *AuthService) CreateSuperuser(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = store.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true

	if err := s.store.CreateUser(ctx, user); err != nil {
		if store.IsAlreadyExists(err) {
			return nil, errEmailTaken()
		}
		return nil, fmt.Errorf("create superuser: %w", err)
	}

	s.logger.Info("superuser created", "user_id", user.ID, "email", user.Email, "name", user.FullName())
	return user, nil
}

func (s *AuthService) newUser(req RegisterRequest) (*domain.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Entity:       domain.Entity{ID: id.NewUUID()},
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	user.InitTimestamps()
	return user, nil
}

// Login checks credentials and issues an access token.
// Unknown email, wrong password and inactive accounts are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = store.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	invalid := domainerrors.InvalidCredentials("unable to authenticate with provided credentials")

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, invalid
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok || !user.CanLogin() {
		s.logger.Info("login rejected", "user_id", user.ID)
		return nil, invalid
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	tok, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResponse{
		Token:     tok.Value,
		TokenType: auth.TokenType,
		ExpiresIn: int64(s.tokens.Duration().Seconds()),
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// rehash upgrades a stored hash to the current parameters. Failure only logs.
func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("password rehash not saved", "user_id", user.ID, "error", err)
	}
}

// VerifyAccessToken validates a bearer token and loads its active user.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domainerrors.TokenExpired("token expired")
		}
		return nil, nil, domainerrors.Unauthorized("invalid token")
	}

	if !id.ValidUUID(claims.UserID) {
		return nil, nil, domainerrors.Unauthorized("invalid token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil, domainerrors.Unauthorized("invalid token")
		}
		return nil, nil, fmt.Errorf("load token user: %w", err)
	}
	if !user.CanLogin() {
		return nil, nil, domainerrors.Unauthorized("account is disabled")
	}
	return user, claims, nil
}
