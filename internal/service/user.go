package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recipeapp/recipe-server/internal/auth"
	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/media/images"
	"github.com/recipeapp/recipe-server/internal/store"
	"github.com/recipeapp/recipe-server/internal/validation"
)

// UserService manages the authenticated user's own account.
type UserService struct {
	store     store.Store
	hasher    *auth.Hasher
	images    images.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service. imageStore may be nil.
func NewUserService(store store.Store, hasher *auth.Hasher, imageStore images.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		hasher:    hasher,
		images:    imageStore,
		validator: validation.New(),
		logger:    logger,
	}
}

// UpdateProfileRequest is a partial update. Nil fields are left unchanged, and
// so are an empty email or password.
type UpdateProfileRequest struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=55"`
	MiddleName *string `json:"middle_name,omitempty" validate:"omitempty,max=55"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=55"`
}

// GetUser returns the user's account.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfile applies a partial update. A non-empty password is re-hashed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	req.Email = nilIfBlank(req.Email)
	if req.Email != nil {
		normalized := store.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if req.Password != nil && *req.Password == "" {
		req.Password = nil
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		user.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if store.IsAlreadyExists(err) {
			return nil, errEmailTaken()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("profile updated", "user_id", user.ID, "password_changed", req.Password != nil && *req.Password != "")
	return user, nil
}

// DeleteUser removes the account, everything it owns, and its stored images.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	var keys []string
	if s.images != nil {
		recipes, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{})
		if err != nil {
			return fmt.Errorf("list recipes: %w", err)
		}
		for _, r := range recipes {
			if r.HasImage() {
				keys = append(keys, r.ImageKey)
			}
		}
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			s.logger.Warn("image cleanup failed", "user_id", userID, "key", key, "error", err)
		}
	}

	s.logger.Info("user deleted", "user_id", userID, "images_removed", len(keys))
	return nil
}

// GetUserByEmail looks an account up by email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func nilIfBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
