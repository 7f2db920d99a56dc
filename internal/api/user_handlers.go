package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          pathUserCreate,
		Summary:       "Create user",
		Description:   "Registers a new account. Rate limited per client IP.",
		Tags:          []string{"User"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        pathUserToken,
		Summary:     "Create token",
		Description: "Exchanges email and password for a bearer token. Rate limited per client IP.",
		Tags:        []string{"User"},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/user/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/user/me",
		Summary:     "Update current user",
		Description: "Partially updates the authenticated user's profile. A new password is re-hashed.",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleUpdateCurrentUser)
}

// === DTOs ===

// UserResponse is the public view of an account. The password hash never
// leaves the server.
type UserResponse struct {
	ID         string    `json:"id" doc:"User ID"`
	Email      string    `json:"email" doc:"Email address"`
	FirstName  string    `json:"first_name" doc:"First name"`
	MiddleName string    `json:"middle_name" doc:"Middle name"`
	LastName   string    `json:"last_name" doc:"Last name"`
	IsStaff    bool      `json:"is_staff" doc:"Staff account"`
	CreatedAt  time.Time `json:"created_at" doc:"Registration time"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		IsStaff:    u.IsStaff,
		CreatedAt:  u.CreatedAt,
	}
}

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	Email      string `json:"email" doc:"Email address, unique across accounts"`
	Password   string `json:"password" doc:"Password, at least 8 characters"`
	FirstName  string `json:"first_name,omitempty" doc:"First name"`
	MiddleName string `json:"middle_name,omitempty" doc:"Middle name"`
	LastName   string `json:"last_name,omitempty" doc:"Last name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// CreateTokenRequest is the request body for login.
type CreateTokenRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// CreateTokenInput wraps the login request for Huma.
type CreateTokenInput struct {
	Body CreateTokenRequest
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token     string    `json:"token" doc:"Bearer token"`
	TokenType string    `json:"token_type" doc:"Always Bearer"`
	ExpiresIn int64     `json:"expires_in" doc:"Seconds until the token expires"`
	ExpiresAt time.Time `json:"expires_at" doc:"Expiry time"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// GetCurrentUserInput contains parameters for the profile lookup.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateCurrentUserRequest is a partial profile update.
type UpdateCurrentUserRequest struct {
	Email      *string `json:"email,omitempty" doc:"New email address"`
	Password   *string `json:"password,omitempty" doc:"New password"`
	FirstName  *string `json:"first_name,omitempty" doc:"First name"`
	MiddleName *string `json:"middle_name,omitempty" doc:"Middle name"`
	LastName   *string `json:"last_name,omitempty" doc:"Last name"`
}

// UpdateCurrentUserInput wraps the profile update for Huma.
type UpdateCurrentUserInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateCurrentUserRequest
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		FirstName:  input.Body.FirstName,
		MiddleName: input.Body.MiddleName,
		LastName:   input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{
		Body: TokenResponse{
			Token:     resp.Token,
			TokenType: resp.TokenType,
			ExpiresIn: resp.ExpiresIn,
			ExpiresAt: resp.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.Users.UpdateProfile(ctx, user.ID, service.UpdateProfileRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		FirstName:  input.Body.FirstName,
		MiddleName: input.Body.MiddleName,
		LastName:   input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(updated)}, nil
}
