package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        pathRecipes,
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first. " +
			"tags and ingredients take comma-separated IDs: any listed ID matches within a filter, " +
			"and both filters must match when both are given.",
		Tags:     []string{"Recipes"},
		Security: bearerSecurity,
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          pathRecipes,
		Summary:       "Create recipe",
		Description:   "Creates a recipe. Tags and ingredients are matched by name and created when missing.",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        pathRecipes + "/{id}",
		Summary:     "Get recipe",
		Description: "Returns one of the current user's recipes",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        pathRecipes + "/{id}",
		Summary:     "Replace recipe",
		Description: "Replaces every scalar field. Omitted tags or ingredients are kept; an empty list clears them.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        pathRecipes + "/{id}",
		Summary:     "Update recipe",
		Description: "Updates only the given fields. An empty tags or ingredients list clears that set.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          pathRecipes + "/{id}",
		Summary:       "Delete recipe",
		Description:   "Deletes a recipe and its image. Tags and ingredients are kept.",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// RecipeResponse contains recipe data in API responses.
type RecipeResponse struct {
	ID            string          `json:"id" doc:"Recipe ID"`
	Title         string          `json:"title" doc:"Title"`
	Description   string          `json:"description" doc:"Free-form description"`
	TimeMinutes   int             `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string          `json:"price" doc:"Price with two decimal places" example:"5.50"`
	Link          string          `json:"link" doc:"External link"`
	Image         *string         `json:"image" doc:"URL of the recipe image, null when none"`
	ImageBlurHash string          `json:"image_blurhash,omitempty" doc:"BlurHash placeholder for the image"`
	Tags          []LabelResponse `json:"tags" doc:"Tags, ordered by name"`
	Ingredients   []LabelResponse `json:"ingredients" doc:"Ingredients, ordered by name"`
	CreatedAt     time.Time       `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time       `json:"updated_at" doc:"Last update time"`
}

func toRecipeResponse(r *domain.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price.String(),
		Link:          r.Link,
		ImageBlurHash: r.ImageBlurHash,
		Tags:          toLabelResponses(r.Tags),
		Ingredients:   toLabelResponses(r.Ingredients),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.HasImage() {
		url := recipeImageURL(r.ID)
		resp.Image = &url
	}
	return resp
}

func recipeImageURL(recipeID string) string {
	return pathRecipes + "/" + recipeID + "/image"
}

// LabelRef names a tag or ingredient inside a recipe payload.
type LabelRef struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" doc:"Name; an existing label with this name is reused"`
}

func toLabelInputs(refs *[]LabelRef) *[]service.LabelInput {
	if refs == nil {
		return nil
	}
	in := make([]service.LabelInput, len(*refs))
	for i, ref := range *refs {
		in[i] = service.LabelInput{Name: ref.Name}
	}
	return &in
}

// RecipeRequest is the request body for creating or replacing a recipe.
// Unknown properties such as a client-sent owner are ignored.
type RecipeRequest struct {
	_           struct{}    `json:"-" additionalProperties:"true"`
	Title       string      `json:"title" doc:"Title"`
	Description string      `json:"description,omitempty" doc:"Free-form description"`
	TimeMinutes *int        `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       *float64    `json:"price" doc:"Price with at most two decimal places"`
	Link        string      `json:"link,omitempty" doc:"External link"`
	Tags        *[]LabelRef `json:"tags,omitempty" doc:"Tags by name; omit to keep the current set"`
	Ingredients *[]LabelRef `json:"ingredients,omitempty" doc:"Ingredients by name; omit to keep the current set"`
}

func (r RecipeRequest) input() service.RecipeInput {
	return service.RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        toLabelInputs(r.Tags),
		Ingredients: toLabelInputs(r.Ingredients),
	}
}

// UpdateRecipeRequest is a partial recipe update.
type UpdateRecipeRequest struct {
	_           struct{}    `json:"-" additionalProperties:"true"`
	Title       *string     `json:"title,omitempty" doc:"Title"`
	Description *string     `json:"description,omitempty" doc:"Free-form description"`
	TimeMinutes *int        `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *float64    `json:"price,omitempty" doc:"Price with at most two decimal places"`
	Link        *string     `json:"link,omitempty" doc:"External link"`
	Tags        *[]LabelRef `json:"tags,omitempty" doc:"Tags by name; an empty list clears them"`
	Ingredients *[]LabelRef `json:"ingredients,omitempty" doc:"Ingredients by name; an empty list clears them"`
}

func (r UpdateRecipeRequest) patch() service.RecipePatch {
	return service.RecipePatch{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        toLabelInputs(r.Tags),
		Ingredients: toLabelInputs(r.Ingredients),
	}
}

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs"`
}

// ListRecipesOutput wraps a list of recipes for Huma.
type ListRecipesOutput struct {
	Body []RecipeResponse
}

// RecipeOutput wraps a single recipe for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          RecipeRequest
}

// RecipeIDInput contains parameters for single-recipe operations.
type RecipeIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// ReplaceRecipeInput wraps a PUT for Huma.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          RecipeRequest
}

// UpdateRecipeInput wraps a PATCH for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipes.List(ctx, user.ID, service.RecipeQuery{
		Tags:        input.Tags,
		Ingredients: input.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = toRecipeResponse(r)
	}
	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	r, err := s.services.Recipes.Create(ctx, user.ID, input.Body.input())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeResponse(r)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	r, err := s.services.Recipes.Get(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeResponse(r)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	r, err := s.services.Recipes.Replace(ctx, user.ID, input.ID, input.Body.input())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeResponse(r)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	r, err := s.services.Recipes.Patch(ctx, user.ID, input.ID, input.Body.patch())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeResponse(r)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipes.Delete(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
