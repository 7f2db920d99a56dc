package api

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/http/response"
	"github.com/recipeapp/recipe-server/internal/media/images"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "uploadRecipeImage",
		Method:      http.MethodPost,
		Path:        pathRecipes + "/{id}/upload-image",
		Summary:     "Upload recipe image",
		Description: "Attaches a JPEG, PNG, GIF or WebP image sent as the raw request body. " +
			"The previous image is replaced only when the new one is valid.",
		Tags:         []string{"Recipes"},
		Security:     bearerSecurity,
		MaxBodyBytes: s.maxUpload,
	}, s.handleUploadRecipeImage)

	// Direct chi route for image streaming
	s.router.Get(pathRecipes+"/{id}/image", s.handleServeRecipeImage)
}

// === DTOs ===

// UploadRecipeImageInput carries the raw image bytes.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	ContentType   string `header:"Content-Type" doc:"image/jpeg, image/png, image/gif or image/webp"`
	RawBody       []byte
}

// RecipeImageResponse describes the stored image.
type RecipeImageResponse struct {
	ID       string `json:"id" doc:"Recipe ID"`
	Image    string `json:"image" doc:"URL of the recipe image"`
	BlurHash string `json:"image_blurhash,omitempty" doc:"BlurHash placeholder"`
}

// RecipeImageOutput wraps the upload response for Huma.
type RecipeImageOutput struct {
	Body RecipeImageResponse
}

// === Handlers ===

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeImageOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if !acceptableImageType(input.ContentType) {
		return nil, domainerrors.FieldInvalid("image", "unsupported content type "+input.ContentType)
	}
	if len(input.RawBody) == 0 {
		return nil, domainerrors.FieldInvalid("image", "no file was submitted")
	}

	r, err := s.services.Recipes.UploadImage(ctx, user.ID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeImageOutput{
		Body: RecipeImageResponse{
			ID:       r.ID,
			Image:    recipeImageURL(r.ID),
			BlurHash: r.ImageBlurHash,
		},
	}, nil
}

// acceptableImageType allows supported image types plus generic binary
// uploads; the bytes are decoded either way.
func acceptableImageType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/octet-stream" || images.IsSupportedContentType(mediaType)
}

// handleServeRecipeImage streams a recipe's image to its owner.
func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.authenticateRequest(ctx, r.Header.Get("Authorization"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	recipeID := chi.URLParam(r, "id")
	img, err := s.services.Recipes.OpenImage(ctx, user.ID, recipeID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer img.Body.Close()

	etag := `"` + img.Key + `"`
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", CachePrivateNoCache)
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, img.Body); err != nil {
		s.logger.Warn("failed to write recipe image", "recipe_id", recipeID, "error", err)
	}
}
