package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/id"
	"github.com/recipeapp/recipe-server/internal/media/images"
	"github.com/recipeapp/recipe-server/internal/store"
	"github.com/recipeapp/recipe-server/internal/validation"
)

// recipeIDPrefix prefixes generated recipe IDs.
const recipeIDPrefix = "rcp"

// RecipeService orchestrates recipe CRUD, label reconciliation and images.
type RecipeService struct {
	store     store.Store
	images    *images.Processor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(store store.Store, processor *images.Processor, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:     store,
		images:    processor,
		validator: validation.New(),
		logger:    logger,
	}
}

// RecipeInput is a full recipe write (create or replace). Tags and
// Ingredients are nil when the key was absent from the payload.
type RecipeInput struct {
	Title       string        `json:"title" validate:"notblank,max=255"`
	Description string        `json:"description"`
	TimeMinutes *int          `json:"time_minutes" validate:"required,gte=1,lte=32767"`
	Price       *float64      `json:"price" validate:"required,gte=0"`
	Link        string        `json:"link" validate:"omitempty,url,max=255"`
	Tags        *[]LabelInput `json:"tags"`
	Ingredients *[]LabelInput `json:"ingredients"`
}

// RecipePatch is a partial update; nil fields are left unchanged.
type RecipePatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	TimeMinutes *int          `json:"time_minutes"`
	Price       *float64      `json:"price"`
	Link        *string       `json:"link"`
	Tags        *[]LabelInput `json:"tags"`
	Ingredients *[]LabelInput `json:"ingredients"`
}

// RecipeQuery carries the raw list filters from the query string.
type RecipeQuery struct {
	Tags        string
	Ingredients string
}

// Get returns one of the user's recipes.
func (s *RecipeService) Get(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	return s.store.GetRecipe(ctx, userID, recipeID)
}

// List returns the user's recipes, newest first, filtered by comma-separated
// tag and ingredient IDs.
func (s *RecipeService) List(ctx context.Context, userID string, q RecipeQuery) ([]*domain.Recipe, error) {
	tagIDs, err := ParseIDList(domain.LabelTag, "tags", q.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := ParseIDList(domain.LabelIngredient, "ingredients", q.Ingredients)
	if err != nil {
		return nil, err
	}
	return s.store.ListRecipes(ctx, userID, store.RecipeFilter{TagIDs: tagIDs, IngredientIDs: ingredientIDs})
}

// Create stores a new recipe owned by userID together with its labels.
func (s *RecipeService) Create(ctx context.Context, userID string, in RecipeInput) (*domain.Recipe, error) {
	r := &domain.Recipe{UserID: userID}
	assoc, err := s.applyInput(r, in)
	if err != nil {
		return nil, err
	}
	// On create every kind is written, absent or not.
	for _, kind := range []domain.LabelKind{domain.LabelTag, domain.LabelIngredient} {
		if _, ok := assoc[kind]; !ok {
			assoc[kind] = []string{}
		}
	}

	recipeID, err := id.Generate(recipeIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generate recipe id: %w", err)
	}
	r.ID = recipeID
	r.InitTimestamps()

	if err := s.store.CreateRecipe(ctx, r, assoc); err != nil {
		return nil, err
	}

	s.logger.Info("recipe created", "id", r.ID, "user_id", userID,
		"tags", len(r.Tags), "ingredients", len(r.Ingredients))
	return r, nil
}

// Replace overwrites every scalar field of one of the user's recipes.
// Label sets follow the same present/absent rule as Patch.
func (s *RecipeService) Replace(ctx context.Context, userID, recipeID string, in RecipeInput) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	assoc, err := s.applyInput(r, in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, r, assoc)
}

// Patch applies a partial update to one of the user's recipes. The patch is
// merged over the stored values and validated as a full write.
func (s *RecipeService) Patch(ctx context.Context, userID, recipeID string, p RecipePatch) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	timeMinutes, price := r.TimeMinutes, r.Price.Float()
	merged := RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: &timeMinutes,
		Price:       &price,
		Link:        r.Link,
		Tags:        p.Tags,
		Ingredients: p.Ingredients,
	}
	if p.Title != nil {
		merged.Title = *p.Title
	}
	if p.Description != nil {
		merged.Description = *p.Description
	}
	if p.TimeMinutes != nil {
		merged.TimeMinutes = p.TimeMinutes
	}
	if p.Price != nil {
		merged.Price = p.Price
	}
	if p.Link != nil {
		merged.Link = *p.Link
	}

	assoc, err := s.applyInput(r, merged)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, r, assoc)
}

func (s *RecipeService) save(ctx context.Context, r *domain.Recipe, assoc store.Associations) (*domain.Recipe, error) {
	r.Touch()
	if err := s.store.UpdateRecipe(ctx, r, assoc); err != nil {
		return nil, err
	}
	s.logger.Info("recipe updated", "id", r.ID, "user_id", r.UserID)
	return r, nil
}

// applyInput validates a full write and copies it onto r.
func (s *RecipeService) applyInput(r *domain.Recipe, in RecipeInput) (store.Associations, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	fields := domainerrors.FieldErrors{}

	r.Title = strings.TrimSpace(in.Title)
	r.Description = in.Description
	r.TimeMinutes = *in.TimeMinutes
	r.Link = in.Link
	setPrice(r, *in.Price, fields)

	assoc := labelAssociations(in.Tags, in.Ingredients, fields)
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return assoc, nil
}

func setPrice(r *domain.Recipe, amount float64, fields domainerrors.FieldErrors) {
	price, err := domain.PriceFromFloat(amount)
	if err != nil {
		fields["price"] = err.Error()
		return
	}
	r.Price = price
}

// labelAssociations turns the optional nested lists into store associations.
// A nil list leaves that kind out so the store keeps the existing set.
func labelAssociations(tags, ingredients *[]LabelInput, fields domainerrors.FieldErrors) store.Associations {
	assoc := store.Associations{}
	if tags != nil {
		assoc[domain.LabelTag] = normalizeLabelInputs(domain.LabelTag, *tags, fields)
	}
	if ingredients != nil {
		assoc[domain.LabelIngredient] = normalizeLabelInputs(domain.LabelIngredient, *ingredients, fields)
	}
	return assoc
}

// Delete removes one of the user's recipes and its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	r, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		return err
	}
	if r.HasImage() {
		s.removeImage(ctx, r.ImageKey)
	}
	s.logger.Info("recipe deleted", "id", recipeID, "user_id", userID)
	return nil
}

// UploadImage validates data as an image, stores it and attaches it to the
// recipe. The previous file is deleted only after the new one is stored and
// recorded, so an invalid payload or a failed write keeps the old image. The
// returned recipe is re-read and carries the bumped updated_at.
func (s *RecipeService) UploadImage(ctx context.Context, userID, recipeID string, data []byte) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	saved, err := s.images.Save(ctx, data)
	if err != nil {
		if errors.Is(err, images.ErrNotAnImage) {
			return nil, domainerrors.FieldInvalid("image",
				"upload a valid image; the file was either not an image or corrupted")
		}
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.store.SetRecipeImage(ctx, userID, recipeID, saved.Key, saved.BlurHash); err != nil {
		s.removeImage(ctx, saved.Key)
		return nil, err
	}

	previous := r.ImageKey
	if previous != "" {
		s.removeImage(ctx, previous)
	}

	s.logger.Info("recipe image uploaded", "id", r.ID, "user_id", userID,
		"key", saved.Key, "replaced", previous != "")
	return s.store.GetRecipe(ctx, userID, recipeID)
}

// ImageFile is an open stored image.
type ImageFile struct {
	Body        io.ReadCloser
	ContentType string
	Key         string
}

// OpenImage opens the stored image of one of the user's recipes.
func (s *RecipeService) OpenImage(ctx context.Context, userID, recipeID string) (*ImageFile, error) {
	r, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if !r.HasImage() {
		return nil, domainerrors.NotFound("recipe has no image")
	}

	body, err := s.images.Store().Open(ctx, r.ImageKey)
	if errors.Is(err, images.ErrNotFound) {
		return nil, domainerrors.NotFound("image not found")
	}
	if err != nil {
		return nil, err
	}
	return &ImageFile{Body: body, ContentType: images.ContentTypeForKey(r.ImageKey), Key: r.ImageKey}, nil
}

func (s *RecipeService) removeImage(ctx context.Context, key string) {
	if err := s.images.Store().Delete(ctx, key); err != nil {
		s.logger.Warn("image cleanup failed", "key", key, "error", err)
	}
}
