// Package store defines the persistence port used by the services.
package store

import (
	"context"

	"github.com/recipeapp/recipe-server/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// Every label and recipe operation takes the owning user's ID and applies it
// as a query predicate, so rows owned by someone else behave exactly like
// rows that do not exist.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error

	// Tags and ingredients
	CreateLabel(ctx context.Context, label *domain.Label) error
	GetLabel(ctx context.Context, kind domain.LabelKind, userID, id string) (*domain.Label, error)
	ListLabels(ctx context.Context, kind domain.LabelKind, userID string, filter LabelFilter) ([]*domain.Label, error)
	UpdateLabel(ctx context.Context, label *domain.Label) error
	DeleteLabel(ctx context.Context, kind domain.LabelKind, userID, id string) error
	FindOrCreateLabel(ctx context.Context, kind domain.LabelKind, userID, name string) (*domain.Label, bool, error)

	// Recipes
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, assoc Associations) error
	GetRecipe(ctx context.Context, userID, id string) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, assoc Associations) error
	DeleteRecipe(ctx context.Context, userID, id string) error
	SetRecipeImage(ctx context.Context, userID, id, key, blurHash string) error
}

// Associations carries the label names to attach to a recipe, keyed by kind.
// A kind that is present replaces that association set (an empty slice clears
// it); a kind that is absent leaves the existing set untouched.
type Associations map[domain.LabelKind][]string

// LabelFilter narrows tag and ingredient listings.
type LabelFilter struct {
	// AssignedOnly keeps labels attached to at least one recipe.
	AssignedOnly bool
}

// RecipeFilter narrows recipe listings. Within a dimension IDs are OR'ed;
// across dimensions the conditions are AND'ed.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// IDs returns the filter IDs for the given kind.
func (f RecipeFilter) IDs(kind domain.LabelKind) []string {
	if kind == domain.LabelIngredient {
		return f.IngredientIDs
	}
	return f.TagIDs
}
