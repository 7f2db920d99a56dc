package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/id"
	"github.com/recipeapp/recipe-server/internal/store"
)

// LabelService manages one kind of per-user label: tags or ingredients.
// Every operation is scoped to the requesting user.
type LabelService struct {
	kind   domain.LabelKind
	store  store.Store
	logger *slog.Logger
}

// NewLabelService creates a label service for kind.
// It panics on an unknown kind.
func NewLabelService(kind domain.LabelKind, store store.Store, logger *slog.Logger) *LabelService {
	if !kind.Valid() {
		panic(fmt.Sprintf("service: unknown label kind %q", kind))
	}
	return &LabelService{kind: kind, store: store, logger: logger.With("kind", string(kind))}
}

// TagService and IngredientService name the two label services for DI.
type (
	TagService        struct{ *LabelService }
	IngredientService struct{ *LabelService }
)

// NewTagService creates the tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{NewLabelService(domain.LabelTag, store, logger)}
}

// NewIngredientService creates the ingredient service.
func NewIngredientService(store store.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{NewLabelService(domain.LabelIngredient, store, logger)}
}

// Kind returns the label kind this service manages.
func (s *LabelService) Kind() domain.LabelKind {
	return s.kind
}

// List returns the user's labels ordered by name. With assignedOnly, only
// labels attached to at least one recipe are returned.
func (s *LabelService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Label, error) {
	return s.store.ListLabels(ctx, s.kind, userID, store.LabelFilter{AssignedOnly: assignedOnly})
}

// Get returns one of the user's labels.
func (s *LabelService) Get(ctx context.Context, userID, labelID string) (*domain.Label, error) {
	return s.store.GetLabel(ctx, s.kind, userID, labelID)
}

// validName normalizes and checks a label name.
func (s *LabelService) validName(raw string) (string, error) {
	name := NormalizeName(raw)
	if problem := checkName(s.kind, name); problem != "" {
		return "", domainerrors.FieldInvalid("name", problem)
	}
	return name, nil
}

// Create adds a label for the user. A duplicate name is ALREADY_EXISTS.
func (s *LabelService) Create(ctx context.Context, userID, rawName string) (*domain.Label, error) {
	name, err := s.validName(rawName)
	if err != nil {
		return nil, err
	}

	labelID, err := id.Generate(s.kind.IDPrefix())
	if err != nil {
		return nil, fmt.Errorf("generate %s id: %w", s.kind, err)
	}

	l := &domain.Label{
		Entity: domain.Entity{ID: labelID},
		Kind:   s.kind,
		UserID: userID,
		Name:   name,
	}
	l.InitTimestamps()

	if err := s.store.CreateLabel(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("label created", "id", l.ID, "user_id", userID)
	return l, nil
}

// Update renames one of the user's labels. A nil name leaves it unchanged.
func (s *LabelService) Update(ctx context.Context, userID, labelID string, rawName *string) (*domain.Label, error) {
	l, err := s.store.GetLabel(ctx, s.kind, userID, labelID)
	if err != nil {
		return nil, err
	}
	if rawName == nil {
		return l, nil
	}

	name, err := s.validName(*rawName)
	if err != nil {
		return nil, err
	}
	if name == l.Name {
		return l, nil
	}

	l.Name = name
	l.Touch()
	if err := s.store.UpdateLabel(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("label renamed", "id", l.ID, "user_id", userID)
	return l, nil
}

// Delete removes one of the user's labels; recipes simply lose it.
func (s *LabelService) Delete(ctx context.Context, userID, labelID string) error {
	if err := s.store.DeleteLabel(ctx, s.kind, userID, labelID); err != nil {
		return err
	}
	s.logger.Info("label deleted", "id", labelID, "user_id", userID)
	return nil
}
