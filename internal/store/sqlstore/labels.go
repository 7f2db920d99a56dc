package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/id"
	"github.com/recipeapp/recipe-server/internal/store"
)

// labelTable names the tables backing one label kind.
type labelTable struct {
	table string // tags, ingredients
	assoc string // recipe_tags, recipe_ingredients
	fk    string // tag_id, ingredient_id
}

func tableFor(kind domain.LabelKind) labelTable {
	if kind == domain.LabelIngredient {
		return labelTable{table: "ingredients", assoc: "recipe_ingredients", fk: "ingredient_id"}
	}
	return labelTable{table: "tags", assoc: "recipe_tags", fk: "tag_id"}
}

// labelColumns is the ordered list of columns selected in label queries.
// Must match the scan order in scanLabel.
const labelColumns = `id, user_id, name, created_at, updated_at`

func scanLabel(kind domain.LabelKind, scanner interface{ Scan(dest ...any) error }) (*domain.Label, error) {
	var (
		l         = domain.Label{Kind: kind}
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&l.ID, &l.UserID, &l.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func labelNotFound(kind domain.LabelKind) *store.Error {
	return store.ErrNotFound.WithMessage(string(kind) + " not found")
}

func labelExists(kind domain.LabelKind) *store.Error {
	return store.ErrAlreadyExists.WithMessage(string(kind) + " with this name already exists")
}

// CreateLabel inserts a new tag or ingredient.
// Returns store.ErrAlreadyExists if the user already has one with that name.
func (s *Store) CreateLabel(ctx context.Context, l *domain.Label) error {
	t := tableFor(l.Kind)
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO `+t.table+` (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		l.ID,
		l.UserID,
		l.Name,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return labelExists(l.Kind)
	}
	return err
}

// GetLabel retrieves one of the user's labels by ID.
func (s *Store) GetLabel(ctx context.Context, kind domain.LabelKind, userID, labelID string) (*domain.Label, error) {
	t := tableFor(kind)
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+labelColumns+` FROM `+t.table+` WHERE id = ? AND user_id = ?`), labelID, userID)

	l, err := scanLabel(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, labelNotFound(kind)
	}
	return l, err
}

// ListLabels returns the user's labels ordered by name.
func (s *Store) ListLabels(ctx context.Context, kind domain.LabelKind, userID string, filter store.LabelFilter) ([]*domain.Label, error) {
	t := tableFor(kind)
	query := `SELECT ` + labelColumns + ` FROM ` + t.table + ` l WHERE l.user_id = ?`
	if filter.AssignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + t.assoc + ` a WHERE a.` + t.fk + ` = l.id)`
	}
	query += ` ORDER BY l.name ASC, l.id ASC`

	rows, err := s.db.QueryContext(ctx, s.q(query), userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	defer rows.Close()

	labels := []*domain.Label{}
	for rows.Next() {
		l, err := scanLabel(kind, rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// UpdateLabel renames one of the user's labels.
func (s *Store) UpdateLabel(ctx context.Context, l *domain.Label) error {
	t := tableFor(l.Kind)
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE `+t.table+` SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		l.Name,
		formatTime(l.UpdatedAt),
		l.ID,
		l.UserID,
	)
	if isUniqueViolation(err) {
		return labelExists(l.Kind)
	}
	if err != nil {
		return err
	}
	return requireAffected(res, string(l.Kind)+" not found")
}

// DeleteLabel removes one of the user's labels and detaches it from every recipe.
func (s *Store) DeleteLabel(ctx context.Context, kind domain.LabelKind, userID, labelID string) error {
	t := tableFor(kind)
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM `+t.table+` WHERE id = ? AND user_id = ?`), labelID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, string(kind)+" not found")
}

// FindOrCreateLabel returns the user's label with the given name, creating it
// if needed. The bool result is true when a new row was inserted.
func (s *Store) FindOrCreateLabel(ctx context.Context, kind domain.LabelKind, userID, name string) (*domain.Label, bool, error) {
	return s.findOrCreateLabel(ctx, s.db, kind, userID, name)
}

// findOrCreateLabel looks the name up, inserts it with ON CONFLICT DO NOTHING
// and re-reads when a concurrent writer won the insert.
func (s *Store) findOrCreateLabel(ctx context.Context, q querier, kind domain.LabelKind, userID, name string) (*domain.Label, bool, error) {
	t := tableFor(kind)
	lookup := s.q(`SELECT ` + labelColumns + ` FROM ` + t.table + ` WHERE user_id = ? AND name = ?`)

	existing, err := scanLabel(kind, q.QueryRowContext(ctx, lookup, userID, name))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find %s: %w", kind, err)
	}

	labelID, err := id.Generate(kind.IDPrefix())
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	l := &domain.Label{
		Entity: domain.Entity{ID: labelID, CreatedAt: now, UpdatedAt: now},
		Kind:   kind,
		UserID: userID,
		Name:   name,
	}

	res, err := q.ExecContext(ctx, s.q(`
		INSERT INTO `+t.table+` (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`),
		l.ID, l.UserID, l.Name, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return l, true, nil
	}

	// Another writer inserted the same name between lookup and insert.
	existing, err = scanLabel(kind, q.QueryRowContext(ctx, lookup, userID, name))
	if err != nil {
		return nil, false, fmt.Errorf("re-read %s: %w", kind, err)
	}
	return existing, false, nil
}
