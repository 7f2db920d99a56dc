package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price_cents,
	r.link, r.image_key, r.image_blurhash, r.created_at, r.updated_at`

// labelKinds is the fixed order in which association sets are written and loaded.
var labelKinds = []domain.LabelKind{domain.LabelTag, domain.LabelIngredient}

// labelChunkSize bounds the number of recipe IDs bound in one IN (...) clause.
const labelChunkSize = 500

func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var (
		r         domain.Recipe
		price     int64
		imageKey  sql.NullString
		blurHash  sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.TimeMinutes,
		&price,
		&r.Link,
		&imageKey,
		&blurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price = domain.Price(price)
	r.ImageKey = imageKey.String
	r.ImageBlurHash = blurHash.String
	r.Tags = []*domain.Label{}
	r.Ingredients = []*domain.Label{}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

var errRecipeNotFound = store.ErrNotFound.WithMessage("recipe not found")

// CreateRecipe inserts a recipe and resolves its tag and ingredient names in
// one transaction. On return r carries its attached labels.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, assoc store.Associations) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO recipes (id, user_id, title, description, time_minutes, price_cents,
				link, image_key, image_blurhash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			r.ID,
			r.UserID,
			r.Title,
			r.Description,
			r.TimeMinutes,
			int64(r.Price),
			r.Link,
			nullString(r.ImageKey),
			nullString(r.ImageBlurHash),
			formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return s.applyAssociations(ctx, tx, r, assoc)
	})
	if err != nil {
		return err
	}
	return s.attachLabels(ctx, []*domain.Recipe{r})
}

// UpdateRecipe overwrites the scalar fields of the user's recipe and replaces
// every association set present in assoc, all in one transaction.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe, assoc store.Associations) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE recipes SET title = ?, description = ?, time_minutes = ?, price_cents = ?,
				link = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`),
			r.Title,
			r.Description,
			r.TimeMinutes,
			int64(r.Price),
			r.Link,
			formatTime(r.UpdatedAt),
			r.ID,
			r.UserID,
		)
		if err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := requireAffected(res, "recipe not found"); err != nil {
			return err
		}
		return s.applyAssociations(ctx, tx, r, assoc)
	})
	if err != nil {
		return err
	}
	return s.attachLabels(ctx, []*domain.Recipe{r})
}

// applyAssociations clears and repopulates each kind present in assoc.
func (s *Store) applyAssociations(ctx context.Context, tx *sql.Tx, r *domain.Recipe, assoc store.Associations) error {
	for _, kind := range labelKinds {
		names, ok := assoc[kind]
		if !ok {
			continue
		}
		if err := s.setRecipeLabels(ctx, tx, kind, r, names); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) setRecipeLabels(ctx context.Context, tx *sql.Tx, kind domain.LabelKind, r *domain.Recipe, names []string) error {
	t := tableFor(kind)

	if _, err := tx.ExecContext(ctx,
		s.q(`DELETE FROM `+t.assoc+` WHERE recipe_id = ?`), r.ID); err != nil {
		return fmt.Errorf("clear %s: %w", t.assoc, err)
	}

	insert := s.q(`INSERT INTO ` + t.assoc + ` (recipe_id, ` + t.fk + `) VALUES (?, ?)`)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		l, created, err := s.findOrCreateLabel(ctx, tx, kind, r.UserID, name)
		if err != nil {
			return err
		}
		if created {
			s.logger.Debug("label created", "kind", kind, "id", l.ID, "user_id", r.UserID)
		}
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true

		if _, err := tx.ExecContext(ctx, insert, r.ID, l.ID); err != nil {
			return fmt.Errorf("insert %s: %w", t.assoc, err)
		}
	}
	return nil
}

// GetRecipe retrieves one of the user's recipes with its labels.
func (s *Store) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`), recipeID, userID)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachLabels(ctx, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the user's recipes, newest first. IDs within one filter
// dimension are OR'ed; dimensions are AND'ed. IN-subqueries keep each recipe
// to one row however many of its labels match.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = ?`
	args := []any{userID}

	for _, kind := range labelKinds {
		ids := filter.IDs(kind)
		if len(ids) == 0 {
			continue
		}
		t := tableFor(kind)
		query += ` AND r.id IN (SELECT a.recipe_id FROM ` + t.assoc + ` a WHERE a.` + t.fk +
			` IN (` + placeholders(len(ids)) + `))`
		args = append(args, stringArgs(ids)...)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachLabels(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// attachLabels loads both association sets for the given recipes, ordered by name.
func (s *Store) attachLabels(ctx context.Context, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Recipe, len(recipes))
	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		r.Tags = []*domain.Label{}
		r.Ingredients = []*domain.Label{}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	for _, kind := range labelKinds {
		t := tableFor(kind)
		for start := 0; start < len(ids); start += labelChunkSize {
			chunk := ids[start:min(start+labelChunkSize, len(ids))]

			rows, err := s.db.QueryContext(ctx, s.q(`
				SELECT a.recipe_id, l.id, l.user_id, l.name, l.created_at, l.updated_at
				FROM `+t.assoc+` a
				JOIN `+t.table+` l ON l.id = a.`+t.fk+`
				WHERE a.recipe_id IN (`+placeholders(len(chunk))+`)
				ORDER BY l.name ASC, l.id ASC`), stringArgs(chunk)...)
			if err != nil {
				return fmt.Errorf("load %s: %w", t.table, err)
			}

			err = func() error {
				defer rows.Close()
				for rows.Next() {
					var recipeID string
					l, err := scanLabel(kind, rowWithPrefix{rows: rows, prefix: &recipeID})
					if err != nil {
						return err
					}
					if r := byID[recipeID]; r != nil {
						r.SetLabels(kind, append(r.Labels(kind), l))
					}
				}
				return rows.Err()
			}()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// rowWithPrefix scans one leading column into prefix before handing the rest
// to a label scanner.
type rowWithPrefix struct {
	rows   *sql.Rows
	prefix *string
}

func (r rowWithPrefix) Scan(dest ...any) error {
	return r.rows.Scan(append([]any{r.prefix}, dest...)...)
}

// DeleteRecipe removes one of the user's recipes and its association rows.
// Labels are left in place.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM recipes WHERE id = ? AND user_id = ?`), recipeID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, "recipe not found")
}

// SetRecipeImage records the stored image key and its BlurHash.
// An empty key clears the image.
func (s *Store) SetRecipeImage(ctx context.Context, userID, recipeID, key, blurHash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE recipes SET image_key = ?, image_blurhash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		nullString(key),
		nullString(blurHash),
		formatTime(time.Now().UTC()),
		recipeID,
		userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "recipe not found")
}
