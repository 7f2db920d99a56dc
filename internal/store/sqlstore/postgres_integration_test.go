//go:build integration

package sqlstore

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/store"
)

// newPostgresStore starts a disposable PostgreSQL container and opens a store on it.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("recipes"),
		postgres.WithUsername("recipes"),
		postgres.WithPassword("recipes"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn}, logger)
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgres_RecipeLifecycle(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "pg@EXAMPLE.com")

	r := makeTestRecipe(u.ID, "Borscht")
	err := s.CreateRecipe(ctx, r, store.Associations{
		domain.LabelTag:        {"Soup", "Soup"},
		domain.LabelIngredient: {"Beet"},
	})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if len(r.Tags) != 1 {
		t.Fatalf("expected one tag, got %d", len(r.Tags))
	}

	list, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{TagIDs: []string{r.Tags[0].ID}})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 recipe, got %d", len(list))
	}

	if err := s.CreateLabel(ctx, makeTestLabel(domain.LabelTag, u.ID, "Soup")); !store.IsAlreadyExists(err) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetRecipe(ctx, u.ID, r.ID); !store.IsNotFound(err) {
		t.Errorf("expected cascade delete, got %v", err)
	}
}

func TestPostgres_ConcurrentReconciliation(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "race@example.com")

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := makeTestRecipe(u.ID, "Racer")
			errs[i] = s.CreateRecipe(ctx, r, store.Associations{domain.LabelIngredient: {"Garlic"}})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}

	labels, err := s.ListLabels(ctx, domain.LabelIngredient, u.ID, store.LabelFilter{AssignedOnly: true})
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(labels) != 1 {
		t.Errorf("expected exactly one Garlic row, got %d", len(labels))
	}
}
