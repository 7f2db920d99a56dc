package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/recipeapp/recipe-server/internal/config"
	"github.com/recipeapp/recipe-server/internal/logger"
	"github.com/recipeapp/recipe-server/internal/store"
	"github.com/recipeapp/recipe-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore waits for the configured database, then opens it and applies the schema.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.WaitTimeout)
	defer cancel()

	db, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", db.Dialect())
	return &StoreHandle{Store: db}, nil
}

// OpenStore waits for the database and opens the store.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sqlstore.Store, error) {
	if err := WaitForDatabase(ctx, cfg, log); err != nil {
		return nil, err
	}
	return sqlstore.Open(ctx, storeConfig(cfg), log.Logger)
}

// WaitForDatabase retries the connection until the database answers or ctx ends.
func WaitForDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pinger, err := sqlstore.Dial(storeConfig(cfg), log.Logger)
	if err != nil {
		return err
	}
	defer pinger.Close()

	if err := store.WaitFor(ctx, pinger, dbPingInterval, log.Logger); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}

func storeConfig(cfg *config.Config) sqlstore.Config {
	return sqlstore.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}
}
