package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/recipeapp/recipe-server/internal/config"
	"github.com/recipeapp/recipe-server/internal/logger"
	"github.com/recipeapp/recipe-server/internal/media/images"
)

// ProvideImageStore provides the image store for the configured backend.
func ProvideImageStore(i do.Injector) (images.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.Backend == config.StorageS3 {
		return images.NewS3Store(context.Background(), images.S3Config{
			Bucket:   cfg.Storage.S3Bucket,
			Prefix:   cfg.Storage.S3Prefix,
			Region:   cfg.Storage.S3Region,
			Endpoint: cfg.Storage.S3Endpoint,
		}, log.Logger)
	}

	fs, err := images.NewFileStore(cfg.Data.BasePath, "media")
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}
	log.Info("Local image store initialized", "path", fs.Root())
	return fs, nil
}

// ProvideImageProcessor provides the image processor for recipe photos.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	imageStore := do.MustInvoke[images.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(imageStore, "recipe", log.Logger), nil
}
