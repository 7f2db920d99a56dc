package providers

import (
	"aidanwoods.dev/go-paseto"
	"github.com/samber/do/v2"

	"github.com/recipeapp/recipe-server/internal/auth"
	"github.com/recipeapp/recipe-server/internal/config"
	"github.com/recipeapp/recipe-server/internal/logger"
)

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (paseto.V4SymmetricKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath, cfg.Auth.TokenKey)
	if err != nil {
		return paseto.V4SymmetricKey{}, err
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"from_config", cfg.Auth.TokenKey != "",
	)

	return key, nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[paseto.V4SymmetricKey](i)

	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration), nil
}

// ProvideHasher provides the argon2id password hasher.
func ProvideHasher(i do.Injector) (*auth.Hasher, error) {
	return auth.NewHasher(auth.DefaultArgon2Params), nil
}
