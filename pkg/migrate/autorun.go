package migrate

import (
	"context"
	"fmt"

	"github.com/oliverbray/shopsmart-backend/pkg/config"
	"github.com/oliverbray/shopsmart-backend/pkg/db"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
)

// MaybeRun executes pending migrations at boot when the feature flag is
// enabled. The local store upgrades itself the first time a new binary runs,
// the same way the reference database versioned its collections.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver, "dir": DefaultDir})
	logg.Info(ctx, "running goose migrations")

	if err := Run(ctx, sqlDB, cfg.DB.Driver, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
