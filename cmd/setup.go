package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.openStore(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupConfig writes the embedded example configuration.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --output is required", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set telegram.token (or %s)\n", shared.EnvTelegramToken)
	r.writePlain("2. Set youtube.api_key (or %s), or provider = \"feed\"\n", shared.EnvYouTubeAPIKey)
	r.writePlain("3. Run 'ytwatch setup database' then 'ytwatch serve'\n")
	return nil
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openStore(); err != nil {
		return err
	}
	if r.db == nil {
		return fmt.Errorf("%w: no database connection", shared.ErrPersistence)
	}
	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}
