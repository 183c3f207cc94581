package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then initializes the database and runs migrations.
// With --rollback N it instead reverts the N newest migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if n := cmd.Int("rollback"); n != 0 {
		return r.rollback(db, config.Database.Path, n)
	}

	pending, err := shared.PendingVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}

	r.logger.Info("running database migrations", "pending", len(pending))
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}

	r.writePlain("✓ Config:   %s\n", configPath)
	r.writePlain("✓ Database: %s (%d migrations applied, %d new)\n", config.Database.Path, len(applied), len(pending))
	if config.Credentials.APIKey == "" && config.Credentials.Mode != shared.CredentialModeADC {
		r.writePlainln("Next: run 'emusicvibe key set' to save your Gemini API key.")
	}
	return nil
}

// rollback reverts the n newest migrations of the database at path.
func (r *Runner) rollback(db *sql.DB, path string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: --rollback must be positive, got %d", shared.ErrInvalidFlag, n)
	}

	for range n {
		version, err := shared.RollbackMigration(db)
		if err != nil {
			return err
		}
		r.logger.Info("rolled back migration", "version", version)
		r.writePlain("✓ Rolled back migration %04d\n", version)
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}
	r.writePlain("✓ Database: %s (%d migrations applied)\n", path, len(applied))
	return nil
}
