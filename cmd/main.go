package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("invalid config: %v", err)
		}
		config = loaded
	} else {
		config.ApplyEnv(os.Getenv)
	}

	var db *sql.DB
	if conn, err := shared.OpenDatabase(config.Database); err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		db = conn
		defer db.Close()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
		DB:         db,
	})

	app := &cli.Command{
		Name:           "emusicvibe",
		Usage:          "Generate jazz playlist titles, palettes and cover art with Gemini",
		Version:        "0.1.0",
		DefaultCommand: "tui",
		Commands:       runner.register(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(logger, log.DebugLevel)
				runner.SetLogger(logger)
			}
			return ctx, nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", "error", err)
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}
}
