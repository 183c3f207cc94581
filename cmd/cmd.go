package main

import (
	"github.com/desertthunder/emusicvibe/internal/formatter"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/urfave/cli/v3"
)

// coverFlags are shared by every command that writes a cover.
func coverFlags(r *Runner) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "title",
			Usage: "Title drawn on the cover (default: first suggestion)",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"o"},
			Usage:   "Directory the cover is written to",
			Value:   r.config.Export.Dir,
		},
		&cli.BoolFlag{
			Name:  "watermark",
			Usage: "Draw the AI GENERATED mark",
			Value: r.config.Export.Watermark,
		},
		&cli.IntFlag{
			Name:  "quality",
			Usage: "JPEG quality (1-100)",
			Value: r.config.Export.Quality,
		},
		&cli.BoolFlag{
			Name:  "sidecar",
			Usage: "Write JSON metadata next to the cover",
		},
	}
}

// generateCommand runs one generation without the interactive wizard.
func generateCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "destination",
			Aliases:  []string{"d"},
			Usage:    "Destination id, label or free text",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "view",
			Aliases:  []string{"v"},
			Usage:    "View id, label or free text",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "mood",
			Aliases:  []string{"m"},
			Usage:    "Mood id or label",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "aspect",
			Aliases: []string{"a"},
			Usage:   "Aspect ratio: 16:9, 1:1 or 9:16",
			Value:   string(models.DefaultAspectRatio),
		},
		&cli.BoolFlag{
			Name:    "export",
			Aliases: []string{"x"},
			Usage:   "Export the cover after generating",
		},
		&cli.BoolFlag{
			Name:  "no-save",
			Usage: "Do not record the vibe in history",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON",
		},
	}

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate titles, a palette and a thumbnail for one selection",
		Flags:   append(flags, coverFlags(r)...),
		Action:  r.Generate,
	}
}

// batchCommand generates covers for every selection in a TOML file.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Generate and export covers for a file of selections",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: emusicvibe_batch_{epoch})",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent generations (1-10)",
				Value:   2,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Generations started per second",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "watermark",
				Usage: "Draw the AI GENERATED mark",
				Value: r.config.Export.Watermark,
			},
			&cli.IntFlag{
				Name:  "quality",
				Usage: "JPEG quality (1-100)",
				Value: r.config.Export.Quality,
			},
			&cli.BoolFlag{
				Name:  "sidecar",
				Usage: "Write JSON metadata next to each cover",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the batch summary as JSON",
			},
		},
		Action: r.Batch,
	}
}

// exportCommand re-renders a saved vibe.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the cover of a saved vibe",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
		},
		Flags:  coverFlags(r),
		Action: r.Export,
	}
}

// historyCommand manages saved vibes.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "Browse and manage generated vibes",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved vibes, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mood", Usage: "Filter by mood"},
					&cli.StringFlag{Name: "destination", Usage: "Filter by destination"},
					&cli.StringFlag{Name: "view", Usage: "Filter by view"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match the selected title"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum rows", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one vibe by sequence number or id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "export",
				Usage: "Write the history as CSV, Markdown or JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or json",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete one vibe by sequence number or id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// keyCommand manages the Gemini API key.
func keyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage the Gemini API key",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Save an API key (prompts with hidden input when --key is omitted)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "API key to save"},
				},
				Action: r.KeySet,
			},
			{
				Name:   "select",
				Usage:  "Open the key page in a browser and paste the key",
				Action: r.KeySelect,
			},
			{
				Name:   "status",
				Usage:  "Show where the current key comes from",
				Action: r.KeyStatus,
			},
			{
				Name:   "test",
				Usage:  "Send a minimal request with the current key",
				Action: r.KeyTest,
			},
			{
				Name:   "clear",
				Usage:  "Remove the saved key",
				Action: r.KeyClear,
			},
		},
	}
}

// serveCommand runs the local HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host",
				Value: r.config.Server.Host,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port",
				Value:   r.config.Server.Port,
			},
		},
		Action: r.Serve,
	}
}

// setupCommand writes a config file and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   configPath,
			},
			&cli.IntFlag{
				Name:  "rollback",
				Usage: "Revert the N newest database migrations instead of applying",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for the interactive wizard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive wizard (default)",
		Action:  r.TUI,
	}
}
