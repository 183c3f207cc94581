package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/emusicvibe/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireRenderer(); err != nil {
		return err
	}

	opts := server.APIOptions{
		Engine:      r.engine,
		Generator:   r.generator,
		Credentials: r.creds,
		Keys:        r.creds,
		Renderer:    r.renderer,
		Watermark:   r.config.Export.Watermark,
		Quality:     r.config.Export.Quality,
		Logger:      r.logger,
	}
	if r.vibes != nil {
		opts.Store = r.vibes
	} else {
		r.logger.Warn("database not available, generated vibes will not be saved")
	}

	router := server.NewRouter(server.NewAPI(opts), r.logger)
	addr := net.JoinHostPort(cmd.String("host"), strconv.Itoa(cmd.Int("port")))
	srv := server.New(addr, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("E-MusicVibe API listening on http://%s\n", addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
