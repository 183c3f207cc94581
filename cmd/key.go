package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/server"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// KeySet saves an API key given with --key or typed at a hidden prompt.
func (r *Runner) KeySet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.String("key")
	if key == "" {
		prompt := &credentials.TerminalPicker{In: os.Stdin, Out: os.Stderr}
		typed, err := prompt.Pick(ctx)
		if err != nil {
			return err
		}
		key = typed
	}

	if err := r.creds.SaveKey(key); err != nil {
		return err
	}
	return r.writePlain("✓ Gemini API key saved (%s)\n", credentials.FromAPIKey(key).Redacted())
}

// KeySelect runs the browser-assisted picker and reports whether a key is now usable.
func (r *Runner) KeySelect(ctx context.Context, cmd *cli.Command) error {
	ok, err := r.creds.Select(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no usable key after selection", shared.ErrMissingCredentials)
	}
	return r.writePlain("✓ Gemini API key selected\n")
}

// KeyStatus shows where the current credential comes from.
func (r *Runner) KeyStatus(ctx context.Context, cmd *cli.Command) error {
	ok, err := r.creds.HasCredential(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Engine Configuration")
	r.writePlain("Mode:   %s\n", r.config.Credentials.Mode)
	r.writePlain("Source: %s\n", r.creds.Source())
	if !ok {
		r.writePlain("Status: Setup Required\n")
		r.writePlainln("Run 'emusicvibe key set' or get a key at %s", shared.KeyPageURL)
		return nil
	}

	cred, err := r.creds.Credential(ctx)
	if err != nil {
		return err
	}
	r.writePlain("Status: Engine Connected\n")
	r.writePlain("Key:    %s\n", cred.Redacted())
	return nil
}

// KeyTest sends a minimal request with the current credential.
func (r *Runner) KeyTest(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("VERIFYING FREQUENCY...\n")
	result := server.TestConnection(ctx, r.generator, r.creds)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Message)
	}
	return r.writePlain("✓ %s\n", result.Message)
}

// KeyClear removes the saved key. A key from config or the environment stays in effect.
func (r *Runner) KeyClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.creds.Clear(); err != nil {
		return err
	}
	r.writePlain("✓ Saved key removed\n")
	if src := r.creds.Source(); src != "none" {
		r.writePlain("A key from %s is still in effect.\n", src)
	}
	return nil
}
