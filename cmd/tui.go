package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.checker == nil {
		return fmt.Errorf("%w: no valid [auth] users configured", shared.ErrMissingConfig)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := cmd.String("log-file")
	fileLogger, logFile, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	durable, db, err := r.openDurable()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := ui.Run(ctx, r.newStore(durable), r.logger); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
