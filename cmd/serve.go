package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifsc/internal/server"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.checker == nil {
		return fmt.Errorf("%w: no valid [auth] users configured", shared.ErrMissingConfig)
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = int(port)
	}

	durable, db, err := r.openDurable()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := shared.WithLogger(r.logger, "component", "server")
	sessions := server.NewSessionRegistry(server.StoreDeps{
		Durable: durable,
		Source:  r.source,
		Checker: r.checker,
		Policy:  r.passwordPolicy(),
		Logger:  r.logger,
	}, cfg.SessionTTL())

	srv := server.NewServer(server.ServerOpts{
		Addr:     cfg.Addr(),
		API:      server.NewAPIHandler(sessions, logger),
		Sessions: sessions,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx)
}
