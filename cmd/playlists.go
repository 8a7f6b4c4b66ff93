package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifsc/internal/formatter"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the stored playlists of the user identified by --email.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	owned, err := r.ownedPlaylists(cmd.String("email"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(nonNil(owned), true)
	}

	r.writePlainHeader(fmt.Sprintf("Playlists of %s", shared.NormalizeEmail(cmd.String("email"))))
	if len(owned) == 0 {
		return r.writePlain("No playlists\n")
	}
	for _, p := range owned {
		if err := r.writePlain("%s  %-30s %3d tracks  modified %s\n",
			p.ID, p.Name, len(p.Tracks), p.ModifiedAt.Local().Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}
	return nil
}

// PlaylistsExport writes one stored playlist in the requested format.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	owned, err := r.ownedPlaylists(cmd.String("email"))
	if err != nil {
		return err
	}
	i := models.IndexOf(owned, cmd.String("id"))
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, cmd.String("id"))
	}
	p := owned[i]

	if cmd.String("output") == "-" {
		data, err := formatter.Export(p, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	result, err := formatter.WriteExport(p, format, formatter.WriteOpts{
		Path:   cmd.String("output"),
		Client: r.httpClient,
		Logger: r.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to export playlist: %w", err)
	}

	r.logger.Info("playlist exported", "playlist", p.ID, "format", format)
	for _, f := range result.Files {
		if err := r.writePlain("✓ %s\n", f); err != nil {
			return err
		}
	}
	return nil
}

// PlaylistsExportAll exports all of a user's playlists concurrently, printing progress as it goes.
func (r *Runner) PlaylistsExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	owned, err := r.ownedPlaylists(cmd.String("email"))
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return r.writePlain("No playlists to export\n")
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	engine := tasks.NewExportEngine(r.httpClient, r.logger)
	playlists := tasks.Playlists(owned)
	result, err := engine.BulkExport(ctx, progress, playlists, playlists.IDs(), tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}

	r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		return fmt.Errorf("%d playlists failed to export, see %s", result.FailedExports, result.ManifestPath)
	}
	return nil
}

func (r *Runner) ownedPlaylists(email string) ([]models.Playlist, error) {
	if shared.NormalizeEmail(email) == "" {
		return nil, fmt.Errorf("%w: --email", shared.ErrMissingArgument)
	}

	durable, db, err := r.openDurable()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return models.OwnedBy(durable.LoadAll(), shared.StableUserID(email)), nil
}
