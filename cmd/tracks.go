package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/urfave/cli/v3"
)

// TracksSearch runs an exact artist/title lookup.
func (r *Runner) TracksSearch(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.String("artist"))
	title := strings.TrimSpace(cmd.String("title"))
	if artist == "" || title == "" {
		return fmt.Errorf("%w: --artist and --title must not be blank", shared.ErrMissingArgument)
	}

	tracks := r.source.SearchExact(ctx, artist, title)
	if cmd.Bool("json") {
		return r.writeJSON(nonNil(tracks), true)
	}

	r.writePlainHeader(fmt.Sprintf("Results for %s - %s", artist, title))
	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}
	return r.writeTracks(tracks)
}

// TracksPopular lists the popular selection, which falls back to a built-in catalog.
func (r *Runner) TracksPopular(ctx context.Context, cmd *cli.Command) error {
	tracks := r.source.FetchPopular(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(nonNil(tracks), true)
	}

	r.writePlainHeader("Popular tracks")
	return r.writeTracks(tracks)
}

func (r *Runner) writeTracks(tracks []models.Track) error {
	for i, t := range tracks {
		year := "-"
		if t.Year > 0 {
			year = fmt.Sprint(t.Year)
		}
		if err := r.writePlain("%2d. %s - %s [%s, %s] (%s)\n", i+1, t.Artist, t.Title, t.Genre, year, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
