package tasks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// PlaylistLookup resolves a playlist id for export.
type PlaylistLookup interface {
	Find(ctx context.Context, id string) (models.Playlist, error)
}

// Playlists is a [PlaylistLookup] over an already loaded set, such as one user's stored playlists.
type Playlists []models.Playlist

// Find returns the playlist with the given id or [shared.ErrPlaylistNotFound].
func (ps Playlists) Find(_ context.Context, id string) (models.Playlist, error) {
	if i := models.IndexOf(ps, id); i >= 0 {
		return ps[i].Clone(), nil
	}
	return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
}

// IDs lists the playlist ids in order.
func (ps Playlists) IDs() []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

// ExportEngine runs bulk exports.
type ExportEngine struct {
	client *http.Client
	logger *log.Logger
}

// NewExportEngine creates an engine. client downloads Markdown cover art and may be nil to skip it.
func NewExportEngine(client *http.Client, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportEngine{client: client, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
