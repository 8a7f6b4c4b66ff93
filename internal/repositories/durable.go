package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
)

// PlaylistsKey holds the JSON array of every playlist of every user on this profile.
const PlaylistsKey = "playlists"

// DurableNamespace is the kv namespace of the durable tier.
const DurableNamespace = "durable"

// DurableStore persists the playlist collection as a single document.
//
// It does not partition by owner: callers filter. Reads never fail (absent or malformed data reads as empty)
// and every failure is logged here.
type DurableStore struct {
	kv     KV
	logger *log.Logger
	mu     sync.Mutex
}

// NewDurableStore creates a [DurableStore] over kv.
func NewDurableStore(kv KV, logger *log.Logger) *DurableStore {
	return &DurableStore{kv: kv, logger: logger}
}

// NewSQLiteDurableStore creates a [DurableStore] in the durable namespace of db.
func NewSQLiteDurableStore(db *sql.DB, logger *log.Logger) *DurableStore {
	return NewDurableStore(NewSQLiteKV(db, DurableNamespace), logger)
}

// LoadAll returns every stored playlist, or an empty slice when nothing usable is stored.
func (d *DurableStore) LoadAll() []models.Playlist {
	raw, found, err := d.kv.Get(PlaylistsKey)
	if err != nil {
		d.logger.Warn("failed to read playlists", "err", err)
		return []models.Playlist{}
	}
	if !found {
		return []models.Playlist{}
	}
	return d.decode(raw)
}

// SaveAll replaces the stored collection. Failures are logged and otherwise ignored.
func (d *DurableStore) SaveAll(playlists []models.Playlist) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := encodePlaylists(playlists)
	if err != nil {
		d.logger.Warn("failed to encode playlists", "err", err)
		return
	}
	if err := d.kv.Set(PlaylistsKey, data); err != nil {
		d.logger.Warn("failed to write playlists", "err", err)
	}
}

// Update applies fn to the stored collection and writes the result back as one serialized step.
//
// Concurrent Update calls never lose each other's writes. The error is logged before it is returned.
func (d *DurableStore) Update(fn func([]models.Playlist) []models.Playlist) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.kv.Update(PlaylistsKey, func(current string, found bool) (string, error) {
		all := []models.Playlist{}
		if found {
			all = d.decode(current)
		}
		return encodePlaylists(fn(all))
	})
	if err != nil {
		d.logger.Warn("failed to update playlists", "err", err)
		return fmt.Errorf("failed to update playlists: %w", err)
	}
	return nil
}

func (d *DurableStore) decode(raw string) []models.Playlist {
	var playlists []models.Playlist
	if err := json.Unmarshal([]byte(raw), &playlists); err != nil {
		d.logger.Warn("discarding malformed playlist data", "err", err)
		return []models.Playlist{}
	}
	if playlists == nil {
		return []models.Playlist{}
	}
	return playlists
}

func encodePlaylists(playlists []models.Playlist) (string, error) {
	out := make([]models.Playlist, len(playlists))
	for i, p := range playlists {
		if p.Tracks == nil {
			p.Tracks = []models.Track{}
		}
		out[i] = p
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
