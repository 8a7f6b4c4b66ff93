package repositories

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
)

// Ephemeral tier keys.
const (
	SessionKey      = "session.user"
	LastPlaylistKey = "session.last_playlist"
	LastLoginKey    = "session.last_login"
)

// EphemeralStore holds per-session values: the session snapshot, the last-accessed playlist id and the last login time.
//
// Like [DurableStore] it never surfaces errors; reads fall back to "absent".
type EphemeralStore struct {
	kv     KV
	logger *log.Logger
}

// NewEphemeralStore creates an [EphemeralStore] over kv, normally a [MemoryKV] owned by one session.
func NewEphemeralStore(kv KV, logger *log.Logger) *EphemeralStore {
	return &EphemeralStore{kv: kv, logger: logger}
}

func (e *EphemeralStore) SaveSession(s models.Session) {
	data, err := json.Marshal(s)
	if err != nil {
		e.logger.Warn("failed to encode session", "err", err)
		return
	}
	e.set(SessionKey, string(data))
}

// LoadSession returns nil when no session is stored or the stored value is malformed.
func (e *EphemeralStore) LoadSession() *models.Session {
	raw, ok := e.get(SessionKey)
	if !ok {
		return nil
	}

	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		e.logger.Warn("discarding malformed session", "err", err)
		return nil
	}
	return &s
}

func (e *EphemeralStore) SaveLastPlaylistID(id string) {
	e.set(LastPlaylistKey, id)
}

func (e *EphemeralStore) LoadLastPlaylistID() (string, bool) {
	return e.get(LastPlaylistKey)
}

func (e *EphemeralStore) ClearLastPlaylistID() {
	if err := e.kv.Remove(LastPlaylistKey); err != nil {
		e.logger.Warn("failed to clear last playlist", "err", err)
	}
}

// SaveLoginTimestamp records at as an RFC 3339 timestamp.
func (e *EphemeralStore) SaveLoginTimestamp(at time.Time) {
	e.set(LastLoginKey, at.UTC().Format(time.RFC3339Nano))
}

func (e *EphemeralStore) LoadLoginTimestamp() (time.Time, bool) {
	raw, ok := e.get(LastLoginKey)
	if !ok {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		e.logger.Warn("discarding malformed login timestamp", "value", raw, "err", err)
		return time.Time{}, false
	}
	return at, true
}

// ClearAll removes the session snapshot, the last playlist pointer and the login timestamp in one operation.
func (e *EphemeralStore) ClearAll() {
	if err := e.kv.Remove(SessionKey, LastPlaylistKey, LastLoginKey); err != nil {
		e.logger.Warn("failed to clear session data", "err", err)
	}
}

func (e *EphemeralStore) set(key, value string) {
	if err := e.kv.Set(key, value); err != nil {
		e.logger.Warn("failed to write session data", "key", key, "err", err)
	}
}

func (e *EphemeralStore) get(key string) (string, bool) {
	v, ok, err := e.kv.Get(key)
	if err != nil {
		e.logger.Warn("failed to read session data", "key", key, "err", err)
		return "", false
	}
	return v, ok
}
