package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/formatter"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/state"
)

const maxBodyBytes = 1 << 20

// APIHandler serves the JSON API on top of the session registry.
type APIHandler struct {
	mux      *http.ServeMux
	sessions *SessionRegistry
	logger   *log.Logger
}

type apiRoute struct {
	pattern string
	handle  http.HandlerFunc
}

// NewAPIHandler creates the handler and its routes.
func NewAPIHandler(sessions *SessionRegistry, logger *log.Logger) *APIHandler {
	h := &APIHandler{mux: http.NewServeMux(), sessions: sessions, logger: logger}
	for _, route := range h.routes() {
		h.mux.HandleFunc(route.pattern, route.handle)
	}
	return h
}

func (h *APIHandler) routes() []apiRoute {
	return []apiRoute{
		{"POST /api/login", h.login},
		{"POST /api/logout", h.logout},
		{"GET /api/session", h.session},
		{"GET /api/playlists", h.authed(h.listPlaylists)},
		{"POST /api/playlists", h.authed(h.createPlaylist)},
		{"GET /api/playlists/{id}", h.authed(h.openPlaylist)},
		{"PATCH /api/playlists/{id}", h.authed(h.renamePlaylist)},
		{"DELETE /api/playlists/{id}", h.authed(h.deletePlaylist)},
		{"POST /api/playlists/{id}/tracks", h.authed(h.addTrack)},
		{"DELETE /api/playlists/{id}/tracks/{trackID}", h.authed(h.removeTrack)},
		{"GET /api/playlists/{id}/export", h.authed(h.exportPlaylist)},
		{"GET /api/tracks/popular", h.authed(h.popularTracks)},
		{"GET /api/tracks/search", h.authed(h.searchTracks)},
	}
}

// Routes implements [Handler].
func (h *APIHandler) Routes() []string {
	routes := h.routes()
	patterns := make([]string, len(routes))
	for i, route := range routes {
		patterns[i] = route.pattern
	}
	return patterns
}

// ServeHTTP implements [http.Handler].
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type storeHandler func(http.ResponseWriter, *http.Request, *state.Store)

// authed rejects requests without a logged-in session.
func (h *APIHandler) authed(next storeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.sessions.Lookup(r)
		if !ok || !store.Snapshot().Auth.Authenticated {
			writeError(w, http.StatusUnauthorized, state.MsgNotAuthenticated)
			return
		}
		next(w, r, store)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Session      models.Session   `json:"session"`
	LastLogin    *time.Time       `json:"lastLogin,omitempty"`
	LastPlaylist *models.Playlist `json:"lastPlaylist,omitempty"`
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	store := h.sessions.LookupOrStart(w, r)
	task, err := store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	session, err := task.Wait(r.Context())
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, state.MsgLoginFailed)
		return
	case err != nil:
		writeTaskError(w, err, store.Snapshot().Auth.Error)
		return
	}

	if _, err := store.LoadPlaylists(r.Context(), session.ID).Wait(r.Context()); err != nil {
		h.logger.Warn("failed to preload playlists", "err", err)
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, LastLogin: &session.LoginAt})
}

func (h *APIHandler) logout(w http.ResponseWriter, r *http.Request) {
	if store, ok := h.sessions.Lookup(r); ok {
		store.Logout()
	}
	h.sessions.End(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) {
	store, ok := h.sessions.Lookup(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, state.MsgNotAuthenticated)
		return
	}

	snap := store.Snapshot()
	if !snap.Auth.Authenticated && !store.RestoreSession() {
		writeError(w, http.StatusUnauthorized, state.MsgNotAuthenticated)
		return
	}
	snap = store.Snapshot()

	resp := sessionResponse{Session: *snap.Auth.Session}
	if at, ok := store.LastLogin(); ok {
		resp.LastLogin = &at
	}
	if p, ok := store.LastPlaylist(); ok {
		resp.LastPlaylist = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) listPlaylists(w http.ResponseWriter, r *http.Request, store *state.Store) {
	playlists, ok := h.loadView(w, r, store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) createPlaylist(w http.ResponseWriter, r *http.Request, store *state.Store) {
	var req nameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := store.CreatePlaylist(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	p, err := task.Wait(r.Context())
	if err != nil {
		writeTaskError(w, err, store.Snapshot().Playlists.Error)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *APIHandler) openPlaylist(w http.ResponseWriter, r *http.Request, store *state.Store) {
	if _, ok := h.loadView(w, r, store); !ok {
		return
	}
	p, err := store.OpenPlaylist(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *APIHandler) renamePlaylist(w http.ResponseWriter, r *http.Request, store *state.Store) {
	var req nameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := store.RenamePlaylist(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	p, err := task.Wait(r.Context())
	if err != nil {
		writeTaskError(w, err, store.Snapshot().Playlists.Error)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *APIHandler) deletePlaylist(w http.ResponseWriter, r *http.Request, store *state.Store) {
	id := r.PathValue("id")
	if _, ok := h.findPlaylist(w, r, store, id); !ok {
		return
	}
	if _, err := store.DeletePlaylist(r.Context(), id).Wait(r.Context()); err != nil {
		writeTaskError(w, err, store.Snapshot().Playlists.Error)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) addTrack(w http.ResponseWriter, r *http.Request, store *state.Store) {
	var track models.Track
	if !decodeBody(w, r, &track) {
		return
	}
	if strings.TrimSpace(track.ID) == "" {
		writeError(w, http.StatusBadRequest, "Track id is required")
		return
	}

	id := r.PathValue("id")
	if _, ok := h.findPlaylist(w, r, store, id); !ok {
		return
	}
	if !store.AddTrackToPlaylist(id, track) {
		writeError(w, http.StatusConflict, "Track is already in the playlist")
		return
	}
	h.writeViewPlaylist(w, store, id)
}

func (h *APIHandler) removeTrack(w http.ResponseWriter, r *http.Request, store *state.Store) {
	id := r.PathValue("id")
	if _, ok := h.findPlaylist(w, r, store, id); !ok {
		return
	}
	store.RemoveTrackFromPlaylist(id, r.PathValue("trackID"))
	h.writeViewPlaylist(w, store, id)
}

func (h *APIHandler) exportPlaylist(w http.ResponseWriter, r *http.Request, store *state.Store) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(formatter.FormatJSON)
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.findPlaylist(w, r, store, r.PathValue("id"))
	if !ok {
		return
	}
	data, err := formatter.Export(p, format)
	if err != nil {
		h.logger.Error("export failed", "playlist", p.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Error exporting playlist")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, p.ID, format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *APIHandler) popularTracks(w http.ResponseWriter, r *http.Request, store *state.Store) {
	tracks, err := store.FetchPopularTracks(r.Context()).Wait(r.Context())
	if err != nil {
		writeTaskError(w, err, store.Snapshot().Tracks.Error)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tracks))
}

func (h *APIHandler) searchTracks(w http.ResponseWriter, r *http.Request, store *state.Store) {
	q := r.URL.Query()
	artist, title := strings.TrimSpace(q.Get("artist")), strings.TrimSpace(q.Get("title"))
	if artist == "" || title == "" {
		writeError(w, http.StatusBadRequest, "Artist and title are required")
		return
	}

	tracks, err := store.SearchTrack(r.Context(), artist, title).Wait(r.Context())
	if err != nil {
		writeTaskError(w, err, store.Snapshot().Tracks.Error)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tracks))
}

// loadView refreshes the session's playlist view from the durable tier.
func (h *APIHandler) loadView(w http.ResponseWriter, r *http.Request, store *state.Store) ([]models.Playlist, bool) {
	playlists, err := store.LoadPlaylists(r.Context(), store.Snapshot().SessionID()).Wait(r.Context())
	if err != nil {
		writeTaskError(w, err, store.Snapshot().Playlists.Error)
		return nil, false
	}
	return nonNil(playlists), true
}

func (h *APIHandler) findPlaylist(w http.ResponseWriter, r *http.Request, store *state.Store, id string) (models.Playlist, bool) {
	playlists, ok := h.loadView(w, r, store)
	if !ok {
		return models.Playlist{}, false
	}
	if i := models.IndexOf(playlists, id); i >= 0 {
		return playlists[i], true
	}
	writeError(w, http.StatusNotFound, state.MsgPlaylistNotFound)
	return models.Playlist{}, false
}

func (h *APIHandler) writeViewPlaylist(w http.ResponseWriter, store *state.Store, id string) {
	view := store.Snapshot().Playlists.Playlists
	if i := models.IndexOf(view, id); i >= 0 {
		writeJSON(w, http.StatusOK, view[i])
		return
	}
	writeError(w, http.StatusNotFound, state.MsgPlaylistNotFound)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeStoreError maps synchronous store errors to responses.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Messages[0], Errors: verr.Messages})
	case errors.Is(err, shared.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, state.MsgPlaylistNotFound)
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, state.MsgNotAuthenticated)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeTaskError maps a failed task to a response, using the message the store recorded.
func writeTaskError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, shared.ErrSuperseded):
		writeError(w, http.StatusConflict, "Request superseded by a newer one")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		if message == "" {
			message = "Internal server error"
		}
		writeError(w, http.StatusInternalServerError, message)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
