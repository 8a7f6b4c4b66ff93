package state

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/repositories"
	"github.com/desertthunder/spotifsc/internal/shared"
	tu "github.com/desertthunder/spotifsc/internal/testing"
)

const (
	testEmail    = "usuario@spotifsc.com"
	testPassword = "123456😀"
)

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// gatedRepository blocks LoadAll until its gate is closed. With readFirst it reads before blocking,
// so the result predates anything written while it waits. entered, if set, is signalled once LoadAll has started.
type gatedRepository struct {
	PlaylistRepository
	gate      chan struct{}
	readFirst bool
	entered   chan struct{}
}

func (g *gatedRepository) LoadAll() []models.Playlist {
	var out []models.Playlist
	if g.readFirst {
		out = g.PlaylistRepository.LoadAll()
	}
	if g.entered != nil {
		select {
		case g.entered <- struct{}{}:
		default:
		}
	}
	<-g.gate
	if !g.readFirst {
		out = g.PlaylistRepository.LoadAll()
	}
	return out
}

// assertViewMatchesDurable checks the view holds exactly owner's durable playlists, in order, with the same tracks.
func assertViewMatchesDurable(t *testing.T, f *fixture, owner string) {
	t.Helper()

	want := models.OwnedBy(f.durable.LoadAll(), owner)
	got := f.store.Snapshot().Playlists.Playlists
	if len(got) != len(want) {
		t.Fatalf("view has %d playlists, durable has %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].ID != want[i].ID || !slices.EqualFunc(got[i].Tracks, want[i].Tracks, func(a, b models.Track) bool { return a.ID == b.ID }) {
			t.Errorf("playlist %d: view %+v, durable %+v", i, got[i], want[i])
		}
	}
}

type fixture struct {
	store     *Store
	durable   *repositories.DurableStore
	ephemeral *repositories.EphemeralStore
	source    *tu.MockTrackSource
	checker   *tu.MockCredentialChecker
	clock     *fakeClock
}

func newFixture(t *testing.T, wrap ...func(PlaylistRepository) PlaylistRepository) *fixture {
	t.Helper()

	logger := shared.NewLogger(&bytes.Buffer{})
	f := &fixture{
		durable:   repositories.NewDurableStore(repositories.NewMemoryKV(), logger),
		ephemeral: repositories.NewEphemeralStore(repositories.NewMemoryKV(), logger),
		source:    &tu.MockTrackSource{},
		checker:   &tu.MockCredentialChecker{Accounts: map[string]string{testEmail: testPassword}},
		clock:     &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	var durable PlaylistRepository = f.durable
	for _, w := range wrap {
		durable = w(durable)
	}

	f.store = NewStore(StoreOpts{
		Durable:   durable,
		Ephemeral: f.ephemeral,
		Source:    f.source,
		Checker:   f.checker,
		Logger:    logger,
		Clock:     f.clock.Now,
	})
	return f
}

func (f *fixture) login(t *testing.T, email string) models.Session {
	t.Helper()
	return f.store.LoginSucceeded(models.Session{Email: email})
}

func mustWait[T any](t *testing.T, task *Task[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	return v
}

func TestStoreAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("identity is stable across casing and whitespace", func(t *testing.T) {
		f := newFixture(t)
		first := f.login(t, "Usuario@SpotifSC.com ")
		f.store.Logout()
		second := f.login(t, "usuario@spotifsc.com")

		if first.ID != second.ID {
			t.Errorf("expected same id, got %s and %s", first.ID, second.ID)
		}
		if first.ID != shared.StableUserID(testEmail) {
			t.Errorf("unexpected id %s", first.ID)
		}
	})

	t.Run("LoginSucceeded persists the session", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)

		stored := f.ephemeral.LoadSession()
		if stored == nil || stored.ID != session.ID {
			t.Fatalf("expected stored session, got %+v", stored)
		}
		at, ok := f.ephemeral.LoadLoginTimestamp()
		if !ok || !at.Equal(session.LoginAt) {
			t.Errorf("expected login timestamp %v, got %v %v", session.LoginAt, at, ok)
		}
		if got, ok := f.store.LastLogin(); !ok || !got.Equal(session.LoginAt) {
			t.Errorf("LastLogin = %v, %v", got, ok)
		}

		snap := f.store.Snapshot()
		if !snap.Auth.Authenticated || snap.Auth.Session.ID != session.ID {
			t.Errorf("unexpected auth state %+v", snap.Auth)
		}
	})

	t.Run("Logout clears every ephemeral key", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, testEmail)
		f.store.SetCurrentPlaylist(models.Playlist{ID: "p1"})

		f.store.Logout()

		if f.ephemeral.LoadSession() != nil {
			t.Error("session should be cleared")
		}
		if _, ok := f.ephemeral.LoadLastPlaylistID(); ok {
			t.Error("last playlist should be cleared")
		}
		if _, ok := f.ephemeral.LoadLoginTimestamp(); ok {
			t.Error("login timestamp should be cleared")
		}
		if snap := f.store.Snapshot(); snap.Auth.Authenticated || snap.Playlists.Current != nil {
			t.Errorf("state should be logged out: %+v", snap)
		}
	})

	t.Run("RestoreSession trusts the stored snapshot", func(t *testing.T) {
		f := newFixture(t)
		if f.store.RestoreSession() {
			t.Fatal("nothing to restore yet")
		}

		f.ephemeral.SaveSession(models.Session{ID: "usr_x", Email: "x@y.z"})
		if !f.store.RestoreSession() {
			t.Fatal("expected session to be restored")
		}
		if got := f.store.Snapshot().SessionID(); got != "usr_x" {
			t.Errorf("expected usr_x, got %s", got)
		}
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("validation errors dispatch nothing", func(t *testing.T) {
			f := newFixture(t)
			task, err := f.store.Login(ctx, "not-an-email", "123")

			var verr *shared.ValidationError
			if !errors.As(err, &verr) || task != nil {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(verr.Messages) != 3 {
				t.Errorf("expected 3 messages, got %q", verr.Messages)
			}
			if f.store.Snapshot().Auth.Pending {
				t.Error("validation failures must not start a login")
			}
		})

		t.Run("wrong password", func(t *testing.T) {
			f := newFixture(t)
			task, err := f.store.Login(ctx, testEmail, "999999😀")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = task.Wait(ctx)
			if !errors.Is(err, shared.ErrInvalidCredentials) || !errors.Is(err, shared.ErrTaskRejected) {
				t.Errorf("expected rejected invalid credentials, got %v", err)
			}

			auth := f.store.Snapshot().Auth
			if auth.Authenticated || auth.Pending || auth.Error != MsgLoginFailed {
				t.Errorf("unexpected auth state %+v", auth)
			}
		})

		t.Run("success", func(t *testing.T) {
			f := newFixture(t)
			gate := make(chan struct{})
			f.checker.Gate = gate

			task, err := f.store.Login(ctx, " USUARIO@spotifsc.com", testPassword)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !f.store.Snapshot().Auth.Pending {
				t.Error("expected pending while the check runs")
			}
			close(gate)

			session := mustWait(t, task)
			if session.ID != shared.StableUserID(testEmail) || session.Email != testEmail {
				t.Errorf("unexpected session %+v", session)
			}
			if f.ephemeral.LoadSession() == nil {
				t.Error("session should be persisted")
			}
		})

		t.Run("a direct success supersedes an in-flight login", func(t *testing.T) {
			f := newFixture(t)
			gate := make(chan struct{})
			f.checker.Gate = gate

			task, err := f.store.Login(ctx, testEmail, "999999😀")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			session := f.login(t, testEmail)
			close(gate)

			if _, err := task.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
				t.Errorf("expected ErrSuperseded, got %v", err)
			}
			auth := f.store.Snapshot().Auth
			if !auth.Authenticated || auth.Error != "" || auth.Session.ID != session.ID {
				t.Errorf("stale failure overwrote the session: %+v", auth)
			}
		})

		t.Run("logout discards an in-flight login", func(t *testing.T) {
			f := newFixture(t)
			gate := make(chan struct{})
			f.checker.Gate = gate

			task, err := f.store.Login(ctx, testEmail, testPassword)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.store.Logout()
			close(gate)

			if _, err := task.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
				t.Errorf("expected ErrSuperseded, got %v", err)
			}
			if f.store.Snapshot().Auth.Authenticated {
				t.Error("stale login must not authenticate")
			}
		})
	})
}

func TestStorePlaylists(t *testing.T) {
	ctx := context.Background()
	t1 := models.Track{ID: "t1", Title: "Imagine", Artist: "John Lennon"}

	t.Run("LoadPlaylists only returns the owner's playlists", func(t *testing.T) {
		f := newFixture(t)
		f.durable.SaveAll([]models.Playlist{
			{ID: "a", Name: "Mine", OwnerID: "usr_a"},
			{ID: "b", Name: "Theirs", OwnerID: "usr_b"},
			{ID: "c", Name: "Also mine", OwnerID: "usr_a"},
		})

		got := mustWait(t, f.store.LoadPlaylists(ctx, "usr_a"))
		for _, p := range got {
			if p.OwnerID != "usr_a" {
				t.Errorf("foreign playlist %s returned", p.ID)
			}
		}
		if len(got) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(got))
		}

		snap := f.store.Snapshot().Playlists
		if snap.Pending || len(snap.Playlists) != 2 {
			t.Errorf("unexpected view %+v", snap)
		}
	})

	t.Run("SavePlaylist round trip refreshes ModifiedAt", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)

		created := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "Road Trip", OwnerID: session.ID}))
		if created.ID == "" || created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.ModifiedAt) {
			t.Fatalf("unexpected created playlist %+v", created)
		}

		renamed := created
		renamed.Name = "Road Trip 2"
		saved := mustWait(t, f.store.SavePlaylist(ctx, renamed))
		if !saved.ModifiedAt.After(created.ModifiedAt) || !saved.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("unexpected timestamps: created %+v saved %+v", created, saved)
		}

		loaded := mustWait(t, f.store.LoadPlaylists(ctx, session.ID))
		if len(loaded) != 1 || loaded[0].Name != "Road Trip 2" || loaded[0].ModifiedAt.Before(renamed.ModifiedAt) {
			t.Errorf("unexpected loaded playlists %+v", loaded)
		}
	})

	t.Run("AddTrackToPlaylist deduplicates by id", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)
		p := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "Mix", OwnerID: session.ID}))

		if !f.store.AddTrackToPlaylist(p.ID, t1) {
			t.Fatal("first add should succeed")
		}
		if f.store.AddTrackToPlaylist(p.ID, models.Track{ID: "t1", Title: "Other"}) {
			t.Error("duplicate add should be a no-op")
		}
		if f.store.AddTrackToPlaylist("missing", t1) {
			t.Error("unknown playlist should be a no-op")
		}

		view := f.store.Snapshot().Playlists.Playlists[0]
		if len(view.Tracks) != 1 || view.Tracks[0].Title != "Imagine" {
			t.Errorf("unexpected view tracks %+v", view.Tracks)
		}
		if !view.ModifiedAt.After(p.ModifiedAt) {
			t.Error("ModifiedAt should be refreshed")
		}

		durable := f.durable.LoadAll()
		if len(durable) != 1 || len(durable[0].Tracks) != 1 {
			t.Errorf("durable copy not mirrored: %+v", durable)
		}
	})

	t.Run("RemoveTrackFromPlaylist mirrors to durable", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)
		p := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "Mix", OwnerID: session.ID}))
		f.store.AddTrackToPlaylist(p.ID, t1)
		f.store.AddTrackToPlaylist(p.ID, models.Track{ID: "t2"})

		if !f.store.RemoveTrackFromPlaylist(p.ID, "t1") {
			t.Fatal("remove should report the playlist was found")
		}

		durable := f.durable.LoadAll()
		if len(durable[0].Tracks) != 1 || durable[0].Tracks[0].ID != "t2" {
			t.Errorf("unexpected durable tracks %+v", durable[0].Tracks)
		}
	})

	t.Run("DeletePlaylist cascades the last playlist pointer", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)
		p := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "One", OwnerID: session.ID}))
		q := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "Two", OwnerID: session.ID}))

		f.store.SetCurrentPlaylist(p)
		if last, ok := f.store.LastPlaylist(); !ok || last.ID != p.ID {
			t.Fatalf("LastPlaylist = %+v, %v", last, ok)
		}

		mustWait(t, f.store.DeletePlaylist(ctx, p.ID))

		if _, ok := f.ephemeral.LoadLastPlaylistID(); ok {
			t.Error("pointer to the deleted playlist should be cleared")
		}
		snap := f.store.Snapshot().Playlists
		if snap.Current != nil || len(snap.Playlists) != 1 {
			t.Errorf("unexpected view %+v", snap)
		}
		if len(f.durable.LoadAll()) != 1 {
			t.Error("durable copy should be deleted")
		}

		f.store.SetCurrentPlaylist(q)
		if id, _ := f.ephemeral.LoadLastPlaylistID(); id != q.ID {
			t.Errorf("expected pointer %s, got %s", q.ID, id)
		}
	})

	t.Run("DeletePlaylist keeps an unrelated pointer", func(t *testing.T) {
		f := newFixture(t)
		session := f.login(t, testEmail)
		p := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "One", OwnerID: session.ID}))
		q := mustWait(t, f.store.SavePlaylist(ctx, models.Playlist{Name: "Two", OwnerID: session.ID}))

		f.store.SetCurrentPlaylist(q)
		mustWait(t, f.store.DeletePlaylist(ctx, p.ID))

		if id, ok := f.ephemeral.LoadLastPlaylistID(); !ok || id != q.ID {
			t.Errorf("expected pointer %s to survive, got %q", q.ID, id)
		}
	})

	t.Run("CreatePlaylist validates names", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.store.CreatePlaylist(ctx, "Mix"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}

		f.login(t, testEmail)
		task, err := f.store.CreatePlaylist(ctx, "  Road Trip ")
		if err != nil {
			t.Fatalf("CreatePlaylist: %v", err)
		}
		created := mustWait(t, task)
		if created.Name != "Road Trip" {
			t.Errorf("expected trimmed name, got %q", created.Name)
		}

		tc := []struct {
			name string
			want string
		}{
			{"", shared.MsgPlaylistNameRequired},
			{"x", shared.MsgPlaylistNameTooShort},
			{"ROAD TRIP", shared.MsgPlaylistNameTaken},
		}
		for _, tt := range tc {
			_, err := f.store.CreatePlaylist(ctx, tt.name)
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("CreatePlaylist(%q): expected validation error, got %v", tt.name, err)
			}
			if got := f.store.Snapshot().Playlists.ValidationError; got != tt.want {
				t.Errorf("CreatePlaylist(%q): validation error %q, want %q", tt.name, got, tt.want)
			}
		}

		mustCreate(t, f.store, "Focus")
		if got := f.store.Snapshot().Playlists.ValidationError; got != "" {
			t.Errorf("a valid attempt should clear the validation error, got %q", got)
		}
	})

	t.Run("names are unique per owner only", func(t *testing.T) {
		f := newFixture(t)
		f.durable.SaveAll([]models.Playlist{{ID: "other", Name: "Road Trip", OwnerID: "usr_someone_else"}})
		f.login(t, testEmail)

		if _, err := f.store.CreatePlaylist(ctx, "Road Trip"); err != nil {
			t.Errorf("another user's name should not conflict: %v", err)
		}
	})

	t.Run("RenamePlaylist ignores its own name", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, testEmail)
		p := mustCreate(t, f.store, "Road Trip")
		mustCreate(t, f.store, "Focus")

		task, err := f.store.RenamePlaylist(ctx, p.ID, "road trip")
		if err != nil {
			t.Fatalf("RenamePlaylist: %v", err)
		}
		renamed := mustWait(t, task)
		if renamed.Name != "road trip" {
			t.Errorf("expected case-only rename to succeed, got %q", renamed.Name)
		}

		if _, err := f.store.RenamePlaylist(ctx, p.ID, "focus"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected duplicate error, got %v", err)
		}
		if _, err := f.store.RenamePlaylist(ctx, "missing", "Anything"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("OpenPlaylist", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, testEmail)
		p := mustCreate(t, f.store, "Road Trip")

		if _, err := f.store.OpenPlaylist("missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		got, err := f.store.OpenPlaylist(p.ID)
		if err != nil || got.ID != p.ID {
			t.Fatalf("OpenPlaylist = %+v, %v", got, err)
		}
		if cur := f.store.Snapshot().Playlists.Current; cur == nil || cur.ID != p.ID {
			t.Errorf("expected current playlist %s", p.ID)
		}

		f.store.ClearCurrentPlaylist()
		if f.store.Snapshot().Playlists.Current != nil {
			t.Error("current playlist should be cleared")
		}
		if _, ok := f.store.LastPlaylist(); !ok {
			t.Error("closing a playlist keeps the last-accessed pointer")
		}
	})

	t.Run("logout discards an in-flight load", func(t *testing.T) {
		gate := make(chan struct{})
		f := newFixture(t, func(r PlaylistRepository) PlaylistRepository {
			return &gatedRepository{PlaylistRepository: r, gate: gate}
		})
		session := f.login(t, testEmail)
		f.durable.SaveAll([]models.Playlist{{ID: "p1", Name: "Mine", OwnerID: session.ID}})

		task := f.store.LoadPlaylists(ctx, session.ID)
		f.store.Logout()
		close(gate)

		if _, err := task.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
		if got := f.store.Snapshot().Playlists.Playlists; len(got) != 0 {
			t.Errorf("logged out view should stay empty, got %+v", got)
		}
	})

	t.Run("edits during a load survive it", func(t *testing.T) {
		t2 := models.Track{ID: "t2", Title: "Yesterday", Artist: "The Beatles"}
		edits := []struct {
			name string
			edit func(t *testing.T, f *fixture, a, b models.Playlist)
		}{
			{"save", func(t *testing.T, f *fixture, a, b models.Playlist) {
				mustCreate(t, f.store, "C")
			}},
			{"delete", func(t *testing.T, f *fixture, a, b models.Playlist) {
				mustWait(t, f.store.DeletePlaylist(ctx, a.ID))
			}},
			{"add track", func(t *testing.T, f *fixture, a, b models.Playlist) {
				if !f.store.AddTrackToPlaylist(b.ID, t1) {
					t.Fatal("expected track to be added")
				}
			}},
			{"remove track", func(t *testing.T, f *fixture, a, b models.Playlist) {
				if !f.store.RemoveTrackFromPlaylist(a.ID, t2.ID) {
					t.Fatal("expected track to be removed")
				}
			}},
		}

		for _, readFirst := range []bool{false, true} {
			for _, tt := range edits {
				name := tt.name + " before the read"
				if readFirst {
					name = tt.name + " after the read"
				}
				t.Run(name, func(t *testing.T) {
					gate := make(chan struct{})
					open := make(chan struct{})
					close(open)
					repo := &gatedRepository{gate: open, readFirst: readFirst, entered: make(chan struct{}, 1)}
					f := newFixture(t, func(r PlaylistRepository) PlaylistRepository {
						repo.PlaylistRepository = r
						return repo
					})
					session := f.login(t, testEmail)
					f.durable.SaveAll([]models.Playlist{
						{ID: "x", Name: "Stored", OwnerID: session.ID, Tracks: []models.Track{}},
						{ID: "y", Name: "Someone else's", OwnerID: "usr_other", Tracks: []models.Track{}},
					})
					mustWait(t, f.store.LoadPlaylists(ctx, session.ID))
					a := mustCreate(t, f.store, "A")
					b := mustCreate(t, f.store, "B")
					f.store.AddTrackToPlaylist(a.ID, t2)
					<-repo.entered

					repo.gate = gate
					task := f.store.LoadPlaylists(ctx, session.ID)
					<-repo.entered
					tt.edit(t, f, a, b)
					close(gate)

					mustWait(t, task)
					if f.store.Snapshot().Playlists.Pending {
						t.Error("pending should be cleared once everything settled")
					}
					assertViewMatchesDurable(t, f, session.ID)
				})
			}
		}
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, testEmail)
		p := mustCreate(t, f.store, "Mine")
		f.store.AddTrackToPlaylist(p.ID, t1)
		f.store.SetCurrentPlaylist(p)

		snap := f.store.Snapshot()
		snap.Playlists.Playlists[0].Name = "changed"
		snap.Playlists.Playlists[0].Tracks[0].Title = "changed"
		snap.Playlists.Current.Name = "changed"
		snap.Auth.Session.Email = "changed"

		again := f.store.Snapshot()
		if again.Playlists.Playlists[0].Name != "Mine" || again.Playlists.Playlists[0].Tracks[0].Title != t1.Title {
			t.Errorf("store view changed through a snapshot: %+v", again.Playlists.Playlists[0])
		}
		if again.Playlists.Current.Name != "Mine" || again.Auth.Session.Email != testEmail {
			t.Error("store pointers changed through a snapshot")
		}
	})

	t.Run("a newer load supersedes an older one", func(t *testing.T) {
		gate := make(chan struct{})
		f := newFixture(t, func(r PlaylistRepository) PlaylistRepository {
			return &gatedRepository{PlaylistRepository: r, gate: gate}
		})
		f.durable.SaveAll([]models.Playlist{{ID: "a", OwnerID: "usr_a"}, {ID: "b", OwnerID: "usr_b"}})

		older := f.store.LoadPlaylists(ctx, "usr_a")
		newer := f.store.LoadPlaylists(ctx, "usr_b")
		close(gate)

		got := mustWait(t, newer)
		if _, err := older.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected older load to be superseded, got %v", err)
		}
		view := f.store.Snapshot().Playlists.Playlists
		if len(got) != 1 || len(view) != 1 || view[0].ID != "b" {
			t.Errorf("expected only usr_b's playlist in view, got %+v", view)
		}
	})

	t.Run("cancelled context rejects the task", func(t *testing.T) {
		f := newFixture(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.store.LoadPlaylists(cctx, "usr_a").Wait(ctx)
		if !errors.Is(err, shared.ErrTaskRejected) {
			t.Errorf("expected ErrTaskRejected, got %v", err)
		}
		if got := f.store.Snapshot().Playlists.Error; got != MsgLoadPlaylists {
			t.Errorf("expected %q, got %q", MsgLoadPlaylists, got)
		}

		f.store.ClearPlaylistsError()
		if f.store.Snapshot().Playlists.Error != "" {
			t.Error("error should be cleared")
		}
	})
}

func mustCreate(t *testing.T, s *Store, name string) models.Playlist {
	t.Helper()
	task, err := s.CreatePlaylist(context.Background(), name)
	if err != nil {
		t.Fatalf("CreatePlaylist(%q): %v", name, err)
	}
	return mustWait(t, task)
}

func TestStoreTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchPopularTracks", func(t *testing.T) {
		f := newFixture(t)
		f.source.Popular = []models.Track{{ID: "p1"}, {ID: "p2"}}

		got := mustWait(t, f.store.FetchPopularTracks(ctx))
		if len(got) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(got))
		}
		snap := f.store.Snapshot().Tracks
		if snap.Pending() || len(snap.Popular) != 2 {
			t.Errorf("unexpected state %+v", snap)
		}
	})

	t.Run("SearchTrack clears results while pending", func(t *testing.T) {
		f := newFixture(t)
		f.source.Results = map[string][]models.Track{
			"Imagine":  {{ID: "imagine"}},
			"Hey Jude": {{ID: "jude"}},
		}
		mustWait(t, f.store.SearchTrack(ctx, "John Lennon", "Imagine"))

		release := f.source.SetGate("Hey Jude")
		task := f.store.SearchTrack(ctx, "The Beatles", "Hey Jude")

		snap := f.store.Snapshot().Tracks
		if !snap.SearchPending || len(snap.Results) != 0 {
			t.Errorf("expected pending with empty results, got %+v", snap)
		}

		release()
		got := mustWait(t, task)
		if len(got) != 1 || got[0].ID != "jude" {
			t.Errorf("unexpected results %+v", got)
		}
	})

	t.Run("stale search results are discarded", func(t *testing.T) {
		f := newFixture(t)
		f.source.Results = map[string][]models.Track{
			"Slow": {{ID: "slow"}},
			"Fast": {{ID: "fast"}},
		}
		release := f.source.SetGate("Slow")

		slow := f.store.SearchTrack(ctx, "A", "Slow")
		fast := f.store.SearchTrack(ctx, "B", "Fast")
		mustWait(t, fast)
		release()

		if _, err := slow.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
		results := f.store.Snapshot().Tracks.Results
		if len(results) != 1 || results[0].ID != "fast" {
			t.Errorf("expected latest results, got %+v", results)
		}
	})

	t.Run("ClearSearchResults discards in-flight searches", func(t *testing.T) {
		f := newFixture(t)
		f.source.Results = map[string][]models.Track{"Slow": {{ID: "slow"}}}
		release := f.source.SetGate("Slow")

		task := f.store.SearchTrack(ctx, "A", "Slow")
		f.store.ClearSearchResults()
		release()

		if _, err := task.Wait(ctx); !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
		if snap := f.store.Snapshot().Tracks; len(snap.Results) != 0 || snap.SearchPending {
			t.Errorf("unexpected state %+v", snap)
		}
	})

	t.Run("source panics become rejections", func(t *testing.T) {
		f := newFixture(t)
		f.source.PanicOn = "Boom"

		_, err := f.store.SearchTrack(ctx, "A", "Boom").Wait(ctx)
		if !errors.Is(err, shared.ErrTaskRejected) {
			t.Errorf("expected ErrTaskRejected, got %v", err)
		}
		snap := f.store.Snapshot().Tracks
		if snap.Error != MsgFetchTrack || snap.SearchPending {
			t.Errorf("unexpected state %+v", snap)
		}

		f.store.ClearTracksError()
		if f.store.Snapshot().Tracks.Error != "" {
			t.Error("error should be cleared")
		}
	})

	t.Run("current track", func(t *testing.T) {
		f := newFixture(t)
		f.store.SetCurrentTrack(models.Track{ID: "t1"})
		if cur := f.store.Snapshot().Tracks.Current; cur == nil || cur.ID != "t1" {
			t.Errorf("unexpected current track %+v", cur)
		}
		f.store.ClearCurrentTrack()
		if f.store.Snapshot().Tracks.Current != nil {
			t.Error("current track should be cleared")
		}
	})
}

func TestStoreSubscribe(t *testing.T) {
	t.Run("receives the current and latest snapshots", func(t *testing.T) {
		f := newFixture(t)
		ch, cancel := f.store.Subscribe()
		defer cancel()

		initial := <-ch
		if initial.Auth.Authenticated {
			t.Error("initial snapshot should be logged out")
		}

		f.store.BeginLogin()
		f.login(t, testEmail)

		latest := <-ch
		if !latest.Auth.Authenticated {
			t.Errorf("expected the latest snapshot, got %+v", latest.Auth)
		}
	})

	t.Run("slow subscribers never block transitions", func(t *testing.T) {
		f := newFixture(t)
		_, cancel := f.store.Subscribe()
		defer cancel()

		done := make(chan struct{})
		go func() {
			for range 100 {
				f.store.SetCurrentTrack(models.Track{ID: "t"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("transitions blocked on a subscriber")
		}
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		f := newFixture(t)
		ch, cancel := f.store.Subscribe()
		<-ch
		cancel()
		cancel()

		if _, ok := <-ch; ok {
			t.Error("channel should be closed")
		}
		f.store.BeginLogin()
	})
}
