package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/state"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	HomeView
	PlaylistsView
	PlaylistView
	SearchView
	PickerView
)

type promptKind int

const (
	promptNone promptKind = iota
	promptCreate
	promptRename
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	store  *state.Store
	logger *log.Logger
	snaps  <-chan state.Snapshot
	cancel func()
	snap   state.Snapshot

	view         ViewState
	previous     ViewState
	pickerReturn ViewState
	width        int
	height       int

	email      textinput.Model
	password   textinput.Model
	formErrors []string

	popularList  list.Model
	playlistList list.Model
	trackList    list.Model
	resultList   list.Model
	pickerList   list.Model

	artist      textinput.Model
	title       textinput.Model
	searchFocus int

	prompt     promptKind
	name       textinput.Model
	confirming *models.Playlist
	pending    *models.Track
	status     string

	help help.Model
	keys keyMap
}

// NewModel creates a TUI bound to store. A session left in the store's ephemeral tier is resumed.
func NewModel(ctx context.Context, store *state.Store, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &Model{
		ctx:          ctx,
		store:        store,
		logger:       logger,
		view:         LoginView,
		email:        newInput("email", false),
		password:     newInput("password", true),
		artist:       newInput("artist", false),
		title:        newInput("title", false),
		name:         newInput("playlist name", false),
		popularList:  newList("Popular tracks"),
		playlistList: newList("Your playlists"),
		trackList:    newList("Tracks"),
		resultList:   newList("Results"),
		pickerList:   newList("Add to playlist"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.email.Focus()

	if store.RestoreSession() {
		m.view = HomeView
	}
	m.snaps, m.cancel = store.Subscribe()
	return m
}

// Close ends the store subscription.
func (m *Model) Close() {
	m.cancel()
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

// Init starts listening for snapshots and, for a resumed session, loads the home screen.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForSnapshot(), textinput.Blink}
	if m.view == HomeView {
		cmds = append(cmds, m.loadHome())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range m.lists() {
			l.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgSnapshot:
			m.applySnapshot(msg.data.(state.Snapshot))
			return m, m.waitForSnapshot()
		case MsgTaskDone:
			return m.handleTaskDone(msg.data.(taskResult))
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case HomeView:
			return m.handleHomeKeys(msg)
		case PlaylistsView:
			return m.handlePlaylistsKeys(msg)
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case PickerView:
			return m.handlePickerKeys(msg)
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case HomeView:
		return m.renderHome()
	case PlaylistsView:
		return m.renderPlaylists()
	case PlaylistView:
		return m.renderPlaylist()
	case SearchView:
		return m.renderSearch()
	case PickerView:
		return m.renderPicker()
	default:
		return ""
	}
}

func (m *Model) lists() []*list.Model {
	return []*list.Model{&m.popularList, &m.playlistList, &m.trackList, &m.resultList, &m.pickerList}
}

// applySnapshot copies the store's state into the lists.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snap = snap

	m.popularList.SetItems(trackItems(snap.Tracks.Popular))
	m.playlistList.SetItems(playlistItems(snap.Playlists.Playlists))
	m.pickerList.SetItems(playlistItems(snap.Playlists.Playlists))
	m.resultList.SetItems(trackItems(snap.Tracks.Results))

	if cur := snap.Playlists.Current; cur != nil {
		m.trackList.Title = cur.Name
		m.trackList.SetItems(trackItems(cur.Tracks))
	} else if m.view == PlaylistView {
		m.view = PlaylistsView
	}

	if !snap.Auth.Authenticated && m.view != LoginView {
		m.toLogin()
	}
}

func (m *Model) handleTaskDone(res taskResult) (tea.Model, tea.Cmd) {
	if res.err != nil && !errors.Is(res.err, shared.ErrSuperseded) {
		m.logger.Debug("task failed", "op", res.op, "err", res.err)
	}

	switch res.op {
	case opLogin:
		if res.err == nil {
			m.password.SetValue("")
			m.view = HomeView
			return m, m.loadHome()
		}
	case opCreatePlaylist, opRenamePlaylist:
		if res.err == nil {
			m.closePrompt()
		}
	}
	return m, nil
}

func (m *Model) toLogin() {
	m.view = LoginView
	m.prompt = promptNone
	m.confirming = nil
	m.pending = nil
	m.status = ""
	m.formErrors = nil
	m.password.SetValue("")
	m.password.Blur()
	m.email.Focus()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.snaps
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// runTask waits for task off the update loop and reports the outcome as [MsgTaskDone].
func runTask[T any](ctx context.Context, op string, task *state.Task[T]) tea.Cmd {
	return func() tea.Msg {
		_, err := task.Wait(ctx)
		return taskDoneMsg(op, err)
	}
}

func (m *Model) loadHome() tea.Cmd {
	return tea.Batch(
		runTask(m.ctx, opLoadPlaylists, m.store.LoadPlaylists(m.ctx, m.store.Snapshot().SessionID())),
		runTask(m.ctx, opFetchPopular, m.store.FetchPopularTracks(m.ctx)),
	)
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, store *state.Store, logger *log.Logger) error {
	m := NewModel(ctx, store, logger)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
