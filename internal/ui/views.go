package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
		} else {
			m.password.Blur()
			m.email.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitLogin() tea.Cmd {
	m.formErrors = nil
	m.store.ClearAuthError()

	task, err := m.store.Login(m.ctx, m.email.Value(), m.password.Value())
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			m.formErrors = verr.Messages
		} else {
			m.formErrors = []string{err.Error()}
		}
		return nil
	}
	return runTask(m.ctx, opLogin, task)
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.store.Logout()
		m.toLogin()
		return m, nil
	case key.Matches(msg, m.keys.playlists):
		m.status = ""
		m.view = PlaylistsView
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.openSearch()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.resume):
		if p, ok := m.store.LastPlaylist(); ok {
			m.openPlaylist(p.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.add):
		if t, ok := selectedTrack(m.popularList); ok {
			m.pickFor(t)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.popularList, cmd = m.popularList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKeys(msg)
	}
	if m.confirming != nil {
		return m.handleConfirmKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.store.ClearPlaylistsError()
		m.view = HomeView
		return m, nil
	case key.Matches(msg, m.keys.create):
		m.openPrompt(promptCreate, "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.rename):
		if p, ok := selectedPlaylist(m.playlistList); ok {
			m.openPrompt(promptRename, p.Name)
			return m, textinput.Blink
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if p, ok := selectedPlaylist(m.playlistList); ok {
			m.confirming = &p
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if p, ok := selectedPlaylist(m.playlistList); ok {
			m.openPlaylist(p.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.submitPrompt()
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m *Model) submitPrompt() tea.Cmd {
	switch m.prompt {
	case promptCreate:
		task, err := m.store.CreatePlaylist(m.ctx, m.name.Value())
		if err != nil {
			return nil
		}
		return runTask(m.ctx, opCreatePlaylist, task)
	case promptRename:
		p, ok := selectedPlaylist(m.playlistList)
		if !ok {
			m.closePrompt()
			return nil
		}
		task, err := m.store.RenamePlaylist(m.ctx, p.ID, m.name.Value())
		if err != nil {
			return nil
		}
		return runTask(m.ctx, opRenamePlaylist, task)
	}
	return nil
}

func (m *Model) openPrompt(kind promptKind, value string) {
	m.prompt = kind
	m.name.SetValue(value)
	m.name.CursorEnd()
	m.name.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.name.SetValue("")
	m.name.Blur()
	m.store.ClearPlaylistsError()
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		id := m.confirming.ID
		m.confirming = nil
		return m, runTask(m.ctx, opDeletePlaylist, m.store.DeletePlaylist(m.ctx, id))
	case key.Matches(msg, m.keys.no):
		m.confirming = nil
	}
	return m, nil
}

func (m *Model) openPlaylist(id string) {
	if _, err := m.store.OpenPlaylist(id); err != nil {
		m.status = "Playlist not found"
		return
	}
	m.status = ""
	m.view = PlaylistView
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.store.ClearCurrentPlaylist()
		m.view = PlaylistsView
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.openSearch()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.remove):
		cur := m.snap.Playlists.Current
		if t, ok := selectedTrack(m.trackList); ok && cur != nil {
			m.store.RemoveTrackFromPlaylist(cur.ID, t.ID)
			m.status = fmt.Sprintf("Removed %s", t.Title)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) openSearch() {
	m.status = ""
	m.previous = m.view
	m.view = SearchView
	m.searchFocus = 0
	m.title.Blur()
	m.artist.Focus()
}

// handleSearchKeys cycles focus between the artist field, the title field and the results.
func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.store.ClearSearchResults()
		m.store.ClearTracksError()
		m.artist.Blur()
		m.title.Blur()
		m.view = m.previous
		return m, nil
	case key.Matches(msg, m.keys.tab):
		m.focusSearch((m.searchFocus + 1) % 3)
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.searchFocus == 2 {
			if t, ok := selectedTrack(m.resultList); ok {
				m.pickFor(t)
			}
			return m, nil
		}
		artist, title := strings.TrimSpace(m.artist.Value()), strings.TrimSpace(m.title.Value())
		if artist == "" || title == "" {
			m.status = "Artist and title are required"
			return m, nil
		}
		m.status = ""
		m.focusSearch(2)
		return m, runTask(m.ctx, opSearch, m.store.SearchTrack(m.ctx, artist, title))
	}

	var cmd tea.Cmd
	switch m.searchFocus {
	case 0:
		m.artist, cmd = m.artist.Update(msg)
	case 1:
		m.title, cmd = m.title.Update(msg)
	default:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusSearch(i int) {
	m.searchFocus = i
	m.artist.Blur()
	m.title.Blur()
	switch i {
	case 0:
		m.artist.Focus()
	case 1:
		m.title.Focus()
	}
}

func (m *Model) pickFor(t models.Track) {
	m.store.SetCurrentTrack(t)
	m.pending = &t
	m.status = ""
	if m.view != PickerView {
		m.pickerReturn = m.view
	}
	m.view = PickerView
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.pending = nil
		m.store.ClearCurrentTrack()
		m.view = m.pickerReturn
		return m, nil
	case key.Matches(msg, m.keys.enter):
		p, ok := selectedPlaylist(m.pickerList)
		if !ok || m.pending == nil {
			return m, nil
		}
		if m.store.AddTrackToPlaylist(p.ID, *m.pending) {
			m.status = fmt.Sprintf("Added %s to %s", m.pending.Title, p.Name)
		} else {
			m.status = fmt.Sprintf("%s is already in %s", m.pending.Title, p.Name)
		}
		m.pending = nil
		m.store.ClearCurrentTrack()
		m.view = m.pickerReturn
		return m, nil
	}

	var cmd tea.Cmd
	m.pickerList, cmd = m.pickerList.Update(msg)
	return m, cmd
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("spotifsc"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n%s\n\n", styles.label.Render("Email"), m.email.View())
	fmt.Fprintf(&b, "%s\n%s\n\n", styles.label.Render("Password"), m.password.View())

	switch {
	case m.snap.Auth.Pending:
		b.WriteString(styles.warn.Render("Checking credentials..."))
		b.WriteString("\n")
	case m.snap.Auth.Error != "":
		b.WriteString(styles.err.Render(m.snap.Auth.Error))
		b.WriteString("\n")
	}
	for _, e := range m.formErrors {
		b.WriteString(styles.err.Render("• " + e))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.enter, m.keys.forceQuit}))
	return b.String()
}

func (m *Model) renderHome() string {
	var b strings.Builder
	if s := m.snap.Auth.Session; s != nil {
		b.WriteString(styles.title.Render("Hello, " + s.Email))
		b.WriteString("\n")
	}
	if at, ok := m.store.LastLogin(); ok {
		b.WriteString(styles.help.Render("Logged in " + at.Local().Format(time.DateTime)))
		b.WriteString("\n")
	}
	if p, ok := m.store.LastPlaylist(); ok {
		fmt.Fprintf(&b, "Continue listening: %s (%d tracks)\n", styles.ok.Render(p.Name), len(p.Tracks))
	}
	b.WriteString("\n")

	switch {
	case m.snap.Tracks.PopularPending:
		b.WriteString(styles.warn.Render("Loading popular tracks..."))
	case m.snap.Tracks.Error != "":
		b.WriteString(styles.err.Render(m.snap.Tracks.Error))
	default:
		b.WriteString(m.popularList.View())
	}

	return m.withFooter(b.String(), m.keys.add, m.keys.playlists, m.keys.search, m.keys.resume, m.keys.logout, m.keys.quit)
}

func (m *Model) renderPlaylists() string {
	var b strings.Builder

	switch {
	case m.snap.Playlists.Pending && len(m.snap.Playlists.Playlists) == 0:
		b.WriteString(styles.warn.Render("Loading playlists..."))
	case len(m.snap.Playlists.Playlists) == 0:
		b.WriteString(styles.title.Render("Your playlists"))
		b.WriteString("\nNo playlists yet. Press n to create one.")
	default:
		b.WriteString(m.playlistList.View())
	}
	b.WriteString("\n")

	if m.snap.Playlists.Error != "" {
		b.WriteString(styles.err.Render(m.snap.Playlists.Error))
		b.WriteString("\n")
	}

	switch {
	case m.prompt != promptNone:
		label := "New playlist"
		if m.prompt == promptRename {
			label = "Rename playlist"
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.label.Render(label), m.name.View())
		if msg := m.snap.Playlists.ValidationError; msg != "" {
			b.WriteString(styles.err.Render(msg))
			b.WriteString("\n")
		}
		return m.withFooter(b.String(), m.keys.enter, m.keys.back)
	case m.confirming != nil:
		b.WriteString(styles.warn.Render(fmt.Sprintf("\nDelete '%s'?", m.confirming.Name)))
		b.WriteString("\n")
		return m.withFooter(b.String(), m.keys.yes, m.keys.no)
	}

	return m.withFooter(b.String(), m.keys.enter, m.keys.create, m.keys.rename, m.keys.remove, m.keys.back, m.keys.quit)
}

func (m *Model) renderPlaylist() string {
	cur := m.snap.Playlists.Current
	if cur == nil {
		return ""
	}

	var b strings.Builder
	if len(cur.Tracks) == 0 {
		b.WriteString(styles.title.Render(cur.Name))
		b.WriteString("\nThis playlist is empty. Press / to find tracks.")
	} else {
		b.WriteString(m.trackList.View())
	}
	return m.withFooter(b.String(), m.keys.remove, m.keys.search, m.keys.back, m.keys.quit)
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Search"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Artist"), m.artist.View())
	fmt.Fprintf(&b, "%s  %s\n\n", styles.label.Render("Title"), m.title.View())

	switch {
	case m.snap.Tracks.SearchPending:
		b.WriteString(styles.warn.Render("Searching..."))
	case m.snap.Tracks.Error != "":
		b.WriteString(styles.err.Render(m.snap.Tracks.Error))
	case len(m.snap.Tracks.Results) > 0:
		b.WriteString(m.resultList.View())
	}
	return m.withFooter(b.String(), m.keys.tab, m.keys.enter, m.keys.back)
}

func (m *Model) renderPicker() string {
	var b strings.Builder
	if m.pending != nil {
		b.WriteString(styles.help.Render(fmt.Sprintf("%s - %s", m.pending.Artist, m.pending.Title)))
		b.WriteString("\n")
	}
	if len(m.snap.Playlists.Playlists) == 0 {
		b.WriteString("No playlists yet. Create one from the playlists screen first.")
	} else {
		b.WriteString(m.pickerList.View())
	}
	return m.withFooter(b.String(), m.keys.enter, m.keys.back)
}

func (m *Model) withFooter(body string, bindings ...key.Binding) string {
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}
