package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifsc/internal/state"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgTaskDone
)

// Operations reported by [MsgTaskDone].
const (
	opLogin           = "login"
	opLoadPlaylists   = "load playlists"
	opCreatePlaylist  = "create playlist"
	opRenamePlaylist  = "rename playlist"
	opDeletePlaylist  = "delete playlist"
	opFetchPopular    = "fetch popular"
	opSearch         = "search"
)

type taskResult struct {
	op  string
	err error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap state.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// taskDoneMsg is the constructor for [MsgTaskDone]
func taskDoneMsg(op string, err error) Msg {
	return Msg{kind: MsgTaskDone, data: taskResult{op: op, err: err}}
}
