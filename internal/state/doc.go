// Package state implements the reactive store that backs every surface of the application.
//
// A [Store] owns one [Snapshot] made of three sub-states:
//   - [AuthState] : the logged-in session, login progress and login error
//   - [PlaylistsState] : the current user's playlists, the open playlist and playlist errors
//   - [TracksState] : popular tracks, search results and the selected track
//
// State only changes through [Reduce], a pure function of the previous snapshot and an [Action].
// Store methods are the side-effect boundary: they talk to the persistence adapters, the clock
// and the [services.TrackSource], then dispatch actions.
//
// # Concurrency
//
// Every transition runs under the store mutex, so transitions never interleave. Asynchronous
// operations return a [Task]: the work runs on its own goroutine and its terminal transition is
// applied under the mutex when it finishes. A task result is dropped, and [Task.Wait] reports
// [shared.ErrSuperseded], when:
//   - a newer request of the same kind was issued (each result stream has a generation number)
//   - the session that issued a playlist task has logged out or been replaced
//
// # Subscriptions
//
// [Store.Subscribe] delivers snapshots without ever blocking a transition. Each subscriber
// channel holds at most one pending snapshot; a slow reader skips intermediate states but always
// receives the latest one. Snapshots share memory with the store and must be treated as read-only.
package state
