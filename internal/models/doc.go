// Package models defines the domain entities shared by the state store, the storage adapters and the outer surfaces.
//
//   - [Session] : the authenticated user snapshot; its ID is derived from the email
//   - [Track] : song metadata materialized from TheAudioDB or the fallback catalog
//   - [Playlist] : a named, ordered, duplicate-free sequence of tracks owned by one user
//
// Tracks are compared by ID only. Playlists are value types: every helper that changes one
// returns a copy and leaves the receiver's track slice untouched, so snapshots handed to
// subscribers are never mutated behind their back.
package models
