// Package tasks runs long playlist operations on a worker pool with real-time progress reporting.
//
// # Bulk Export
//
// [ExportEngine.BulkExport] writes every requested playlist into one output directory:
//   - playlists are resolved through a [PlaylistLookup] one at a time, paced by a [rate.Limiter]
//   - a bounded pool of workers writes each playlist with [formatter.WriteExport]
//   - a playlist that cannot be resolved or written is recorded as failed and does not stop the others
//   - an export_manifest.json summarizing every result is written last
//
// Markdown exports may download cover art, which is why dispatch is rate limited.
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent with select/default so a slow reader drops updates instead of stalling the export.
package tasks
