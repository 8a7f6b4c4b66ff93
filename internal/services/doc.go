// Package services implements the store's external collaborators.
//
// # Track Source
//
// [TrackSource] is the read-only contract for track metadata. [AudioDBService] implements it against
// TheAudioDB's v1 JSON API:
//   - SearchExact : GET /searchtrack.php?s={artist}&t={title}
//   - FetchPopular : GET /track-top10.php?s={artist} for each roster artist, issued concurrently,
//     reassembled in roster order, at most two per artist and ten overall
//
// A "track" value of null is treated as an empty list. Missing genres become "Unknown" and unparseable
// years become 0. Failures are logged and degrade to an empty result; FetchPopular falls back to
// [FallbackCatalog] when no artist contributes anything.
//
// Requests share an [http.Client] with a 10 second timeout and a [rate.Limiter].
//
// # Credentials
//
// [CredentialChecker] decides logins. [AllowList] checks against accounts from config, held as bcrypt hashes,
// after an artificial delay.
package services
