// Package repositories implements the two persistence tiers behind the state store.
//
// Both tiers sit on the [KV] contract:
//   - [SQLiteKV] : namespaced rows in the kv table, used for the durable tier
//   - [MemoryKV] : a mutex-guarded map, used for the per-session ephemeral tier
//
// Adapters:
//   - [DurableStore] : the whole playlist collection as one JSON document, with a serialized read-modify-write ([DurableStore.Update])
//   - [EphemeralStore] : session snapshot, last-accessed playlist id and last login time, cleared together on logout
//
// Adapters log and swallow storage failures; a broken or empty store reads as "nothing stored".
package repositories
