// Package storage provides the persisted browser store behind the
// extension engine: the per-extension enabled flag consulted at load time
// and the chrome.storage.local key/value area served through the relay.
//
// Two backends are provided. SQLiteStore is the store of record for a
// profile directory, using WAL mode and a single-writer connection pool.
// MemoryStore keeps everything in process memory for ephemeral profiles
// and tests. Both treat an extension id with no persisted row as enabled,
// so a freshly installed extension is active until the user disables it.
package storage
