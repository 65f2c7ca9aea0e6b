// Package registry owns the in-memory collection of loaded extensions and
// their lifecycle: full rescans of the extensions root, enable/disable
// flips, and removal.
//
// # Lifecycle
//
// LoadAll is the only way extensions enter the registry. It replaces the
// entire collection with the current on-disk state (full rescan, never an
// incremental diff) and seeds each extension's enabled flag from the
// persisted store. From then on the in-memory flag is authoritative for
// matching until the next SetEnabled or LoadAll.
//
// SetEnabled writes the persisted store first, then flips the in-memory
// flag if the extension is loaded. RemoveExtension evicts the entry,
// best-effort deletes its directory, and always clears its persisted data;
// filesystem failures never roll the removal back.
//
// # Concurrency
//
// The registry is a single-writer/multi-reader structure guarded by an
// RWMutex. ContentScriptsForURL and the accessors run concurrently with
// each other; the lifecycle operations serialize against everything.
//
// # Rescan triggers
//
// Three components drive rescans: the embedding shell at startup or on
// explicit install events, the fsnotify Watcher after debounced on-disk
// changes, and the optional cron Scheduler. All three call LoadAll; a
// rescan is never on a navigation's critical path.
package registry
