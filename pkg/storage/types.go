package storage

import "context"

// Store defines the persisted browser store as seen by the extension
// engine: the per-extension enabled flag and the chrome.storage.local
// key/value area. Implementations must be thread-safe; callers treat each
// call as atomic and never hold their own locks across calls.
type Store interface {
	// IsExtensionEnabled returns the persisted enabled flag for an
	// extension id. An extension with no persisted row is enabled:
	// installing an extension activates it until the user disables it.
	IsExtensionEnabled(ctx context.Context, id string) (bool, error)

	// SetExtensionEnabled persists the enabled flag for an extension id.
	SetExtensionEnabled(ctx context.Context, id string, enabled bool) error

	// RemoveExtensionData deletes the enabled flag and the entire
	// key/value storage area for an extension id. No-op if absent.
	RemoveExtensionData(ctx context.Context, id string) error

	// StorageGet returns the stored values for the requested keys.
	// Keys with no stored value are absent from the result.
	StorageGet(ctx context.Context, id string, keys []string) (map[string]string, error)

	// StorageSet stores one key/value pair in the extension's area.
	StorageSet(ctx context.Context, id, key, value string) error

	// StorageRemove deletes the given keys from the extension's area.
	// Missing keys are ignored.
	StorageRemove(ctx context.Context, id string, keys []string) error

	// StorageClear deletes every key in the extension's area.
	StorageClear(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	// The store must not be used after Close.
	Close() error
}
