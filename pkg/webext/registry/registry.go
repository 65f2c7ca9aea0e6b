package registry

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/manifest"
	"veil-hq/veil/pkg/webext/matcher"
)

// Match pairs an extension with one of its content-script rules that
// matched a navigation URL.
type Match struct {
	Extension *manifest.Extension
	Script    *manifest.ContentScript
}

// Registry is the in-memory collection of loaded extensions. It is the
// sole owner of extension lifecycle state: LoadAll replaces the whole
// collection, SetEnabled flips flags, RemoveExtension evicts entries.
//
// Registry is thread-safe with single-writer/multi-reader semantics:
// LoadAll, SetEnabled, and RemoveExtension take the write lock; URL
// matching and all accessors take the read lock and may run concurrently.
type Registry struct {
	mu sync.RWMutex

	root    string
	exts    map[string]*manifest.Extension
	order   []string
	version time.Time

	loader  *manifest.Loader
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewRegistry creates an empty registry over the given extensions root.
// The store seeds the enabled flag at load time and receives flag writes;
// collector may be nil.
func NewRegistry(root string, loader *manifest.Loader, store storage.Store, logger *slog.Logger, collector *metrics.Collector) *Registry {
	if loader == nil {
		loader = manifest.NewLoader(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		root:    root,
		exts:    make(map[string]*manifest.Extension),
		loader:  loader,
		store:   store,
		logger:  logger.With("component", "webext.registry"),
		metrics: collector,
	}
}

// LoadAll performs a full rescan of the extensions root, replacing the
// entire in-memory collection. The enabled flag of each extension is
// seeded from the persisted store. An unreadable root empties the registry
// and is returned for the caller to log; it is never fatal.
//
// trigger labels the rescan cause in logs and metrics (startup, watcher,
// schedule, manual).
func (r *Registry) LoadAll(ctx context.Context, trigger string) error {
	exts, skipped, err := r.loader.LoadAll(r.root)
	if err != nil {
		r.mu.Lock()
		r.exts = make(map[string]*manifest.Extension)
		r.order = nil
		r.version = time.Now()
		r.mu.Unlock()

		r.logger.Warn("extensions directory unreadable, registry emptied",
			"root", r.root,
			"error", err,
		)
		r.metrics.RecordRescan(trigger, 0, 0, skipped)
		return err
	}

	enabledCount := 0
	for _, ext := range exts {
		enabled, err := r.store.IsExtensionEnabled(ctx, ext.ID)
		if err != nil {
			r.logger.Warn("could not read enabled flag, assuming enabled",
				"id", ext.ID,
				"error", err,
			)
			enabled = true
		}
		ext.Enabled = enabled
		if enabled {
			enabledCount++
		}

		r.logger.Info("loaded extension",
			"id", ext.ID,
			"name", ext.Manifest.Name,
			"version", ext.Manifest.Version,
			"enabled", enabled,
		)
	}

	newExts := make(map[string]*manifest.Extension, len(exts))
	newOrder := make([]string, 0, len(exts))
	for _, ext := range exts {
		newExts[ext.ID] = ext
		newOrder = append(newOrder, ext.ID)
	}

	r.mu.Lock()
	r.exts = newExts
	r.order = newOrder
	r.version = time.Now()
	r.mu.Unlock()

	r.logger.Info("extension rescan complete",
		"trigger", trigger,
		"loaded", len(exts),
		"enabled", enabledCount,
		"skipped", skipped,
	)
	r.metrics.RecordRescan(trigger, len(exts), enabledCount, skipped)
	return nil
}

// Get returns the extension with the given id, if loaded.
func (r *Registry) Get(id string) (*manifest.Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext, ok := r.exts[id]
	return ext, ok
}

// Extensions returns the loaded extensions in load order. The slice is a
// copy; the pointed-to extensions are shared and must not be mutated by
// callers.
func (r *Registry) Extensions() []*manifest.Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]*manifest.Extension, 0, len(r.order))
	for _, id := range r.order {
		exts = append(exts, r.exts[id])
	}
	return exts
}

// Count returns the number of loaded extensions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.exts)
}

// EnabledCount returns the number of currently enabled extensions.
func (r *Registry) EnabledCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.enabledCountLocked()
}

// enabledCountLocked must be called with at least the read lock held.
func (r *Registry) enabledCountLocked() int {
	count := 0
	for _, ext := range r.exts {
		if ext.Enabled {
			count++
		}
	}
	return count
}

// ContentScriptsForURL returns the (extension, rule) pairs whose match
// patterns apply to the URL, considering enabled extensions only.
// Extensions are visited in load order and each extension's rules in
// declaration order; within a rule, the first matching pattern settles the
// rule and no further patterns are checked. A pattern that fails to parse
// is treated as non-matching without affecting its siblings.
func (r *Registry) ContentScriptsForURL(u *url.URL) []Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Match
	for _, id := range r.order {
		ext := r.exts[id]
		if !ext.Enabled {
			continue
		}
		for i := range ext.Manifest.ContentScripts {
			cs := &ext.Manifest.ContentScripts[i]
			for _, patternStr := range cs.Matches {
				p := matcher.Parse(patternStr)
				if p == nil {
					continue
				}
				if p.MatchesURL(u) {
					result = append(result, Match{Extension: ext, Script: cs})
					break
				}
			}
		}
	}
	return result
}

// SetEnabled persists the new flag to the store first, then updates the
// in-memory flag if the extension is currently loaded (a no-op otherwise).
// The in-memory flip happens even when the store write fails, so the
// user-visible toggle always takes effect for the running session; the
// store error is returned for logging.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) error {
	storeErr := r.store.SetExtensionEnabled(ctx, id, enabled)
	if storeErr != nil {
		r.logger.Error("could not persist enabled flag",
			"id", id,
			"enabled", enabled,
			"error", storeErr,
		)
	}

	r.mu.Lock()
	if ext, ok := r.exts[id]; ok {
		ext.Enabled = enabled
	}
	enabledCount := r.enabledCountLocked()
	r.mu.Unlock()

	r.metrics.SetEnabledCount(enabledCount)
	return storeErr
}

// RemoveExtension evicts the extension from the registry, best-effort
// deletes its directory, and unconditionally clears its persisted data.
// Filesystem failures are logged and never abort the removal.
func (r *Registry) RemoveExtension(ctx context.Context, id string) error {
	r.mu.Lock()
	ext, ok := r.exts[id]
	if ok {
		delete(r.exts, id)
		order := r.order[:0]
		for _, oid := range r.order {
			if oid != id {
				order = append(order, oid)
			}
		}
		r.order = order
	}
	loaded := len(r.exts)
	enabledCount := r.enabledCountLocked()
	r.mu.Unlock()

	if ok {
		if err := os.RemoveAll(ext.BasePath); err != nil {
			r.logger.Error("could not remove extension directory",
				"id", id,
				"path", ext.BasePath,
				"error", err,
			)
		}
	}

	r.metrics.SetLoadedCount(loaded)
	r.metrics.SetEnabledCount(enabledCount)

	if err := r.store.RemoveExtensionData(ctx, id); err != nil {
		r.logger.Error("could not clear persisted extension data",
			"id", id,
			"error", err,
		)
		return err
	}
	return nil
}

// Root returns the extensions root directory the registry scans.
func (r *Registry) Root() string {
	return r.root
}

// LoadTime returns when the registry last completed a full rescan.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}
