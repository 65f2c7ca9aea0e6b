package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// storeFactories lets the contract tests run against every backend.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore()
	},
	"sqlite": func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "browser.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	},
}

func TestStore_EnabledDefaultsTrue(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			enabled, err := store.IsExtensionEnabled(ctx, "never-seen")
			if err != nil {
				t.Fatalf("IsExtensionEnabled() error = %v", err)
			}
			if !enabled {
				t.Error("IsExtensionEnabled(unknown) = false, want true")
			}
		})
	}
}

func TestStore_SetExtensionEnabled(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			if err := store.SetExtensionEnabled(ctx, "ext", false); err != nil {
				t.Fatalf("SetExtensionEnabled(false) error = %v", err)
			}
			enabled, err := store.IsExtensionEnabled(ctx, "ext")
			if err != nil {
				t.Fatalf("IsExtensionEnabled() error = %v", err)
			}
			if enabled {
				t.Error("IsExtensionEnabled() = true after disable, want false")
			}

			if err := store.SetExtensionEnabled(ctx, "ext", true); err != nil {
				t.Fatalf("SetExtensionEnabled(true) error = %v", err)
			}
			enabled, err = store.IsExtensionEnabled(ctx, "ext")
			if err != nil {
				t.Fatalf("IsExtensionEnabled() error = %v", err)
			}
			if !enabled {
				t.Error("IsExtensionEnabled() = false after enable, want true")
			}
		})
	}
}

func TestStore_KeyValueRoundTrip(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			if err := store.StorageSet(ctx, "ext", "theme", "dark"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}
			if err := store.StorageSet(ctx, "ext", "lang", "en"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}

			values, err := store.StorageGet(ctx, "ext", []string{"theme", "lang", "missing"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if len(values) != 2 {
				t.Errorf("len(values) = %d, want 2", len(values))
			}
			if values["theme"] != "dark" {
				t.Errorf("values[theme] = %q, want %q", values["theme"], "dark")
			}
			if _, ok := values["missing"]; ok {
				t.Error("values contains missing key, want absent")
			}

			// Overwrite keeps a single value per key.
			if err := store.StorageSet(ctx, "ext", "theme", "light"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}
			values, err = store.StorageGet(ctx, "ext", []string{"theme"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if values["theme"] != "light" {
				t.Errorf("values[theme] = %q, want %q", values["theme"], "light")
			}
		})
	}
}

func TestStore_StorageIsolatedPerExtension(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			if err := store.StorageSet(ctx, "ext-a", "k", "a"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}
			if err := store.StorageSet(ctx, "ext-b", "k", "b"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}

			values, err := store.StorageGet(ctx, "ext-a", []string{"k"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if values["k"] != "a" {
				t.Errorf("ext-a values[k] = %q, want %q", values["k"], "a")
			}
		})
	}
}

func TestStore_RemoveAndClear(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			for _, key := range []string{"a", "b", "c"} {
				if err := store.StorageSet(ctx, "ext", key, key); err != nil {
					t.Fatalf("StorageSet() error = %v", err)
				}
			}

			if err := store.StorageRemove(ctx, "ext", []string{"a", "b", "ghost"}); err != nil {
				t.Fatalf("StorageRemove() error = %v", err)
			}
			values, err := store.StorageGet(ctx, "ext", []string{"a", "b", "c"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if len(values) != 1 || values["c"] != "c" {
				t.Errorf("values = %v, want only c", values)
			}

			if err := store.StorageClear(ctx, "ext"); err != nil {
				t.Fatalf("StorageClear() error = %v", err)
			}
			values, err = store.StorageGet(ctx, "ext", []string{"c"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if len(values) != 0 {
				t.Errorf("values = %v after clear, want empty", values)
			}
		})
	}
}

func TestStore_RemoveExtensionData(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()

			if err := store.SetExtensionEnabled(ctx, "ext", false); err != nil {
				t.Fatalf("SetExtensionEnabled() error = %v", err)
			}
			if err := store.StorageSet(ctx, "ext", "k", "v"); err != nil {
				t.Fatalf("StorageSet() error = %v", err)
			}

			if err := store.RemoveExtensionData(ctx, "ext"); err != nil {
				t.Fatalf("RemoveExtensionData() error = %v", err)
			}

			// Flag reverts to the fresh-install default.
			enabled, err := store.IsExtensionEnabled(ctx, "ext")
			if err != nil {
				t.Fatalf("IsExtensionEnabled() error = %v", err)
			}
			if !enabled {
				t.Error("IsExtensionEnabled() = false after removal, want default true")
			}

			values, err := store.StorageGet(ctx, "ext", []string{"k"})
			if err != nil {
				t.Fatalf("StorageGet() error = %v", err)
			}
			if len(values) != 0 {
				t.Errorf("values = %v after removal, want empty", values)
			}
		})
	}
}
