package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

// writeExtension creates an extension directory under root with the given
// manifest body and extra files.
func writeExtension(t *testing.T, root, id, manifestJSON string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if manifestJSON != "" {
		if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifestJSON), 0o644); err != nil {
			t.Fatalf("WriteFile(manifest) error = %v", err)
		}
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
	return dir
}

func TestLoader_LoadExtension(t *testing.T) {
	root := t.TempDir()
	dir := writeExtension(t, root, "dark-mode", `{
		"manifest_version": 3,
		"name": "Dark Mode",
		"version": "1.0",
		"content_scripts": [
			{"matches": ["<all_urls>"], "js": ["dark.js"], "css": ["styles/dark.css"]}
		]
	}`, map[string]string{
		"dark.js":         "console.log('dark');",
		"styles/dark.css": "body { background: #000; }",
	})

	loader := NewLoader(nil, nil)
	ext, err := loader.LoadExtension(dir)
	if err != nil {
		t.Fatalf("LoadExtension() error = %v, want nil", err)
	}

	if ext.ID != "dark-mode" {
		t.Errorf("ID = %q, want %q", ext.ID, "dark-mode")
	}
	if got := ext.JSSources["dark.js"]; got != "console.log('dark');" {
		t.Errorf("JSSources[dark.js] = %q, want script content", got)
	}
	if got := ext.CSSSources["styles/dark.css"]; got != "body { background: #000; }" {
		t.Errorf("CSSSources[styles/dark.css] = %q, want css content", got)
	}
	if ext.Enabled {
		t.Error("Enabled = true, want false before registry seeding")
	}
}

func TestLoader_MissingDeclaredFile(t *testing.T) {
	root := t.TempDir()
	dir := writeExtension(t, root, "partial", `{
		"manifest_version": 3,
		"name": "Partial",
		"version": "1.0",
		"content_scripts": [
			{"matches": ["<all_urls>"], "js": ["present.js", "absent.js"], "css": ["absent.css"]}
		]
	}`, map[string]string{
		"present.js": "1;",
	})

	loader := NewLoader(nil, nil)
	ext, err := loader.LoadExtension(dir)
	if err != nil {
		t.Fatalf("LoadExtension() error = %v, want nil", err)
	}

	if _, ok := ext.JSSources["present.js"]; !ok {
		t.Error("JSSources missing present.js")
	}
	if _, ok := ext.JSSources["absent.js"]; ok {
		t.Error("JSSources contains absent.js, want omitted")
	}
	if len(ext.CSSSources) != 0 {
		t.Errorf("CSSSources = %v, want empty", ext.CSSSources)
	}
}

func TestLoader_RejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()

	// A file outside the extension directory that a hostile manifest
	// tries to pull in.
	if err := os.WriteFile(filepath.Join(root, "secret.js"), []byte("stolen"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dir := writeExtension(t, root, "sneaky", `{
		"manifest_version": 3,
		"name": "Sneaky",
		"version": "1.0",
		"content_scripts": [
			{"matches": ["<all_urls>"], "js": ["../secret.js"]}
		]
	}`, nil)

	loader := NewLoader(nil, nil)
	ext, err := loader.LoadExtension(dir)
	if err != nil {
		t.Fatalf("LoadExtension() error = %v, want nil", err)
	}
	if len(ext.JSSources) != 0 {
		t.Errorf("JSSources = %v, want empty for escaping path", ext.JSSources)
	}
}

func TestLoader_LoadAll(t *testing.T) {
	root := t.TempDir()

	writeExtension(t, root, "b-ext", `{"manifest_version": 3, "name": "B", "version": "1.0"}`, nil)
	writeExtension(t, root, "a-ext", `{"manifest_version": 3, "name": "A", "version": "1.0"}`, nil)
	writeExtension(t, root, "broken", `{not json`, nil)
	// Directory without a manifest is skipped silently.
	if err := os.MkdirAll(filepath.Join(root, "no-manifest"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	// Stray file at the root is ignored.
	if err := os.WriteFile(filepath.Join(root, "README.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := NewLoader(nil, nil)
	exts, skipped, err := loader.LoadAll(root)
	if err != nil {
		t.Fatalf("LoadAll() error = %v, want nil", err)
	}

	if len(exts) != 2 {
		t.Fatalf("len(exts) = %d, want 2", len(exts))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 (the broken manifest)", skipped)
	}
	// os.ReadDir returns entries sorted by name.
	if exts[0].ID != "a-ext" || exts[1].ID != "b-ext" {
		t.Errorf("ids = [%s %s], want [a-ext b-ext]", exts[0].ID, exts[1].ID)
	}
}

func TestLoader_LoadAll_MissingRoot(t *testing.T) {
	loader := NewLoader(nil, nil)

	_, _, err := loader.LoadAll(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("LoadAll() error = nil, want error")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Errorf("LoadAll() error type = %T, want *LoadError", err)
	}
}
