package injector

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/manifest"
	"veil-hq/veil/pkg/webext/registry"
)

// writeExtension creates an extension directory with a manifest and files.
func writeExtension(t *testing.T, root, id, manifestJSON string, files map[string]string) {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.ManifestFileName), []byte(manifestJSON), 0o644); err != nil {
		t.Fatalf("WriteFile(manifest) error = %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
}

func newLoadedComposer(t *testing.T, root string) (*Composer, *registry.Registry) {
	t.Helper()

	reg := registry.NewRegistry(root, nil, storage.NewMemoryStore(), nil, nil)
	if err := reg.LoadAll(context.Background(), metrics.TriggerStartup); err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	return NewComposer(reg, nil, nil), reg
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return u
}

func TestComposer_NoMatchesMeansNoInjection(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "A",
		"version": "1.0",
		"content_scripts": [{"matches": ["*://a.test/*"], "js": ["main.js"]}]
	}`, map[string]string{"main.js": "a();"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://unrelated.test/"))
	if ok {
		t.Errorf("BuildInjectionScript() ok = true, want false; script = %q", script)
	}
	if script != "" {
		t.Errorf("script = %q, want empty", script)
	}
}

func TestComposer_DisjointHosts(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "Alpha",
		"version": "1.0",
		"content_scripts": [{"matches": ["*://a.test/*"], "js": ["a.js"], "css": ["a.css"]}]
	}`, map[string]string{"a.js": "alphaJS();", "a.css": ".alpha{}"})
	writeExtension(t, root, "ext-b", `{
		"manifest_version": 3,
		"name": "Beta",
		"version": "1.0",
		"content_scripts": [{"matches": ["*://b.test/*"], "js": ["b.js"], "css": ["b.css"]}]
	}`, map[string]string{"b.js": "betaJS();", "b.css": ".beta{}"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://a.test/page"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}

	for _, want := range []string{"alphaJS();", ".alpha{}"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	for _, reject := range []string{"betaJS();", ".beta{}"} {
		if strings.Contains(script, reject) {
			t.Errorf("script contains %q from non-matching extension", reject)
		}
	}
}

func TestComposer_PolyfillComesFirst(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "A",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "js": ["main.js"]}]
	}`, map[string]string{"main.js": "payload();"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://x.test/"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}

	polyfillIdx := strings.Index(script, "chrome.runtime")
	payloadIdx := strings.Index(script, "payload();")
	if polyfillIdx < 0 || payloadIdx < 0 {
		t.Fatalf("script missing polyfill (%d) or payload (%d)", polyfillIdx, payloadIdx)
	}
	if polyfillIdx > payloadIdx {
		t.Error("polyfill appears after payload, want first")
	}
}

func TestComposer_CSSBeforeJSAcrossRules(t *testing.T) {
	root := t.TempDir()
	// The JS-only extension sorts before the CSS-only one, so declaration
	// order alone would put JS first. Composition order must still be
	// all CSS, then all JS.
	writeExtension(t, root, "aa-js-only", `{
		"manifest_version": 3,
		"name": "JS Only",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "js": ["only.js"]}]
	}`, map[string]string{"only.js": "jsPayload();"})
	writeExtension(t, root, "zz-css-only", `{
		"manifest_version": 3,
		"name": "CSS Only",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "css": ["only.css"]}]
	}`, map[string]string{"only.css": ".cssPayload{}"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://x.test/"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}

	cssIdx := strings.Index(script, ".cssPayload{}")
	jsIdx := strings.Index(script, "jsPayload();")
	if cssIdx < 0 || jsIdx < 0 {
		t.Fatalf("script missing css (%d) or js (%d)", cssIdx, jsIdx)
	}
	if cssIdx > jsIdx {
		t.Error("CSS block appears after JS block, want all CSS first")
	}
}

func TestComposer_MissingCSSStillInjectsJS(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "A",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "js": ["main.js"], "css": ["missing.css"]}]
	}`, map[string]string{"main.js": "stillHere();"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://x.test/"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}
	if !strings.Contains(script, "stillHere();") {
		t.Error("script missing JS from rule with unreadable CSS")
	}
	if strings.Contains(script, "missing.css") {
		t.Error("script references the unreadable CSS file")
	}
}

func TestComposer_JSCommentNamesExtension(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "dark-mode", `{
		"manifest_version": 3,
		"name": "Dark Mode",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "js": ["main.js"]}]
	}`, map[string]string{"main.js": "x();"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://x.test/"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}
	if !strings.Contains(script, "// Extension: Dark Mode (dark-mode)") {
		t.Error("script missing extension identification comment")
	}
}

func TestComposer_DisableExcludesWithoutReload(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "A",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "js": ["main.js"]}]
	}`, map[string]string{"main.js": "a();"})

	c, reg := newLoadedComposer(t, root)
	u := mustURL(t, "https://x.test/")

	if _, ok := c.BuildInjectionScript(u); !ok {
		t.Fatal("BuildInjectionScript() ok = false before disable, want true")
	}

	if err := reg.SetEnabled(context.Background(), "ext-a", false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if script, ok := c.BuildInjectionScript(u); ok {
		t.Errorf("BuildInjectionScript() ok = true after disable, script = %q", script)
	}
}

func TestComposer_InvalidURLString(t *testing.T) {
	root := t.TempDir()
	c, _ := newLoadedComposer(t, root)

	if _, ok := c.BuildInjectionScriptForURL("://not a url"); ok {
		t.Error("BuildInjectionScriptForURL(invalid) ok = true, want false")
	}
}

func TestEscapeTemplateLiteral(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"backslash", `a\b`, `a\\b`},
		{"backtick", "a`b", "a\\`b"},
		{"expression hole", "a${b}", `a\${b}`},
		{"backslash before dollar", `\${`, `\\\${`},
		{"plain css", ".x { color: red; }", ".x { color: red; }"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := escapeTemplateLiteral(tc.in); got != tc.want {
				t.Errorf("escapeTemplateLiteral(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestComposer_CSSEscapedInOutput(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "ext-a", `{
		"manifest_version": 3,
		"name": "A",
		"version": "1.0",
		"content_scripts": [{"matches": ["<all_urls>"], "css": ["evil.css"]}]
	}`, map[string]string{"evil.css": "body::after { content: \"`+${alert(1)}+`\"; }"})

	c, _ := newLoadedComposer(t, root)

	script, ok := c.BuildInjectionScript(mustURL(t, "https://x.test/"))
	if !ok {
		t.Fatal("BuildInjectionScript() ok = false, want true")
	}
	if !strings.Contains(script, "\\`+\\${alert(1)}+\\`") {
		t.Errorf("CSS not escaped in output:\n%s", script)
	}
}
