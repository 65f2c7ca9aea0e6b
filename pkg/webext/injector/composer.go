package injector

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"veil-hq/veil/pkg/telemetry/metrics"
	"veil-hq/veil/pkg/webext/registry"
)

// chromeAPIPolyfill provides chrome.runtime and chrome.storage.local to
// injected script, backed by fetch() against veil:ext-api/* routes. It is
// prepended once to every composed injection.
//
//go:embed polyfill.js
var chromeAPIPolyfill string

// Composer assembles the single script injected into a navigated page
// from all matching content-script rules.
type Composer struct {
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewComposer creates an injection composer over the registry.
// collector may be nil.
func NewComposer(reg *registry.Registry, logger *slog.Logger, collector *metrics.Collector) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		registry: reg,
		logger:   logger.With("component", "webext.injector"),
		metrics:  collector,
	}
}

// BuildInjectionScript composes the injection for a navigation URL.
// The second return value is false when no content script matches, in
// which case the embedding engine must not inject anything.
//
// The composed script is ordered: the API polyfill first, then every
// matched CSS file wrapped in a style-element statement, then every
// matched JS file wrapped in an isolating function scope. CSS never
// interleaves with JS across rules. Files that failed to load at scan
// time contribute nothing and do not break their siblings.
func (c *Composer) BuildInjectionScript(u *url.URL) (string, bool) {
	matches := c.registry.ContentScriptsForURL(u)
	if len(matches) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(chromeAPIPolyfill)
	b.WriteByte('\n')

	for _, m := range matches {
		for _, cssFile := range m.Script.CSS {
			src, ok := m.Extension.CSSSources[cssFile]
			if !ok {
				continue
			}
			fmt.Fprintf(&b,
				"(function() { var s = document.createElement('style'); s.textContent = `%s`; document.head.appendChild(s); })();\n",
				escapeTemplateLiteral(src))
		}
	}

	for _, m := range matches {
		for _, jsFile := range m.Script.JS {
			src, ok := m.Extension.JSSources[jsFile]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "// Extension: %s (%s)\n(function() {\n%s\n})();\n",
				m.Extension.Manifest.Name, m.Extension.ID, src)
		}
	}

	script := b.String()

	c.logger.Debug("composed injection script",
		"url", u.Redacted(),
		"rules", len(matches),
		"bytes", len(script),
	)
	c.metrics.RecordInjection(len(script))

	return script, true
}

// BuildInjectionScriptForURL parses rawURL and composes its injection.
// An unparseable URL yields no injection.
func (c *Composer) BuildInjectionScriptForURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	return c.BuildInjectionScript(u)
}

// escapeTemplateLiteral makes text safe to embed inside a JS template
// literal: the text can no longer terminate the literal or open an
// expression hole. Replacement order is load-bearing — backslashes must
// be doubled before the other replacements introduce new ones.
func escapeTemplateLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	return s
}
