package manifest

import (
	"encoding/json"
	"unicode/utf8"
)

// DefaultRunAt is the injection point assumed when a content_scripts entry
// does not declare run_at.
const DefaultRunAt = "document_idle"

// Manifest is a parsed manifest.json (Chrome Manifest V3 subset).
// Unknown fields are ignored.
type Manifest struct {
	// ManifestVersion is the declared manifest format version. Required.
	ManifestVersion int `json:"manifest_version"`

	// Name is the human-readable extension name. Required.
	Name string `json:"name"`

	// Version is the extension version string. Required.
	Version string `json:"version"`

	// Description is an optional human-readable summary.
	Description string `json:"description"`

	// Permissions lists the permission strings the extension declares.
	// The engine records but does not enforce them.
	Permissions []string `json:"permissions"`

	// ContentScripts lists the URL-scoped JS/CSS injection rules,
	// in declaration order.
	ContentScripts []ContentScript `json:"content_scripts"`

	// Action describes the toolbar action, if any.
	Action *Action `json:"action"`

	// Background describes the background entry point, if any.
	// Service workers are recorded but never executed by this engine.
	Background *Background `json:"background"`
}

// ContentScript is one content_scripts rule: a list of URL match patterns
// plus the JS and CSS files to inject when a pattern matches.
type ContentScript struct {
	Matches []string `json:"matches"`
	JS      []string `json:"js"`
	CSS     []string `json:"css"`
	RunAt   string   `json:"run_at"`
}

// Action is the manifest's toolbar action declaration.
type Action struct {
	DefaultPopup string `json:"default_popup"`
	DefaultIcon  string `json:"default_icon"`
	DefaultTitle string `json:"default_title"`
}

// Background is the manifest's background declaration.
type Background struct {
	ServiceWorker string `json:"service_worker"`
}

// Extension is a fully loaded extension: its manifest plus the content
// script sources that could be read at load time. JSSources and CSSSources
// may be strict subsets of the files the manifest declares; a file that
// failed to load is simply absent, never an error state.
type Extension struct {
	// ID is the extension's directory name under the extensions root.
	ID string

	// Manifest is the parsed manifest.json.
	Manifest *Manifest

	// BasePath is the absolute path of the extension directory.
	BasePath string

	// JSSources maps declared js paths to their loaded file contents.
	JSSources map[string]string

	// CSSSources maps declared css paths to their loaded file contents.
	CSSSources map[string]string

	// Enabled is seeded from the persisted store at load time and flipped
	// by the registry thereafter.
	Enabled bool
}

// Parse decodes manifest JSON, validates the required fields, and applies
// defaults for the optional ones.
func Parse(data []byte) (*Manifest, error) {
	if !utf8.Valid(data) {
		return nil, &ParseError{Message: "manifest contains invalid UTF-8"}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Message: "invalid JSON", Cause: err}
	}

	if m.ManifestVersion == 0 {
		return nil, &ParseError{Message: "missing required field manifest_version"}
	}
	if m.Name == "" {
		return nil, &ParseError{Message: "missing required field name"}
	}
	if m.Version == "" {
		return nil, &ParseError{Message: "missing required field version"}
	}

	for i := range m.ContentScripts {
		if m.ContentScripts[i].RunAt == "" {
			m.ContentScripts[i].RunAt = DefaultRunAt
		}
	}

	return &m, nil
}
