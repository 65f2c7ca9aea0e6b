package manifest

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ManifestFileName is the manifest file expected in every extension directory.
const ManifestFileName = "manifest.json"

// LoaderConfig contains configuration for the extension loader.
type LoaderConfig struct {
	// MaxManifestSize is the maximum manifest.json size in bytes.
	// Default: 1 MiB.
	MaxManifestSize int64

	// MaxSourceSize is the maximum size of a single declared js/css file.
	// Default: 10 MiB.
	MaxSourceSize int64
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxManifestSize: 1 << 20,
		MaxSourceSize:   10 << 20,
	}
}

// Loader reads extension directories from disk and materializes Extension
// records with their content-script sources loaded eagerly into memory.
type Loader struct {
	config *LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a new extension loader.
func NewLoader(config *LoaderConfig, logger *slog.Logger) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		config: config,
		logger: logger.With("component", "webext.loader"),
	}
}

// LoadAll scans the immediate subdirectories of root and loads every one
// that contains a readable, parseable manifest.json. Extensions that fail
// to load are logged, counted in skipped, and excluded; the only returned
// error is an unreadable root directory.
//
// Returned extensions are ordered by directory name, giving every scan of
// the same tree the same order.
func (l *Loader) LoadAll(root string) (exts []*Extension, skipped int, err error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, 0, &LoadError{Path: root, Message: "could not read extensions directory", Cause: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		manifestPath := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}

		ext, err := l.LoadExtension(dir)
		if err != nil {
			l.logger.Error("skipping extension",
				"id", entry.Name(),
				"error", err,
			)
			skipped++
			continue
		}
		exts = append(exts, ext)
	}

	return exts, skipped, nil
}

// LoadExtension loads a single extension directory: parses its manifest and
// eagerly reads every declared content-script file. Unreadable js/css files
// are logged and omitted from the source maps; only a missing or malformed
// manifest is an error.
func (l *Loader) LoadExtension(dir string) (*Extension, error) {
	id := filepath.Base(dir)
	manifestPath := filepath.Join(dir, ManifestFileName)

	info, err := os.Stat(manifestPath)
	if err != nil {
		return nil, &LoadError{Path: manifestPath, Message: "could not stat manifest", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{Path: manifestPath, Message: "manifest is not a regular file"}
	}
	if info.Size() > l.config.MaxManifestSize {
		return nil, &LoadError{Path: manifestPath, Message: "manifest exceeds size limit"}
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &LoadError{Path: manifestPath, Message: "could not read manifest", Cause: err}
	}

	m, err := Parse(data)
	if err != nil {
		if perr, ok := err.(*ParseError); ok && perr.Path == "" {
			perr.Path = manifestPath
		}
		return nil, err
	}

	ext := &Extension{
		ID:         id,
		Manifest:   m,
		BasePath:   dir,
		JSSources:  make(map[string]string),
		CSSSources: make(map[string]string),
	}

	for _, cs := range m.ContentScripts {
		for _, jsFile := range cs.JS {
			if src, ok := l.readSource(dir, id, jsFile); ok {
				ext.JSSources[jsFile] = src
			}
		}
		for _, cssFile := range cs.CSS {
			if src, ok := l.readSource(dir, id, cssFile); ok {
				ext.CSSSources[cssFile] = src
			}
		}
	}

	return ext, nil
}

// readSource reads one declared content-script file relative to the
// extension directory. Declared paths must stay inside the extension
// directory; anything else is treated like an unreadable file.
func (l *Loader) readSource(dir, id, rel string) (string, bool) {
	if !filepath.IsLocal(rel) {
		l.logger.Warn("declared file escapes extension directory",
			"id", id,
			"file", rel,
		)
		return "", false
	}

	path := filepath.Join(dir, rel)
	info, err := os.Stat(path)
	if err == nil && info.Size() > l.config.MaxSourceSize {
		l.logger.Warn("declared file exceeds size limit",
			"id", id,
			"file", rel,
			"size", info.Size(),
		)
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("could not load declared file",
			"id", id,
			"file", rel,
			"error", err,
		)
		return "", false
	}
	return string(data), true
}
