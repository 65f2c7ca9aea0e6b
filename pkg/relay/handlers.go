package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"veil-hq/veil/pkg/storage"
	"veil-hq/veil/pkg/webext/injector"
	"veil-hq/veil/pkg/webext/registry"
)

// defaultExtensionID is used when a storage request does not identify the
// calling extension. The injected polyfill runs in page context and cannot
// always name its extension, so its traffic shares one storage area.
const defaultExtensionID = "default"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// extParam resolves the extension id a storage request addresses.
func extParam(r *http.Request) string {
	if ext := r.URL.Query().Get("ext"); ext != "" {
		return ext
	}
	return defaultExtensionID
}

// keysParam splits the comma-separated keys query parameter, dropping
// empty segments.
func keysParam(r *http.Request) []string {
	raw := r.URL.Query().Get("keys")
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// storageHandler serves the /ext-api/storage/* routes backing the injected
// chrome.storage.local polyfill. All routes are GET with query parameters;
// the polyfill issues plain fetch() calls against them.
type storageHandler struct {
	store  storage.Store
	logger *slog.Logger
}

func newStorageHandler(store storage.Store, logger *slog.Logger) *storageHandler {
	return &storageHandler{store: store, logger: logger}
}

func (h *storageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	op := strings.TrimPrefix(r.URL.Path, "/ext-api/storage/")
	ext := extParam(r)

	switch op {
	case "get":
		h.handleGet(w, r, ext)
	case "set":
		h.handleSet(w, r, ext)
	case "remove":
		h.handleRemove(w, r, ext)
	case "clear":
		h.handleClear(w, r, ext)
	default:
		writeError(w, http.StatusNotFound, "unknown storage operation")
	}
}

func (h *storageHandler) handleGet(w http.ResponseWriter, r *http.Request, ext string) {
	values, err := h.store.StorageGet(r.Context(), ext, keysParam(r))
	if err != nil {
		h.logger.Error("storage get failed", "ext", ext, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "storage read failed")
		return
	}

	// Stored values are JSON documents written by the polyfill; embed them
	// verbatim so the client reads back what it wrote. A value that is not
	// valid JSON is returned as a JSON string.
	result := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		if json.Valid([]byte(v)) {
			result[k] = json.RawMessage(v)
		} else {
			quoted, _ := json.Marshal(v)
			result[k] = quoted
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *storageHandler) handleSet(w http.ResponseWriter, r *http.Request, ext string) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	value := r.URL.Query().Get("value")

	if err := h.store.StorageSet(r.Context(), ext, key, value); err != nil {
		h.logger.Error("storage set failed", "ext", ext, "key", key, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "storage write failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *storageHandler) handleRemove(w http.ResponseWriter, r *http.Request, ext string) {
	keys := keysParam(r)
	if len(keys) == 0 {
		writeError(w, http.StatusBadRequest, "missing keys parameter")
		return
	}

	if err := h.store.StorageRemove(r.Context(), ext, keys); err != nil {
		h.logger.Error("storage remove failed", "ext", ext, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "storage write failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *storageHandler) handleClear(w http.ResponseWriter, r *http.Request, ext string) {
	if err := h.store.StorageClear(r.Context(), ext); err != nil {
		h.logger.Error("storage clear failed", "ext", ext, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "storage write failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// extensionInfo is one entry of the /extensions-data listing.
type extensionInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// extensionsHandler serves GET /extensions-data: the loaded extensions in
// load order, for browser chrome surfaces (extension management pages).
type extensionsHandler struct {
	registry *registry.Registry
}

func newExtensionsHandler(reg *registry.Registry) *extensionsHandler {
	return &extensionsHandler{registry: reg}
}

func (h *extensionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	exts := h.registry.Extensions()
	infos := make([]extensionInfo, 0, len(exts))
	for _, ext := range exts {
		infos = append(infos, extensionInfo{
			ID:          ext.ID,
			Name:        ext.Manifest.Name,
			Version:     ext.Manifest.Version,
			Description: ext.Manifest.Description,
			Enabled:     ext.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// injectHandler serves GET /inject?url=<navigation-url>: the composed
// content-script injection for that navigation. The embedding shell fetches
// it on each page load; 204 means no content script matched and nothing
// should be injected.
type injectHandler struct {
	composer *injector.Composer
}

func newInjectHandler(composer *injector.Composer) *injectHandler {
	return &injectHandler{composer: composer}
}

func (h *injectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	script, ok := h.composer.BuildInjectionScriptForURL(rawURL)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

// healthHandler serves GET /health as a liveness probe.
type healthHandler struct{}

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
