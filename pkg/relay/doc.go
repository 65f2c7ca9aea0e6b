// Package relay implements the local HTTP endpoint behind the veil: scheme.
//
// Injected content scripts talk to the browser through the chrome.* API
// polyfill, which issues fetch() calls against veil:ext-api/* URLs. The
// embedder's scheme handler forwards those to this relay, which serves:
//
//   - /ext-api/storage/{get,set,remove,clear} — the chrome.storage.local
//     backend, persisted in the browser store
//   - /extensions-data — the loaded extension listing for management UI
//   - /inject — the composed content-script injection for a navigation URL
//   - /health — liveness probe
//   - /metrics — Prometheus exposition (when metrics are enabled)
//
// Requests carry an X-Request-ID for log correlation and pass through
// logging and panic-recovery middleware. The listener binds loopback only;
// the relay is not meant to be reachable off the host.
package relay
