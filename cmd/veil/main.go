// Veil is the WebExtension engine of the Veil privacy browser.
//
// It scans an extensions directory for Chrome Manifest V3 extensions,
// matches their content-script rules against navigation URLs, composes the
// script text injected into pages, and serves the local relay behind the
// veil: scheme.
//
// Usage:
//
//	# Start the engine with default configuration
//	veil run
//
//	# Start with a custom configuration file
//	veil run --config /path/to/veil.yaml
//
//	# List installed extensions
//	veil extensions list
//
//	# Disable an extension
//	veil extensions disable dark-mode
//
//	# Check a match pattern against a URL
//	veil match '*://*.example.com/*' https://www.example.com/page
//
//	# Show version information
//	veil version
package main

func main() {
	Execute()
}
