// Package matcher implements Chrome-style URL match patterns as used by
// WebExtension content_scripts declarations.
//
// A pattern has the form <scheme>://<host><path>, where the scheme may be
// "*" (http or https only), the host may be "*" or a "*.suffix" wildcard,
// and the path is a simple glob in which only a trailing "*" is special.
// The literal "<all_urls>" matches every http(s) URL.
//
// Parsing and matching are intentionally forgiving: Parse returns nil for
// malformed patterns and callers treat nil as never-matching, so one bad
// pattern in a manifest degrades to a non-match instead of an error.
package matcher
