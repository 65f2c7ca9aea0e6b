package matcher

import (
	"net/url"
	"strings"
)

// SchemeKind identifies how a pattern's scheme component matches.
type SchemeKind int

const (
	// SchemeAny matches http and https only, per the Chrome match-pattern
	// rules: a wildcard scheme never matches ftp, file, or custom schemes.
	SchemeAny SchemeKind = iota

	// SchemeExact matches one scheme verbatim.
	SchemeExact
)

// HostKind identifies how a pattern's host component matches.
type HostKind int

const (
	// HostAny matches any host.
	HostAny HostKind = iota

	// HostExact matches one host verbatim.
	HostExact

	// HostSuffix matches the host itself or any subdomain of it
	// (pattern "*.example.com" matches both "example.com" and
	// "a.example.com", but not "evilexample.com").
	HostSuffix
)

// Pattern is a parsed URL match pattern such as `<all_urls>`,
// `*://*.example.com/*`, or `https://example.com/path/*`.
type Pattern struct {
	raw        string
	schemeKind SchemeKind
	scheme     string
	hostKind   HostKind
	host       string
	path       string
}

// AllURLs is the pattern literal that matches every http(s) URL.
const AllURLs = "<all_urls>"

// Parse parses a match-pattern string. It returns nil if the pattern is
// malformed; callers treat a nil pattern as never-matching rather than as
// a fatal condition, so a bad pattern in a manifest cannot take down the
// rest of the rule.
func Parse(pattern string) *Pattern {
	if pattern == AllURLs {
		return &Pattern{
			raw:        pattern,
			schemeKind: SchemeAny,
			hostKind:   HostAny,
			path:       "*",
		}
	}

	schemeStr, rest, ok := strings.Cut(pattern, "://")
	if !ok {
		return nil
	}

	p := &Pattern{raw: pattern}

	if schemeStr == "*" {
		p.schemeKind = SchemeAny
	} else {
		p.schemeKind = SchemeExact
		p.scheme = schemeStr
	}

	hostStr := rest
	p.path = "/*"
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		hostStr = rest[:idx]
		p.path = rest[idx:]
	}

	switch {
	case hostStr == "*":
		p.hostKind = HostAny
	case strings.HasPrefix(hostStr, "*."):
		p.hostKind = HostSuffix
		p.host = hostStr[2:]
	default:
		p.hostKind = HostExact
		p.host = hostStr
	}

	return p
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// MatchesURL reports whether the pattern matches the given URL.
// Scheme, host, and path are checked in that order and the first
// failing component short-circuits.
func (p *Pattern) MatchesURL(u *url.URL) bool {
	switch p.schemeKind {
	case SchemeAny:
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
	case SchemeExact:
		if u.Scheme != p.scheme {
			return false
		}
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	switch p.hostKind {
	case HostAny:
	case HostExact:
		if host != p.host {
			return false
		}
	case HostSuffix:
		if host != p.host && !strings.HasSuffix(host, "."+p.host) {
			return false
		}
	}

	if p.path != "/*" && p.path != "*" {
		urlPath := u.Path
		if prefix, ok := strings.CutSuffix(p.path, "*"); ok {
			if !strings.HasPrefix(urlPath, prefix) {
				return false
			}
		} else if urlPath != p.path {
			return false
		}
	}

	return true
}

// Matches parses rawURL and evaluates the pattern against it.
// An unparseable URL never matches.
func (p *Pattern) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return p.MatchesURL(u)
}
