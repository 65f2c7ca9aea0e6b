package manifest

import "fmt"

// LoadError represents a file system error encountered while loading an
// extension: an unreadable extensions root, a missing manifest, or a
// manifest exceeding the size limit.
type LoadError struct {
	// Path is the file or directory that failed to load.
	Path string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed manifest.json: invalid JSON, invalid
// encoding, or a missing required field.
type ParseError struct {
	// Path is the manifest file that failed to parse, when known.
	Path string

	// Message describes the parsing error.
	Message string

	// Cause is the underlying decoder error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		if e.Cause != nil {
			return fmt.Sprintf("manifest parse error: %s: %v", e.Message, e.Cause)
		}
		return fmt.Sprintf("manifest parse error: %s", e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse error in %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
