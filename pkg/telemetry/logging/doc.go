// Package logging constructs the structured loggers used throughout the
// engine. Logging is built on log/slog; this package only maps config
// (level, format) onto handler construction so components can take a
// *slog.Logger and stay ignorant of how it was built.
package logging
