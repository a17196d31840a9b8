// Package logging builds the process-wide slog.Logger from config.
//
// Output goes to stderr. When a file is configured, records are also written
// to a size-rotated file managed by lumberjack.
package logging
