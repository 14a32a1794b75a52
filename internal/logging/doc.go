// Package logging configures structured slog logging for ragcore.
//
// Library packages log through the slog default logger with snake_case event
// names. The CLI installs a JSON handler on stderr, and with --debug also
// writes a size-rotated file under ~/.ragcore/logs/.
package logging
