// Package logging builds the process-wide slog logger: a colored,
// human-oriented text handler for terminals or slog's JSON handler for
// log collectors.
package logging
