// Package logging builds the application's slog loggers and provides shared
// attribute helpers. Loggers are injected explicitly; there is no package
// level default sink.
package logging
