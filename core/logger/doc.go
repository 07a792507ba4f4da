// Package logger builds the application's slog logger and provides typed
// attribute helpers for the fields this service logs most: rooms, users,
// errors, and timings.
//
// Attribute helpers use the empty Attr pattern for nil safety, so
// log.Info("msg", logger.Error(err)) needs no explicit nil check.
package logger
