// Package server wraps http.Server with graceful shutdown, option-based
// configuration, and environment-driven defaults. It serves the chat
// service's REST and websocket surfaces; upgraded websocket connections are
// hijacked from the server and outlive its read/write timeouts.
package server
