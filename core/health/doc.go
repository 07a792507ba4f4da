// Package health provides liveness and readiness probe handlers.
// Liveness reports that the process is running; readiness additionally
// verifies dependency checks such as the redis history backend.
package health
