package async

import "errors"

var (
	// ErrTimeout is returned by AwaitWithTimeout when the future does not
	// complete in time.
	ErrTimeout = errors.New("async operation timed out")
	// ErrNoFutures is returned by ExecAny when called without futures.
	ErrNoFutures = errors.New("no futures provided")
)
