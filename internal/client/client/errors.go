package client

import "errors"

var (
	ErrUnavailable          = errors.New("server unavailable")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrSubscriptionRejected = errors.New("subscription rejected")

	// ErrStopWatching may be returned by a Watch callback to end the watch
	// without an error.
	ErrStopWatching = errors.New("stop watching")
)
