package remote

import "errors"

var (
	// ErrUnreachable indicates the remote store could not be read:
	// network failure, non-2xx status, unparseable body, or an
	// application-level error payload.
	ErrUnreachable = errors.New("remote store unreachable")
	// ErrNotConfigured indicates no endpoint URL is set. Pushes degrade
	// to a failed dispatch; pulls fail outright.
	ErrNotConfigured = errors.New("remote endpoint not configured")
)
