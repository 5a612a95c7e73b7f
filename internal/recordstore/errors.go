package recordstore

import "errors"

var (
	// ErrNotFound is returned when the store holds no record at the key.
	// The remote service reports absence in several dialects (empty body,
	// a literal not-found marker, an error-flagged JSON payload); all of
	// them normalize to this sentinel.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when the store could not be reached at the
	// transport level (connection refused, DNS failure, timeout).
	ErrUnavailable = errors.New("record store unreachable")

	// ErrStore is returned when the store was reached but rejected or
	// failed the operation.
	ErrStore = errors.New("record store error")
)
