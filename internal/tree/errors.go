package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path no longer resolves to a node.
	ErrNotFound = errors.New("node not found")
	// ErrStale marks a load that finished after the cache it was filling
	// had been invalidated. Its result has been discarded.
	ErrStale = errors.New("stale load discarded")
)

// FetchError wraps a failure reported by the listing service.
type FetchError struct {
	Op   string
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
