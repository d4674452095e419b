// Package channels holds context aware channel helpers and the session limiter built on them.
package channels

import "context"

// Submit writes the value to the channel unless the context expires first. It returns true when the write
// happened.
func Submit[T any](ctx context.Context, channel chan<- T, value T) bool {
	// Check the context first so that an expired context never races a ready channel
	if ctx.Err() != nil {
		return false
	}

	select {
	case channel <- value:
		return true

	case <-ctx.Done():
		return false
	}
}
