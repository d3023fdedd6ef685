package feedsync

import (
	"context"
	"sync"
)

// RefreshFailedMessage is the uniform user-facing text for refresh failures.
const RefreshFailedMessage = "Failed to refresh data"

// Refresher wraps an arbitrary asynchronous refresh action with a busy flag
// and uniform error surfacing. Failures never propagate to the caller; they
// are converted to a single surfaced message.
type Refresher struct {
	onError func(message string)

	mu   sync.Mutex
	busy bool
}

// NewRefresher creates a refresher. onError receives the user-facing
// message when a refresh fails; it may be nil.
func NewRefresher(onError func(message string)) *Refresher {
	return &Refresher{onError: onError}
}

// Busy reports whether a refresh is in flight.
func (r *Refresher) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Trigger runs action under the busy flag. Re-entrant calls while busy are
// dropped, not queued, and report false. The busy flag is restored on every
// exit path, including action panics, which are swallowed and surfaced like
// errors.
func (r *Refresher) Trigger(ctx context.Context, action func(context.Context) error) bool {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return false
	}
	r.busy = true
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil && r.onError != nil {
			r.onError(RefreshFailedMessage)
		}
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	}()

	if err := action(ctx); err != nil {
		if r.onError != nil {
			r.onError(RefreshFailedMessage)
		}
	}
	return true
}
