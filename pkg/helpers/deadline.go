package helpers

import (
	"context"
	"time"
)

// Deadline is the timeout applied at every backing-client boundary
// (database, object store, payment gateway, cache). A zero Deadline
// leaves the caller's context untouched.
type Deadline time.Duration

// Apply derives a context bounded by d. The caller must call cancel.
func (d Deadline) Apply(ctx context.Context) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(d))
}
