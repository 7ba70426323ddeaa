package mongo

import (
	"context"
	"time"
)

// OpTimeout bounds a single repository call.
const OpTimeout = 5 * time.Second

func noop() {}

// WithRepoTimeout caps ctx at d. A parent that is already done, or whose
// deadline comes first, is handed back as is with a no-op cancel, so
// callers always defer the returned cancel.
func WithRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return ctx, noop
	}
	if dl, ok := ctx.Deadline(); ok && !dl.After(time.Now().Add(d)) {
		return ctx, noop
	}
	return context.WithTimeout(ctx, d)
}
