// Package retry re-drives operations that fail with cerrs.KindRetry
// (spec §7: "callers are expected to re-drive the whole operation"),
// using an exponential backoff policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/li78199800/oceanbase-sub002/cerrs"
)

// Do runs fn, re-driving it on cerrs.KindRetry errors per policy's
// backoff schedule. Any other error (including a nil policy's context
// cancellation) is returned immediately without a further call to fn.
// If policy is nil, a default exponential backoff capped at 2s total is
// used.
func Do(ctx context.Context, policy backoff.BackOff, fn func(ctx context.Context) error) error {
	if policy == nil {
		policy = DefaultPolicy()
	}
	policy = backoff.WithContext(policy, ctx)

	operation := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if cerrs.Is(err, cerrs.KindRetry) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, policy)
}

// DefaultPolicy returns the exponential backoff policy used when Do is
// called with a nil policy, exposed so callers can start from it and
// override fields (e.g. MaxElapsedTime) rather than hand-rolling one.
func DefaultPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Second
	return b
}
