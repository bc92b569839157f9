// Package recovery implements fix_unsynced_cnt_for_binding_info (spec
// §4.5): the boot/replay cleanup pass that back-fills log ts for records
// whose commit landed but whose unsynced counter had not yet been
// updated.
package recovery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/li78199800/oceanbase-sub002/obslog"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// maxConcurrency bounds the fan-out in Sweep. Tablets have no
// cross-tablet ordering requirement for this pass (spec §5: "no
// cross-tablet atomicity guarantee"), so a bounded worker pool is a safe,
// additive concurrency improvement over a single-tablet loop.
const maxConcurrency = 16

// FixUnsyncedCntForBindingInfo implements spec §4.5 for a single tablet:
// it loads the tablet's BindingRecord and asks the tablet to idempotently
// back-fill its log ts. A not-exist tablet is silently skipped — it was
// garbage-collected after the checkpoint.
func FixUnsyncedCntForBindingInfo(ctx context.Context, store tablet.Store, key tablet.Key) error {
	handle, ok, err := store.GetTablet(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	handle.RLock()
	rec, err := handle.GetDDLData(ctx)
	handle.RUnlock()
	if err != nil {
		return err
	}

	return handle.BackFillLogTsForCommit(ctx, rec)
}

// Sweep runs FixUnsyncedCntForBindingInfo over every key in keys,
// bounded to maxConcurrency concurrent tablets, and returns the first
// error encountered (if any), after all started calls have finished.
func Sweep(ctx context.Context, store tablet.Store, keys []tablet.Key, logger *obslog.Logger) error {
	if logger == nil {
		logger = obslog.NewNop()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := FixUnsyncedCntForBindingInfo(gctx, store, key); err != nil {
				logger.WithTablet(key.LSID, int64(key.TabletID)).Error("fix_unsynced_cnt_for_binding_info failed")
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
