package batch

import (
	"context"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/lock"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// UnbindParams carries the per-invocation parameters shared by the
// unbind phases (spec §4.4 "Unbind phases").
type UnbindParams struct {
	TxID          int64
	LogTS         int64
	CommitVersion int64
	ForReplay     bool
	IsRedoSynced  bool
	Commit        bool
}

// LockForUnbind locks the full orig_tablet_ids, and — when arg.IsRedefined
// — hidden_tablet_ids too, each tracked by its own watermark for
// rollback (spec §4.4).
func (d *Driver) LockForUnbind(ctx context.Context, arg binding.BatchUnbindArg, p UnbindParams) (*UnbindPrepareCtx, error) {
	ls, err := d.resolveLogStream(ctx, arg.LSID, p.ForReplay)
	if err != nil {
		return nil, err
	}

	pctx := NewUnbindPrepareCtx()
	flags := lock.Flags{TxID: p.TxID, LogTS: p.LogTS, ForReplay: p.ForReplay}

	for i, id := range arg.OrigTabletIDs {
		key := tablet.Key{LSID: arg.LSID, TabletID: id}
		if err := d.lock.Lock(ctx, ls, key, flags); err != nil {
			return pctx, err
		}
		pctx.LastOrigIdx = i
	}

	if arg.IsRedefined() {
		for i, id := range arg.HiddenTabletIDs {
			key := tablet.Key{LSID: arg.LSID, TabletID: id}
			if err := d.lock.Lock(ctx, ls, key, flags); err != nil {
				return pctx, err
			}
			pctx.LastHiddenIdx = i
		}
	}

	return pctx, nil
}

// RollbackLockForUnbind unlocks the hidden watermark then the orig
// watermark with NotifyOnAbort — the reverse of LockForUnbind's
// acquisition order, matching the compensating-sweep policy of spec §7.
func (d *Driver) RollbackLockForUnbind(ctx context.Context, arg binding.BatchUnbindArg, pctx *UnbindPrepareCtx, txID int64) error {
	abortFlags := lock.Flags{TxID: txID, NotifyType: lock.NotifyOnAbort, IsTxEnd: true}
	var firstErr error

	for i, id := range arg.HiddenTabletIDs {
		if i > pctx.LastHiddenIdx {
			break
		}
		key := tablet.Key{LSID: arg.LSID, TabletID: id}
		if err := d.lock.Unlock(ctx, key, abortFlags); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i, id := range arg.OrigTabletIDs {
		if i > pctx.LastOrigIdx {
			break
		}
		key := tablet.Key{LSID: arg.LSID, TabletID: id}
		if err := d.lock.Unlock(ctx, key, abortFlags); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ModifyForUnbind implements the commit-modify phase of spec §4.4: each
// orig tablet has hidden_tablet_ids reset and, when redefining, flips
// redefined/snapshot_version; each hidden tablet (only when redefining)
// takes over as the new readable binding.
func (d *Driver) ModifyForUnbind(ctx context.Context, arg binding.BatchUnbindArg, p UnbindParams) error {
	redefined := arg.IsRedefined()

	for _, id := range arg.OrigTabletIDs {
		if err := d.modifyOneForUnbind(ctx, arg.LSID, id, func(rec *binding.BindingRecord) {
			rec.HiddenTabletIDs = nil
			if redefined {
				rec.Redefined = true
				rec.SnapshotVersion = p.CommitVersion
			}
		}); err != nil {
			return err
		}
	}

	if !redefined {
		return nil
	}

	for _, id := range arg.HiddenTabletIDs {
		if err := d.modifyOneForUnbind(ctx, arg.LSID, id, func(rec *binding.BindingRecord) {
			rec.Redefined = false
			rec.SnapshotVersion = p.CommitVersion
			rec.SchemaVersion = arg.SchemaVersion
		}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) modifyOneForUnbind(ctx context.Context, lsID int64, id binding.TabletID, mutate func(*binding.BindingRecord)) error {
	key := tablet.Key{LSID: lsID, TabletID: id}
	handle, ok, err := d.store.GetTablet(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	handle.Lock()
	defer handle.Unlock()

	rec, err := handle.GetDDLData(ctx)
	if err != nil {
		return err
	}
	mutate(&rec)
	return handle.SetMultiDataForCommit(ctx, rec)
}

// UnlockForUnbind is the commit or abort traversal over orig_tablet_ids
// and, when arg.IsRedefined, hidden_tablet_ids (spec §4.4).
func (d *Driver) UnlockForUnbind(ctx context.Context, arg binding.BatchUnbindArg, p UnbindParams) error {
	notify := lock.NotifyOnAbort
	if p.Commit {
		notify = lock.NotifyOnCommit
	}
	flags := lock.Flags{
		TxID:         p.TxID,
		LogTS:        p.LogTS,
		ForReplay:    p.ForReplay,
		NotifyType:   notify,
		IsRedoSynced: p.IsRedoSynced,
		IsTxEnd:      true,
	}

	for _, id := range arg.OrigTabletIDs {
		key := tablet.Key{LSID: arg.LSID, TabletID: id}
		if err := d.lock.Unlock(ctx, key, flags); err != nil {
			return err
		}
	}
	if arg.IsRedefined() {
		for _, id := range arg.HiddenTabletIDs {
			key := tablet.Key{LSID: arg.LSID, TabletID: id}
			if err := d.lock.Unlock(ctx, key, flags); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnbindTx drives the full lock/commit-modify/unlock sequence for a
// batch unbind (spec §4.4), with the same rollback-on-forward-failure
// policy as CreateTx.
func (d *Driver) UnbindTx(ctx context.Context, arg binding.BatchUnbindArg, p UnbindParams) error {
	pctx, err := d.LockForUnbind(ctx, arg, p)
	if err != nil {
		if !p.ForReplay {
			_ = d.RollbackLockForUnbind(ctx, arg, pctx, p.TxID)
		}
		return err
	}

	if err := d.ModifyForUnbind(ctx, arg, p); err != nil {
		return err
	}

	return d.UnlockForUnbind(ctx, arg, p)
}
