package batch

import (
	"context"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/lock"
	"github.com/li78199800/oceanbase-sub002/logts"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// CreateParams carries the per-invocation parameters shared by all four
// create phases (spec §4.4).
type CreateParams struct {
	LSID          int64
	TxID          int64
	LogTS         int64
	CommitVersion int64
	ForReplay     bool
	IsRedoSynced  bool
	// Commit selects the unlock_for_create outcome: true drives
	// NotifyOnCommit, false drives NotifyOnAbort.
	Commit bool
}

// LockForCreate implements spec §4.4 step 1: lock the data_tablet_id of
// every pure_hidden entry and every has_lob pure_aux entry, honoring the
// skip set. It returns the PrepareCtx so callers can drive the remaining
// phases or, on failure, roll the partial lock sweep back.
func (d *Driver) LockForCreate(ctx context.Context, arg binding.BatchCreateArg, p CreateParams) (*PrepareCtx, error) {
	ls, err := d.resolveLogStream(ctx, p.LSID, p.ForReplay)
	if err != nil {
		return nil, err
	}

	pctx := NewPrepareCtx()
	pctx.SkipIdx = buildSkipSet(arg)

	flags := lock.Flags{TxID: p.TxID, LogTS: p.LogTS, ForReplay: p.ForReplay}

	for i, entry := range arg.Tablets {
		if pctx.SkipIdx[i] || !included(entry, arg) {
			continue
		}
		key := tablet.Key{LSID: p.LSID, TabletID: entry.DataTabletID}
		if err := d.lock.Lock(ctx, ls, key, flags); err != nil {
			return pctx, err
		}
		pctx.LastIdx = i
	}
	return pctx, nil
}

// RollbackLockForCreate unlocks [0..pctx.LastIdx] with NotifyOnAbort, the
// compensating sweep spec §7 requires on a forward-path lock_for_create
// failure. It continues past individual unlock errors so one bad tablet
// cannot strand the rest of the sweep, returning the first error seen.
func (d *Driver) RollbackLockForCreate(ctx context.Context, arg binding.BatchCreateArg, pctx *PrepareCtx, txID int64) error {
	abortFlags := lock.Flags{TxID: txID, NotifyType: lock.NotifyOnAbort, IsTxEnd: true}
	var firstErr error
	for i, entry := range arg.Tablets {
		if i > pctx.LastIdx {
			break
		}
		if pctx.SkipIdx[i] || !included(entry, arg) {
			continue
		}
		key := tablet.Key{LSID: arg.LSID, TabletID: entry.DataTabletID}
		if err := d.lock.Unlock(ctx, key, abortFlags); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SetLogTsForCreate implements spec §4.4 step 2: the same traversal as
// LockForCreate, binding the redo log ts on each locked slot.
func (d *Driver) SetLogTsForCreate(ctx context.Context, arg binding.BatchCreateArg, pctx *PrepareCtx, p CreateParams) error {
	flags := logts.Flags{TxID: p.TxID, LogTS: p.LogTS}
	for i, entry := range arg.Tablets {
		if pctx.SkipIdx[i] || !included(entry, arg) {
			continue
		}
		key := tablet.Key{LSID: p.LSID, TabletID: entry.DataTabletID}
		if err := d.logts.SetLogTs(ctx, key, flags); err != nil {
			return err
		}
	}
	return nil
}

// ModifyBindingForCreate implements spec §4.4 step 3: for each included
// entry, load the data tablet's BindingRecord, apply the pure_hidden
// append or pure_aux LOB-id assignment, and persist via the tablet's
// commit write path.
func (d *Driver) ModifyBindingForCreate(ctx context.Context, arg binding.BatchCreateArg, pctx *PrepareCtx) error {
	for i, entry := range arg.Tablets {
		if pctx.SkipIdx[i] || !included(entry, arg) {
			continue
		}
		key := tablet.Key{LSID: arg.LSID, TabletID: entry.DataTabletID}
		handle, ok, err := d.store.GetTablet(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		handle.Lock()
		rec, err := handle.GetDDLData(ctx)
		if err != nil {
			handle.Unlock()
			return err
		}

		switch entry.SubKind {
		case binding.SubKindPureHidden:
			for _, id := range entry.TabletIDs {
				rec.AppendHidden(id)
			}
		case binding.SubKindPureAux:
			applyAuxIDs(&rec, arg, entry)
		}

		err = handle.SetMultiDataForCommit(ctx, rec)
		handle.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// applyAuxIDs implements the per-id classification of spec §4.4 step 3's
// pure_aux branch: consult arg.TableSchemas at the id's parallel index
// and route aux-LOB-meta/aux-LOB-piece ids onto rec, ignoring any other
// classification (plain index aux tablets never touch the binding
// record).
func applyAuxIDs(rec *binding.BindingRecord, arg binding.BatchCreateArg, entry binding.CreateTabletInfo) {
	for j, id := range entry.TabletIDs {
		if j >= len(entry.TableSchemaIdx) {
			continue
		}
		idx := entry.TableSchemaIdx[j]
		if idx < 0 || idx >= len(arg.TableSchemas) {
			continue
		}
		switch arg.TableSchemas[idx] {
		case binding.AuxLOBMeta:
			rec.LOBMetaTabletID = id
		case binding.AuxLOBPiece:
			rec.LOBPieceTabletID = id
		}
	}
}

// UnlockForCreate implements spec §4.4 step 4: the commit or abort
// traversal, selected by p.Commit.
func (d *Driver) UnlockForCreate(ctx context.Context, arg binding.BatchCreateArg, pctx *PrepareCtx, p CreateParams) error {
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
	for i, entry := range arg.Tablets {
		if pctx.SkipIdx[i] || !included(entry, arg) {
			continue
		}
		key := tablet.Key{LSID: arg.LSID, TabletID: entry.DataTabletID}
		if err := d.lock.Unlock(ctx, key, flags); err != nil {
			return err
		}
	}
	return nil
}

// CreateTx drives the full lock/set_log_ts/modify/unlock sequence for a
// batch create (spec §4.4). On the forward path, a lock or set_log_ts
// failure triggers the compensating rollback sweep (spec §7); replay
// failures are returned as-is for a higher layer to re-drive.
func (d *Driver) CreateTx(ctx context.Context, arg binding.BatchCreateArg, p CreateParams) error {
	if err := arg.Valid(); err != nil {
		return err
	}

	pctx, err := d.LockForCreate(ctx, arg, p)
	if err != nil {
		if !p.ForReplay {
			_ = d.RollbackLockForCreate(ctx, arg, pctx, p.TxID)
		}
		return err
	}

	if err := d.SetLogTsForCreate(ctx, arg, pctx, p); err != nil {
		if !p.ForReplay {
			_ = d.RollbackLockForCreate(ctx, arg, pctx, p.TxID)
		}
		return err
	}

	if err := d.ModifyBindingForCreate(ctx, arg, pctx); err != nil {
		return err
	}

	return d.UnlockForCreate(ctx, arg, pctx, p)
}
