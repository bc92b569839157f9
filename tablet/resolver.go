package tablet

import (
	"context"

	"github.com/li78199800/oceanbase-sub002/cerrs"
	"github.com/li78199800/oceanbase-sub002/txslot"
)

// ResolveFlags carries the per-call context Resolve needs: whether this
// is a replay invocation and the incoming log ts (spec §4.7).
type ResolveFlags struct {
	ForReplay bool
	LogTS     int64
}

// Resolved is the outcome of a successful resolve: the tablet handle and
// its current slot, read once under the read lock so callers don't
// re-acquire it (spec §5: "Visibility checks take the read side").
type Resolved struct {
	Handle Tablet
	Slot   txslot.TxSlot
}

// Resolve implements spec §4.7's get_tablet resolution matrix: it looks
// the tablet up in store, maps not-exist and already-frozen outcomes to
// the no-update-needed/retry signals the batch phases expect, and
// otherwise returns the handle with its current slot.
func Resolve(ctx context.Context, store Store, ls LogStream, key Key, flags ResolveFlags) (Resolved, error) {
	handle, ok, err := store.GetTablet(ctx, key)
	if err != nil {
		return Resolved{}, err
	}
	if !ok {
		return Resolved{}, resolveNotExist(ctx, ls, flags)
	}

	handle.RLock()
	slot, slotErr := handle.GetTxData(ctx)
	handle.RUnlock()
	if slotErr != nil {
		return Resolved{}, slotErr
	}

	if slot.TabletStatus == txslot.StatusDeleted {
		// "deleted tablet status" during replay maps to not-exist, then
		// to no-update-needed (spec §4.7). On the forward path this is
		// also benign: the tablet is gone as far as this transaction is
		// concerned.
		return Resolved{}, cerrs.NoUpdateNeeded()
	}

	if flags.LogTS != txslot.InvalidLogTS && slot.TxLogTS != txslot.PendingLogTS &&
		(flags.ForReplay || !slot.Locked()) && flags.LogTS <= slot.TxLogTS {
		// Tablet already frozen at a >= log ts. PendingLogTS is a sentinel,
		// not a durable log ts, and on the forward path a slot held by a
		// transaction is left to the caller's tx id comparison (retry or
		// reentrant no-op).
		return Resolved{}, cerrs.NoUpdateNeeded()
	}

	return Resolved{Handle: handle, Slot: slot}, nil
}

func resolveNotExist(ctx context.Context, ls LogStream, flags ResolveFlags) error {
	if !flags.ForReplay {
		// forward path: not-exist is benign, a concurrent flow removed
		// the tablet.
		return cerrs.NoUpdateNeeded()
	}
	if ls == nil {
		return cerrs.Unexpected("replay resolve requires a log stream")
	}
	checkpoint, err := ls.TabletChangeCheckpointTS(ctx)
	if err != nil {
		return err
	}
	if flags.LogTS < checkpoint {
		// The tablet was deleted before this checkpoint; treat as a
		// benign no-op.
		return cerrs.NoUpdateNeeded()
	}
	// The tablet may yet appear (its creation hasn't replayed yet);
	// ask the caller to retry.
	return cerrs.Retry(nil)
}
