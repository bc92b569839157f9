package batch

import (
	"context"

	"github.com/li78199800/oceanbase-sub002/lock"
	"github.com/li78199800/oceanbase-sub002/logts"
	"github.com/li78199800/oceanbase-sub002/metamem"
	"github.com/li78199800/oceanbase-sub002/obslog"
	"github.com/li78199800/oceanbase-sub002/recovery"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// Driver orchestrates the create/unbind flows over a LockManager and
// LogTsBinder built on a shared Store and Meta-Memory Manager (spec
// §4.4). It is stateless across calls aside from the transient
// PrepareCtx/UnbindPrepareCtx a caller threads through a single batch
// (spec §9: "The coordinator itself is stateless across calls aside
// from the transient PrepareCtx").
type Driver struct {
	store tablet.Store
	lsSvc tablet.LogStreamService
	lock  *lock.Manager
	logts *logts.Binder
	log   *obslog.Logger
}

// NewDriver wires a Driver over store, using mem as the Meta-Memory
// Manager the underlying LockManager pins/unpins against. lsSvc may be
// nil if the caller never drives a replay path (replay is the only flow
// that needs a LogStream lookup — see tablet.Resolve).
func NewDriver(store tablet.Store, lsSvc tablet.LogStreamService, mem *metamem.Manager, logger *obslog.Logger) *Driver {
	if logger == nil {
		logger = obslog.NewNop()
	}
	return &Driver{
		store: store,
		lsSvc: lsSvc,
		lock:  lock.NewManager(store, mem, logger),
		logts: logts.NewBinder(store, logger),
		log:   logger,
	}
}

// resolveLogStream looks up lsID's LogStream, used only on the replay
// path (spec §9's explicit-service-parameter design note).
func (d *Driver) resolveLogStream(ctx context.Context, lsID int64, forReplay bool) (tablet.LogStream, error) {
	if !forReplay || d.lsSvc == nil {
		return nil, nil
	}
	return d.lsSvc.GetLS(ctx, lsID)
}

// FixUnsyncedCnt delegates to the boot/replay recovery sweep (spec
// §4.5) over keys, bounded to recovery's worker cap.
func (d *Driver) FixUnsyncedCnt(ctx context.Context, keys []tablet.Key) error {
	return recovery.Sweep(ctx, d.store, keys, d.log)
}
