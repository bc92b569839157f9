// Package visibility implements the read-path predicates that let
// concurrent readers observe a consistent pre- or post-DDL view of a
// tablet's binding (spec §4.6). Neither predicate mutates state.
package visibility

import (
	"context"

	"github.com/li78199800/oceanbase-sub002/cerrs"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// CheckSchemaVersion rejects queries compiled against a pre-DDL schema
// (spec §4.6): it fails with cerrs.KindSchemaRetry if ver is older than
// the tablet's current binding schema version.
func CheckSchemaVersion(ctx context.Context, handle tablet.Tablet, ver int64) error {
	handle.RLock()
	defer handle.RUnlock()

	rec, err := handle.GetDDLData(ctx)
	if err != nil {
		return err
	}
	if ver < rec.SchemaVersion {
		return cerrs.SchemaRetry()
	}
	return nil
}

// CheckSnapshotReadable implements spec §4.6: a redefined tablet is only
// readable by snapshots taken before its redefinition activated; a
// not-yet-redefined tablet is only readable by snapshots taken at or
// after its binding activated.
func CheckSnapshotReadable(ctx context.Context, handle tablet.Tablet, snap int64) error {
	handle.RLock()
	defer handle.RUnlock()

	rec, err := handle.GetDDLData(ctx)
	if err != nil {
		return err
	}

	if rec.Redefined {
		if snap >= rec.SnapshotVersion {
			return cerrs.SchemaRetry()
		}
		return nil
	}

	if snap < rec.SnapshotVersion {
		return cerrs.SnapshotDiscarded()
	}
	return nil
}
