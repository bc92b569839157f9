package visibility

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/cerrs"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

func TestCheckSchemaVersionRejectsStale(t *testing.T) {
	rec := binding.New(1001)
	rec.SchemaVersion = 10
	mt := tablet.NewMemTablet(rec)

	err := CheckSchemaVersion(context.Background(), mt, 5)
	require.True(t, cerrs.Is(err, cerrs.KindSchemaRetry))
}

func TestCheckSchemaVersionAcceptsCurrentOrNewer(t *testing.T) {
	rec := binding.New(1001)
	rec.SchemaVersion = 10
	mt := tablet.NewMemTablet(rec)

	require.NoError(t, CheckSchemaVersion(context.Background(), mt, 10))
	require.NoError(t, CheckSchemaVersion(context.Background(), mt, 11))
}

func TestCheckSnapshotReadableRedefinedTablet(t *testing.T) {
	rec := binding.New(3000)
	rec.Redefined = true
	rec.SnapshotVersion = 777
	mt := tablet.NewMemTablet(rec)

	require.True(t, cerrs.Is(CheckSnapshotReadable(context.Background(), mt, 800), cerrs.KindSchemaRetry))
	require.NoError(t, CheckSnapshotReadable(context.Background(), mt, 700))
}

func TestCheckSnapshotReadableNonRedefinedTablet(t *testing.T) {
	rec := binding.New(3101)
	rec.Redefined = false
	rec.SnapshotVersion = 777
	mt := tablet.NewMemTablet(rec)

	require.NoError(t, CheckSnapshotReadable(context.Background(), mt, 800))
	require.True(t, cerrs.Is(CheckSnapshotReadable(context.Background(), mt, 700), cerrs.KindSnapshotDiscarded))
}
