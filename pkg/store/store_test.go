package store_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/store"
)

var t0 = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(store.DatabaseConfig{ConnectionString: ":memory:", Migrate: true},
		logger.New().WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	return db
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := store.NewOutboxRepository(openDB(t))

	first, err := repo.NewEvent(ctx, investigation.EventOpened, investigation.Event{Type: investigation.EventOpened, Investigation: "i1"})
	require.NoError(t, err)
	second, err := repo.NewEvent(ctx, investigation.EventShareRevealed, investigation.Event{Type: investigation.EventShareRevealed, Investigation: "i1", ShareIndex: 2})
	require.NoError(t, err)

	pending, err := repo.GetUnprocessedEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].EventId)
	assert.Contains(t, pending[1].Payload, `"shareIndex":2`)

	limited, err := repo.GetUnprocessedEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, first))
	pending, err = repo.GetUnprocessedEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].EventId)

	processed, err := repo.GetEvent(ctx, first)
	require.NoError(t, err)
	assert.True(t, processed.ProcessedAt.Valid)
}

func TestOutboxRetriesPark(t *testing.T) {
	ctx := context.Background()
	repo := store.NewOutboxRepository(openDB(t))
	id, err := repo.NewEvent(ctx, investigation.EventOpened, investigation.Event{Investigation: "i1"})
	require.NoError(t, err)

	for i := 0; i < store.MaxRetries-1; i++ {
		require.NoError(t, repo.UpdateRetryValue(ctx, id))
	}
	pending, err := repo.GetUnprocessedEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, store.MaxRetries-1, pending[0].Retry)

	require.NoError(t, repo.UpdateRetryValue(ctx, id))
	pending, err = repo.GetUnprocessedEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	parked, err := repo.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.MaxRetries, parked.Retry)
	assert.False(t, parked.ProcessedAt.Valid)

	assert.Error(t, repo.UpdateRetryValue(ctx, "missing"))
}

func openInvestigation(t *testing.T, id, pr string) *investigation.Request {
	t.Helper()
	bj := babyjub.NewContext()
	var trustees []investigation.Trustee
	for i := 1; i <= 3; i++ {
		k, err := bj.GenerateKey(nil)
		require.NoError(t, err)
		trustees = append(trustees, investigation.Trustee{PublicKey: bj.PublicKey(k), Index: uint8(i)})
	}
	r, err := investigation.Open(investigation.OpenParams{
		ID: id, Authority: "regulator", ProofRequest: pr, Owner: "holder",
		Trustees: trustees, RequiredShareCount: 2,
	}, t0)
	require.NoError(t, err)
	return r
}

func TestInvestigationSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInvestigationRepository(openDB(t))
	f := babyjub.NewContext().Field()

	r := openInvestigation(t, "i1", "PR1")
	require.NoError(t, repo.SaveInvestigation(ctx, r.Record()))
	require.NoError(t, repo.SaveInvestigation(ctx, openInvestigation(t, "i2", "PR1").Record()))
	require.NoError(t, repo.SaveInvestigation(ctx, openInvestigation(t, "i3", "PR2").Record()))

	for _, idx := range []uint8{1, 3} {
		_, err := r.Reveal(idx, f.FromInt64(int64(idx)*7), t0.Add(time.Minute))
		require.NoError(t, err)
	}
	require.NoError(t, repo.SaveInvestigation(ctx, r.Record()))

	got, err := repo.GetInvestigation(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, investigation.Ready, got.Status)
	require.Len(t, got.SecretShares, 3)
	assert.Equal(t, investigation.ShareRevealed, got.SecretShares[2].Status)
	require.NotNil(t, got.SecretShares[2].Share)
	assert.Equal(t, "21", got.SecretShares[2].Share.String())
	assert.Nil(t, got.SecretShares[1].Share)

	list, err := repo.ByProofRequest(ctx, "PR1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "i1", list[0].ID)
	assert.Equal(t, investigation.Collecting, list[1].Status)

	_, err = repo.GetInvestigation(ctx, "nope")
	assert.True(t, errors.Is(err, investigation.ErrNotFound))
}

func TestDatabaseDriverSelection(t *testing.T) {
	assert.Equal(t, store.DriverSqlite, store.DatabaseConfigJson{ConnectionString: ":memory:"}.ConvertToDomain().Driver)
	assert.Equal(t, store.DriverPostgres, store.DatabaseConfigJson{Driver: "Postgres"}.ConvertToDomain().Driver)

	_, err := store.Open(store.DatabaseConfig{Driver: "mysql", ConnectionString: "x"}, logger.New().WithOutput(&bytes.Buffer{}))
	assert.ErrorContains(t, err, "unsupported database driver")
}
