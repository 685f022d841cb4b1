package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/metrics"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/snapshot"
)

func testRegistry(t *testing.T) *snapshot.Registry {
	t.Helper()

	blobs := &blob.MockStore{}
	registry, err := snapshot.NewRegistry(
		snapshot.NewAccountCodec(blobs),
		snapshot.NewJobPostingCodec(),
		snapshot.NewChallengeCodec(),
		snapshot.NewArticleCodec(blobs),
		snapshot.NewThreadCodec(),
	)
	require.NoError(t, err)
	return registry
}

func testMetrics() *metrics.TrashMetrics {
	return metrics.NewTrashMetricsWithRegistry(prometheus.NewRegistry())
}

func challengeTombstone(t *testing.T, registry *snapshot.Registry, id string) model.Tombstone {
	t.Helper()

	codec, err := registry.For(model.ItemTypeChallenge)
	require.NoError(t, err)

	payload, err := codec.Capture(model.ChallengeClosure{
		Challenge: model.Challenge{ID: "ch-" + id, AuthorID: "acct-1", Title: "Two Sum"},
	})
	require.NoError(t, err)

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return model.Tombstone{
		ID:        id,
		ItemType:  model.ItemTypeChallenge,
		ItemID:    "ch-" + id,
		Snapshot:  payload,
		DeletedAt: now.Add(-40 * 24 * time.Hour),
		ExpiresAt: now.Add(-10 * 24 * time.Hour),
		State:     model.StateTombstoned,
		Version:   1,
	}
}

func TestSweepPurgesExpiredTombstones(t *testing.T) {
	registry := testRegistry(t)
	tombstones := &repository.MockTombstoneStore{}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	expired := challengeTombstone(t, registry, "ts-1")
	purged := expired
	purged.State = model.StatePurged
	purged.Version = 2

	tombstones.On("ListExpired", mock.Anything, now, 100).Return([]model.Tombstone{expired}, nil).Once()
	tombstones.On("Transition", mock.Anything, "ts-1", int64(1), model.StatePurged).Return(purged, nil).Once()
	tombstones.On("ClearSnapshot", mock.Anything, "ts-1").Return(nil).Once()
	tombstones.On("ListPurgedHoldingPayload", mock.Anything, 100).Return([]model.Tombstone{}, nil).Once()

	sw := NewSweeper(tombstones, registry, testMetrics(), 100)
	result, err := sw.Sweep(context.Background(), now)

	require.NoError(t, err)
	require.Equal(t, 1, result.Purged)
	require.Equal(t, 1, result.Disposed)
	require.Zero(t, result.Skipped)
	require.Empty(t, result.Errors)
	tombstones.AssertExpectations(t)
}

func TestSweepSkipsWhenRestoreRacedAhead(t *testing.T) {
	registry := testRegistry(t)
	tombstones := &repository.MockTombstoneStore{}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	expired := challengeTombstone(t, registry, "ts-2")

	tombstones.On("ListExpired", mock.Anything, now, 100).Return([]model.Tombstone{expired}, nil).Once()
	tombstones.On("Transition", mock.Anything, "ts-2", int64(1), model.StatePurged).
		Return(model.Tombstone{}, model.ErrVersionConflict).Once()
	tombstones.On("ListPurgedHoldingPayload", mock.Anything, 100).Return([]model.Tombstone{}, nil).Once()

	sw := NewSweeper(tombstones, registry, testMetrics(), 100)
	result, err := sw.Sweep(context.Background(), now)

	require.NoError(t, err)
	require.Zero(t, result.Purged)
	require.Equal(t, 1, result.Skipped)
	tombstones.AssertNotCalled(t, "ClearSnapshot", mock.Anything, "ts-2")
}

func TestSweepFinishesInterruptedDisposal(t *testing.T) {
	registry := testRegistry(t)
	tombstones := &repository.MockTombstoneStore{}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	// A purged row still holding its payload, left by a crash between the
	// transition and the disposal step.
	leftover := challengeTombstone(t, registry, "ts-3")
	leftover.State = model.StatePurged
	leftover.Version = 2

	tombstones.On("ListExpired", mock.Anything, now, 100).Return([]model.Tombstone{}, nil).Once()
	tombstones.On("ListPurgedHoldingPayload", mock.Anything, 100).
		Return([]model.Tombstone{leftover}, nil).Once()
	tombstones.On("ClearSnapshot", mock.Anything, "ts-3").Return(nil).Once()

	sw := NewSweeper(tombstones, registry, testMetrics(), 100)
	result, err := sw.Sweep(context.Background(), now)

	require.NoError(t, err)
	require.Zero(t, result.Purged)
	require.Equal(t, 1, result.Disposed)
	tombstones.AssertExpectations(t)
}

func TestSweepKeepsPayloadWhenDisposalFails(t *testing.T) {
	blobs := &blob.MockStore{}
	registry, err := snapshot.NewRegistry(
		snapshot.NewAccountCodec(blobs),
		snapshot.NewJobPostingCodec(),
		snapshot.NewChallengeCodec(),
		snapshot.NewArticleCodec(blobs),
		snapshot.NewThreadCodec(),
	)
	require.NoError(t, err)

	codec, err := registry.For(model.ItemTypeAccount)
	require.NoError(t, err)
	payload, err := codec.Capture(model.AccountClosure{
		Account: model.Account{ID: "acct-5", Email: "x@example.com", AvatarBlob: "avatar-acct-5.png"},
	})
	require.NoError(t, err)

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	expired := model.Tombstone{
		ID:        "ts-4",
		ItemType:  model.ItemTypeAccount,
		ItemID:    "acct-5",
		Snapshot:  payload,
		ExpiresAt: now.Add(-time.Hour),
		State:     model.StateTombstoned,
		Version:   1,
	}
	purged := expired
	purged.State = model.StatePurged
	purged.Version = 2

	blobs.On("Remove", "avatar-acct-5.png").Return(assertableError("blob store down"))

	tombstones := &repository.MockTombstoneStore{}
	tombstones.On("ListExpired", mock.Anything, now, 100).Return([]model.Tombstone{expired}, nil).Once()
	tombstones.On("Transition", mock.Anything, "ts-4", int64(1), model.StatePurged).Return(purged, nil).Once()
	tombstones.On("ListPurgedHoldingPayload", mock.Anything, 100).Return([]model.Tombstone{}, nil).Once()

	m := testMetrics()
	sw := NewSweeper(tombstones, registry, m, 100)
	result, err := sw.Sweep(context.Background(), now)

	require.NoError(t, err)
	require.Equal(t, 1, result.Purged)
	require.Zero(t, result.Disposed)
	require.Len(t, result.Errors, 1)
	// The row is purged, only its disposal is pending, so it is not part of
	// the expired backlog.
	require.Zero(t, result.Remaining)
	require.Zero(t, testutil.ToFloat64(m.ExpiredBacklog))
	// The snapshot stays in place for the next pass.
	tombstones.AssertNotCalled(t, "ClearSnapshot", mock.Anything, "ts-4")
}

func TestSweepStopsWhenBatchCannotProgress(t *testing.T) {
	registry := testRegistry(t)
	tombstones := &repository.MockTombstoneStore{}
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	// A full batch whose transitions all fail stays expired, so re-listing
	// would return the same rows forever. One attempt per pass, no more.
	first := challengeTombstone(t, registry, "ts-6")
	second := challengeTombstone(t, registry, "ts-7")

	tombstones.On("ListExpired", mock.Anything, now, 2).
		Return([]model.Tombstone{first, second}, nil).Once()
	tombstones.On("Transition", mock.Anything, "ts-6", int64(1), model.StatePurged).
		Return(model.Tombstone{}, assertableError("connection reset")).Once()
	tombstones.On("Transition", mock.Anything, "ts-7", int64(1), model.StatePurged).
		Return(model.Tombstone{}, assertableError("connection reset")).Once()
	tombstones.On("ListPurgedHoldingPayload", mock.Anything, 2).Return([]model.Tombstone{}, nil).Once()

	m := testMetrics()
	sw := NewSweeper(tombstones, registry, m, 2)
	result, err := sw.Sweep(context.Background(), now)

	require.NoError(t, err)
	require.Zero(t, result.Purged)
	require.Equal(t, 2, result.Remaining)
	require.Len(t, result.Errors, 2)
	require.Equal(t, float64(2), testutil.ToFloat64(m.ExpiredBacklog))
	tombstones.AssertNumberOfCalls(t, "ListExpired", 1)
	tombstones.AssertExpectations(t)
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
