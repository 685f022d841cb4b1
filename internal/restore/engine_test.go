package restore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/livestore"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/snapshot"
)

// passthroughTx satisfies database.TxRunner without a real database.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	tombstones *repository.MockTombstoneStore
	stores     map[model.ItemType]*livestore.MockStore
	engine     *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blobs := &blob.MockStore{}
	codecs, err := snapshot.NewRegistry(
		snapshot.NewAccountCodec(blobs),
		snapshot.NewJobPostingCodec(),
		snapshot.NewChallengeCodec(),
		snapshot.NewArticleCodec(blobs),
		snapshot.NewThreadCodec(),
	)
	require.NoError(t, err)

	mocks := map[model.ItemType]*livestore.MockStore{}
	all := make([]livestore.Store, 0, len(model.AllItemTypes()))
	for _, itemType := range model.AllItemTypes() {
		m := &livestore.MockStore{Type: itemType}
		mocks[itemType] = m
		all = append(all, m)
	}

	stores, err := livestore.NewRegistry(all...)
	require.NoError(t, err)

	tombstones := &repository.MockTombstoneStore{}
	return &fixture{
		tombstones: tombstones,
		stores:     mocks,
		engine:     NewEngine(tombstones, codecs, stores, passthroughTx{}),
	}
}

func threadTombstone(t *testing.T, id string, closure model.ThreadClosure) model.Tombstone {
	t.Helper()

	payload, err := snapshot.NewThreadCodec().Capture(closure)
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return model.Tombstone{
		ID:        id,
		ItemType:  model.ItemTypeThread,
		ItemID:    closure.Thread.ID,
		Snapshot:  payload,
		DeletedAt: now.Add(-24 * time.Hour),
		ExpiresAt: now.Add(29 * 24 * time.Hour),
		State:     model.StateTombstoned,
		Version:   1,
	}
}

func TestRestoreReinsertsClosure(t *testing.T) {
	f := newFixture(t)
	actor := model.AuditActor{UserID: "u-1", Username: "root", Role: "admin"}

	closure := model.ThreadClosure{
		Thread: model.Thread{ID: "thread-1", AuthorID: "acct-2", Title: "Show and tell"},
		Comments: []model.ThreadComment{
			{ID: "c-1", ThreadID: "thread-1", AuthorID: "acct-3", Body: "Nice."},
		},
	}
	tombstone := threadTombstone(t, "ts-1", closure)
	restored := tombstone
	restored.State = model.StateRestored
	restored.Version = 2

	store := f.stores[model.ItemTypeThread]
	f.tombstones.On("Get", mock.Anything, "ts-1").Return(tombstone, nil).Once()
	store.On("Exists", mock.Anything, "thread-1").Return(false, "", nil).Once()
	store.On("ResolveDependencies", mock.Anything, closure).Return(closure, []string(nil), nil).Once()
	store.On("InsertLive", mock.Anything, closure).Return("thread-1", nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-1", int64(1), model.StateRestored).Return(restored, nil).Once()
	f.tombstones.On("SetRestoredItemID", mock.Anything, "ts-1", "thread-1").Return(nil).Once()

	summary, err := f.engine.Restore(context.Background(), "ts-1", actor)

	require.NoError(t, err)
	require.Equal(t, "thread-1", summary.RestoredItemID)
	require.Equal(t, 1, summary.Dependents)
	require.Empty(t, summary.DroppedRefs)
	f.tombstones.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRestoreDropsDanglingReferences(t *testing.T) {
	f := newFixture(t)

	closure := model.JobPostingClosure{
		Posting: model.JobPosting{ID: "job-1", CompanyID: "co-1", Title: "Go engineer"},
		Tags: []model.JobPostingTag{
			{PostingID: "job-1", TagID: "tag-go"},
			{PostingID: "job-1", TagID: "tag-retired"},
		},
	}
	payload, err := snapshot.NewJobPostingCodec().Capture(closure)
	require.NoError(t, err)
	tombstone := model.Tombstone{
		ID:       "ts-2",
		ItemType: model.ItemTypeJobPosting,
		ItemID:   "job-1",
		Snapshot: payload,
		State:    model.StateTombstoned,
		Version:  1,
	}

	pruned := closure
	pruned.Tags = closure.Tags[:1]

	store := f.stores[model.ItemTypeJobPosting]
	f.tombstones.On("Get", mock.Anything, "ts-2").Return(tombstone, nil).Once()
	store.On("Exists", mock.Anything, "job-1").Return(false, "", nil).Once()
	store.On("ResolveDependencies", mock.Anything, closure).
		Return(pruned, []string{"tag:tag-retired"}, nil).Once()
	store.On("InsertLive", mock.Anything, pruned).Return("job-1", nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-2", int64(1), model.StateRestored).
		Return(tombstone, nil).Once()
	f.tombstones.On("SetRestoredItemID", mock.Anything, "ts-2", "job-1").Return(nil).Once()

	summary, err := f.engine.Restore(context.Background(), "ts-2", model.AuditActor{Username: "root"})

	require.NoError(t, err)
	require.Equal(t, []string{"tag:tag-retired"}, summary.DroppedRefs)
	require.Equal(t, 1, summary.Dependents)
}

func TestRestoreConflictOnIdentifierReuse(t *testing.T) {
	f := newFixture(t)

	closure := model.ThreadClosure{Thread: model.Thread{ID: "thread-9", Title: "Original"}}
	tombstone := threadTombstone(t, "ts-3", closure)

	// A different record now lives under thread-9.
	otherFingerprint, err := snapshot.Fingerprint(model.Thread{ID: "thread-9", Title: "Squatter"})
	require.NoError(t, err)

	store := f.stores[model.ItemTypeThread]
	f.tombstones.On("Get", mock.Anything, "ts-3").Return(tombstone, nil).Once()
	store.On("Exists", mock.Anything, "thread-9").Return(true, otherFingerprint, nil).Once()

	_, err = f.engine.Restore(context.Background(), "ts-3", model.AuditActor{})

	require.ErrorIs(t, err, model.ErrRestoreConflict)
	store.AssertNotCalled(t, "InsertLive", mock.Anything, mock.Anything)
	f.tombstones.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestoreSkipsInsertWhenOccupantMatches(t *testing.T) {
	f := newFixture(t)

	closure := model.ThreadClosure{Thread: model.Thread{ID: "thread-5", Title: "Same content"}}
	tombstone := threadTombstone(t, "ts-4", closure)

	sameFingerprint, err := snapshot.Fingerprint(closure.Thread)
	require.NoError(t, err)

	store := f.stores[model.ItemTypeThread]
	f.tombstones.On("Get", mock.Anything, "ts-4").Return(tombstone, nil).Once()
	store.On("Exists", mock.Anything, "thread-5").Return(true, sameFingerprint, nil).Once()
	store.On("ResolveDependencies", mock.Anything, closure).Return(closure, []string(nil), nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-4", int64(1), model.StateRestored).
		Return(tombstone, nil).Once()
	f.tombstones.On("SetRestoredItemID", mock.Anything, "ts-4", "thread-5").Return(nil).Once()

	summary, err := f.engine.Restore(context.Background(), "ts-4", model.AuditActor{})

	require.NoError(t, err)
	require.Equal(t, "thread-5", summary.RestoredItemID)
	store.AssertNotCalled(t, "InsertLive", mock.Anything, mock.Anything)
}

func TestRestoreIsIdempotentOnRestoredTombstone(t *testing.T) {
	f := newFixture(t)

	tombstone := model.Tombstone{
		ID:             "ts-5",
		ItemType:       model.ItemTypeArticle,
		ItemID:         "art-1",
		State:          model.StateRestored,
		Version:        2,
		RestoredItemID: "art-1",
	}

	f.tombstones.On("Get", mock.Anything, "ts-5").Return(tombstone, nil).Once()

	summary, err := f.engine.Restore(context.Background(), "ts-5", model.AuditActor{})

	require.NoError(t, err)
	require.Equal(t, "art-1", summary.RestoredItemID)
	f.stores[model.ItemTypeArticle].AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestRestoreRefusesPurgedTombstone(t *testing.T) {
	f := newFixture(t)

	tombstone := model.Tombstone{
		ID:       "ts-6",
		ItemType: model.ItemTypeAccount,
		ItemID:   "acct-1",
		State:    model.StatePurged,
		Version:  2,
	}

	f.tombstones.On("Get", mock.Anything, "ts-6").Return(tombstone, nil).Once()

	_, err := f.engine.Restore(context.Background(), "ts-6", model.AuditActor{})
	require.ErrorIs(t, err, model.ErrIllegalTransition)
}
