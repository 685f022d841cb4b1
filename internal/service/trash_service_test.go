package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/event"
	"devboard-trash/internal/livestore"
	"devboard-trash/internal/metrics"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/restore"
	"devboard-trash/internal/retention"
	"devboard-trash/internal/snapshot"
	"devboard-trash/internal/sweeper"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type trashFixture struct {
	tombstones *repository.MockTombstoneStore
	stores     map[model.ItemType]*livestore.MockStore
	blobs      *blob.MockStore
	bus        *event.InMemoryBus
	metrics    *metrics.TrashMetrics
	service    *TrashService
	now        time.Time
}

func newTrashFixture(t *testing.T) *trashFixture {
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

	policy, err := retention.NewPolicy(30*24*time.Hour, nil)
	require.NoError(t, err)

	tombstones := &repository.MockTombstoneStore{}
	trashMetrics := metrics.NewTrashMetricsWithRegistry(prometheus.NewRegistry())
	engine := restore.NewEngine(tombstones, codecs, stores, passthroughTx{})
	sw := sweeper.NewSweeper(tombstones, codecs, trashMetrics, 100)
	bus := event.NewBus()

	svc := NewTrashService(tombstones, codecs, stores, policy, engine, sw, passthroughTx{}, bus, trashMetrics)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	return &trashFixture{
		tombstones: tombstones,
		stores:     mocks,
		blobs:      blobs,
		bus:        bus,
		metrics:    trashMetrics,
		service:    svc,
		now:        now,
	}
}

func TestSoftDeleteWritesTombstone(t *testing.T) {
	f := newTrashFixture(t)
	actor := model.AuditActor{UserID: "u-1", Username: "root", Role: "admin"}

	closure := model.ChallengeClosure{
		Challenge: model.Challenge{ID: "ch-1", AuthorID: "acct-1", Title: "Two Sum"},
	}

	store := f.stores[model.ItemTypeChallenge]
	store.On("GetForSnapshot", mock.Anything, "ch-1").Return(closure, nil).Once()
	store.On("RemoveLive", mock.Anything, "ch-1").Return(nil).Once()

	var inserted model.Tombstone
	f.tombstones.On("Insert", mock.Anything, mock.AnythingOfType("model.Tombstone")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(model.Tombstone)
		}).
		Return(nil).Once()

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	result, err := f.service.SoftDelete(context.Background(), model.ItemTypeChallenge, "ch-1", actor)

	require.NoError(t, err)
	require.NotEmpty(t, result.TombstoneID)
	require.Equal(t, inserted.ID, result.TombstoneID)

	require.Equal(t, model.ItemTypeChallenge, inserted.ItemType)
	require.Equal(t, "ch-1", inserted.ItemID)
	require.Equal(t, model.StateTombstoned, inserted.State)
	require.Equal(t, int64(1), inserted.Version)
	require.Equal(t, actor, inserted.DeletedBy)
	require.Equal(t, f.now, inserted.DeletedAt)
	require.Equal(t, f.now.Add(30*24*time.Hour), inserted.ExpiresAt)
	require.NotEmpty(t, inserted.Snapshot)

	select {
	case e := <-events:
		require.Equal(t, event.TypeTrashDeleted, e.Type)
		require.Equal(t, "u-1", e.ActorID)
	default:
		t.Fatal("expected a trash.deleted event")
	}

	store.AssertExpectations(t)
	f.tombstones.AssertExpectations(t)
}

func TestSoftDeletePropagatesDuplicate(t *testing.T) {
	f := newTrashFixture(t)

	closure := model.ChallengeClosure{Challenge: model.Challenge{ID: "ch-2"}}
	store := f.stores[model.ItemTypeChallenge]
	store.On("GetForSnapshot", mock.Anything, "ch-2").Return(closure, nil).Once()
	store.On("RemoveLive", mock.Anything, "ch-2").Return(nil).Once()
	f.tombstones.On("Insert", mock.Anything, mock.AnythingOfType("model.Tombstone")).
		Return(model.ErrDuplicateItem).Once()

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	_, err := f.service.SoftDelete(context.Background(), model.ItemTypeChallenge, "ch-2", model.AuditActor{})

	require.ErrorIs(t, err, model.ErrDuplicateItem)
	select {
	case <-events:
		t.Fatal("no event expected for a failed delete")
	default:
	}
}

func TestBulkDeleteReportsPerItemFailures(t *testing.T) {
	f := newTrashFixture(t)

	okClosure := model.ArticleClosure{Article: model.Article{ID: "art-1", Title: "Hello"}}
	articles := f.stores[model.ItemTypeArticle]
	articles.On("GetForSnapshot", mock.Anything, "art-1").Return(okClosure, nil).Once()
	articles.On("RemoveLive", mock.Anything, "art-1").Return(nil).Once()
	f.tombstones.On("Insert", mock.Anything, mock.AnythingOfType("model.Tombstone")).Return(nil).Once()

	threads := f.stores[model.ItemTypeThread]
	threads.On("GetForSnapshot", mock.Anything, "thread-404").
		Return(nil, model.ErrItemNotFound).Once()

	result := f.service.BulkDelete(context.Background(), []model.ItemRef{
		{ItemType: model.ItemTypeArticle, ItemID: "art-1"},
		{ItemType: model.ItemTypeThread, ItemID: "thread-404"},
	}, model.AuditActor{Username: "root"})

	require.Len(t, result.Succeeded, 1)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "thread-404", result.Failed[0].Item.ItemID)
	require.Equal(t, "NotFound", result.Failed[0].Reason)
}

func TestListSweepsBeforeQuerying(t *testing.T) {
	f := newTrashFixture(t)

	entries := []model.TombstoneEntry{
		{ID: "ts-1", ItemType: model.ItemTypeThread, ItemID: "thread-1", State: model.StateTombstoned},
	}

	f.tombstones.On("ListExpired", mock.Anything, f.now, 100).Return([]model.Tombstone{}, nil).Once()
	f.tombstones.On("ListPurgedHoldingPayload", mock.Anything, 100).Return([]model.Tombstone{}, nil).Once()
	f.tombstones.On("List", mock.Anything, model.TombstoneFilter{}, "", 50).
		Return(entries, "next-token", nil).Once()

	page, err := f.service.List(context.Background(), model.TombstoneFilter{}, "", 50)

	require.NoError(t, err)
	require.Equal(t, entries, page.Items)
	require.Equal(t, "next-token", page.NextPageToken)
	f.tombstones.AssertExpectations(t)
}

func TestPurgeNowTransitionsAndDisposes(t *testing.T) {
	f := newTrashFixture(t)

	payload, err := snapshot.NewChallengeCodec().Capture(model.ChallengeClosure{
		Challenge: model.Challenge{ID: "ch-9", Title: "Old"},
	})
	require.NoError(t, err)

	tombstone := model.Tombstone{
		ID:       "ts-9",
		ItemType: model.ItemTypeChallenge,
		ItemID:   "ch-9",
		Snapshot: payload,
		State:    model.StateTombstoned,
		Version:  3,
	}
	purged := tombstone
	purged.State = model.StatePurged
	purged.Version = 4

	f.tombstones.On("Get", mock.Anything, "ts-9").Return(tombstone, nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-9", int64(3), model.StatePurged).Return(purged, nil).Once()
	f.tombstones.On("ClearSnapshot", mock.Anything, "ts-9").Return(nil).Once()

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	require.NoError(t, f.service.PurgeNow(context.Background(), "ts-9", model.AuditActor{UserID: "u-2"}))

	select {
	case e := <-events:
		require.Equal(t, event.TypeTrashPurged, e.Type)
	default:
		t.Fatal("expected a trash.purged event")
	}
	f.tombstones.AssertExpectations(t)
}

func TestPurgeNowReportsPurgeWhenDisposalFails(t *testing.T) {
	f := newTrashFixture(t)

	payload, err := snapshot.NewAccountCodec(f.blobs).Capture(model.AccountClosure{
		Account: model.Account{ID: "acct-9", Email: "x@example.com", AvatarBlob: "avatar-acct-9.png"},
	})
	require.NoError(t, err)

	tombstone := model.Tombstone{
		ID:       "ts-11",
		ItemType: model.ItemTypeAccount,
		ItemID:   "acct-9",
		Snapshot: payload,
		State:    model.StateTombstoned,
		Version:  2,
	}
	purged := tombstone
	purged.State = model.StatePurged
	purged.Version = 3

	f.blobs.On("Remove", "avatar-acct-9.png").Return(errors.New("blob store down"))
	f.tombstones.On("Get", mock.Anything, "ts-11").Return(tombstone, nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-11", int64(2), model.StatePurged).Return(purged, nil).Once()

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	require.NoError(t, f.service.PurgeNow(context.Background(), "ts-11", model.AuditActor{UserID: "u-3"}))

	// The transition landed, so the purge counts even though disposal is left
	// to the sweeper's catch-up pass.
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PurgedTotal.WithLabelValues("account")))
	select {
	case e := <-events:
		require.Equal(t, event.TypeTrashPurged, e.Type)
	default:
		t.Fatal("expected a trash.purged event")
	}
	f.tombstones.AssertNotCalled(t, "ClearSnapshot", mock.Anything, "ts-11")
}

func TestPurgeNowSurfacesVersionConflict(t *testing.T) {
	f := newTrashFixture(t)

	tombstone := model.Tombstone{
		ID:       "ts-10",
		ItemType: model.ItemTypeThread,
		ItemID:   "thread-2",
		State:    model.StateTombstoned,
		Version:  1,
	}

	f.tombstones.On("Get", mock.Anything, "ts-10").Return(tombstone, nil).Once()
	f.tombstones.On("Transition", mock.Anything, "ts-10", int64(1), model.StatePurged).
		Return(model.Tombstone{}, model.ErrVersionConflict).Once()

	err := f.service.PurgeNow(context.Background(), "ts-10", model.AuditActor{})
	require.ErrorIs(t, err, model.ErrVersionConflict)
}
