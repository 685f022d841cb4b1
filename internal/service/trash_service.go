package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"devboard-trash/internal/database"
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

// TrashService orchestrates the tombstone lifecycle: soft delete, listing,
// restore and purge. It owns the legal-transition enforcement at the API
// surface; the repository enforces it again at the storage layer.
type TrashService struct {
	tombstones repository.TombstoneStore
	codecs     *snapshot.Registry
	stores     *livestore.Registry
	policy     *retention.Policy
	engine     *restore.Engine
	sweeper    *sweeper.Sweeper
	tx         database.TxRunner
	bus        event.Bus
	metrics    *metrics.TrashMetrics
	clock      func() time.Time
}

func NewTrashService(
	tombstones repository.TombstoneStore,
	codecs *snapshot.Registry,
	stores *livestore.Registry,
	policy *retention.Policy,
	engine *restore.Engine,
	sw *sweeper.Sweeper,
	tx database.TxRunner,
	bus event.Bus,
	m *metrics.TrashMetrics,
) *TrashService {
	return &TrashService{
		tombstones: tombstones,
		codecs:     codecs,
		stores:     stores,
		policy:     policy,
		engine:     engine,
		sweeper:    sw,
		tx:         tx,
		bus:        bus,
		metrics:    m,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Tests use this to pin deletion times.
func (s *TrashService) SetClock(clock func() time.Time) {
	if clock != nil {
		s.clock = clock
	}
}

// SoftDelete snapshots a live record, removes it, and writes the tombstone.
// Capture, removal and tombstone insert share one transaction: if any step
// fails the live record stays untouched and no tombstone exists.
func (s *TrashService) SoftDelete(ctx context.Context, itemType model.ItemType, itemID string, actor model.AuditActor) (model.DeleteItemResult, error) {
	store, err := s.stores.For(itemType)
	if err != nil {
		return model.DeleteItemResult{}, err
	}
	codec, err := s.codecs.For(itemType)
	if err != nil {
		return model.DeleteItemResult{}, err
	}

	deletedAt := s.clock()
	tombstone := model.Tombstone{
		ID:        uuid.NewString(),
		ItemType:  itemType,
		ItemID:    itemID,
		DeletedBy: actor,
		DeletedAt: deletedAt,
		ExpiresAt: s.policy.ExpiryFor(itemType, deletedAt),
		State:     model.StateTombstoned,
		Version:   1,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		closure, err := store.GetForSnapshot(ctx, itemID)
		if err != nil {
			return err
		}

		payload, err := codec.Capture(closure)
		if err != nil {
			return fmt.Errorf("capture %s %s: %w", itemType, itemID, err)
		}
		tombstone.Snapshot = payload

		if err := store.RemoveLive(ctx, itemID); err != nil {
			return err
		}

		return s.tombstones.Insert(ctx, tombstone)
	})
	if err != nil {
		return model.DeleteItemResult{}, err
	}

	s.metrics.RecordDeleted(string(itemType))
	s.publish(event.TypeTrashDeleted, actor, map[string]any{
		"tombstone_id": tombstone.ID,
		"item_type":    itemType,
		"item_id":      itemID,
	})

	return model.DeleteItemResult{
		TombstoneID: tombstone.ID,
		ExpiresAt:   tombstone.ExpiresAt.Format(time.RFC3339Nano),
	}, nil
}

// BulkDelete soft-deletes each item independently. One bad item never fails
// the batch; every failure is reported per item with a named reason.
func (s *TrashService) BulkDelete(ctx context.Context, items []model.ItemRef, actor model.AuditActor) model.BulkDeleteResult {
	result := model.BulkDeleteResult{
		Succeeded: make([]model.DeleteItemResult, 0, len(items)),
		Failed:    make([]model.BulkDeleteFailure, 0),
	}

	for _, item := range items {
		deleted, err := s.SoftDelete(ctx, item.ItemType, item.ItemID, actor)
		if err != nil {
			result.Failed = append(result.Failed, model.BulkDeleteFailure{
				Item:   item,
				Reason: failureReason(err),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, deleted)
	}

	return result
}

// List returns a page of tombstone entries, payloads excluded. A synchronous
// sweep runs first so callers never see tombstones that are already past
// expiry; a sweep failure degrades to a stale listing rather than an error.
func (s *TrashService) List(ctx context.Context, filter model.TombstoneFilter, pageToken string, limit int) (model.TombstonePage, error) {
	if _, err := s.sweeper.Sweep(ctx, s.clock()); err != nil {
		slog.Warn("pre-list sweep failed", "error", err)
	}

	items, nextToken, err := s.tombstones.List(ctx, filter, pageToken, limit)
	if err != nil {
		return model.TombstonePage{}, err
	}

	return model.TombstonePage{Items: items, NextPageToken: nextToken}, nil
}

// Restore delegates to the restore engine and reports lifecycle events.
func (s *TrashService) Restore(ctx context.Context, tombstoneID string, actor model.AuditActor) (model.RestoredSummary, error) {
	summary, err := s.engine.Restore(ctx, tombstoneID, actor)
	if err != nil {
		return model.RestoredSummary{}, err
	}

	s.metrics.RecordRestored(restoredItemTypeLabel(ctx, s.tombstones, tombstoneID))
	s.publish(event.TypeTrashRestored, actor, map[string]any{
		"tombstone_id":     tombstoneID,
		"restored_item_id": summary.RestoredItemID,
		"dropped_refs":     summary.DroppedRefs,
	})

	return summary, nil
}

// PurgeNow is the operator-triggered immediate purge: same transition
// semantics as the sweeper, without waiting for expiry.
func (s *TrashService) PurgeNow(ctx context.Context, tombstoneID string, actor model.AuditActor) error {
	t, err := s.tombstones.Get(ctx, tombstoneID)
	if err != nil {
		return err
	}

	purged, err := s.tombstones.Transition(ctx, t.ID, t.Version, model.StatePurged)
	if err != nil {
		return err
	}

	// The purge is committed once the transition lands; report it before
	// disposal, which may fail and be retried by the sweeper later.
	s.metrics.RecordPurged(string(t.ItemType))
	s.publish(event.TypeTrashPurged, actor, map[string]any{
		"tombstone_id": t.ID,
		"item_type":    t.ItemType,
		"item_id":      t.ItemID,
	})

	if len(purged.Snapshot) > 0 {
		codec, err := s.codecs.For(purged.ItemType)
		if err != nil {
			return err
		}
		if err := codec.Dispose(ctx, purged.Snapshot); err != nil {
			// The sweeper's disposal catch-up pass will retry.
			slog.Error("disposal failed after purge", "tombstone_id", t.ID, "error", err)
			return nil
		}
	}
	if err := s.tombstones.ClearSnapshot(ctx, t.ID); err != nil {
		slog.Error("clear snapshot failed after purge", "tombstone_id", t.ID, "error", err)
	}

	return nil
}

// Sweep runs one manual sweep pass.
func (s *TrashService) Sweep(ctx context.Context, actor model.AuditActor) (sweeper.Result, error) {
	result, err := s.sweeper.Sweep(ctx, s.clock())
	if err != nil {
		return result, err
	}

	if result.Purged > 0 {
		s.publish(event.TypeTrashSwept, actor, map[string]any{
			"purged":  result.Purged,
			"skipped": result.Skipped,
		})
	}

	return result, nil
}

func (s *TrashService) publish(t event.Type, actor model.AuditActor, payload map[string]any) {
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: s.clock().Format(time.RFC3339Nano),
		ActorID:   actor.UserID,
	})
}

// failureReason names an error for per-item bulk reporting.
func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrItemNotFound):
		return "NotFound"
	case errors.Is(err, model.ErrDuplicateItem):
		return "DuplicateItem"
	case errors.Is(err, model.ErrUnknownItemType):
		return "UnknownItemType"
	default:
		return "Internal"
	}
}

func restoredItemTypeLabel(ctx context.Context, tombstones repository.TombstoneStore, id string) string {
	t, err := tombstones.Get(ctx, id)
	if err != nil {
		return "unknown"
	}
	return string(t.ItemType)
}
