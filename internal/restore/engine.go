package restore

import (
	"context"
	"fmt"
	"log/slog"

	"devboard-trash/internal/database"
	"devboard-trash/internal/livestore"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/snapshot"
)

// Engine reconstructs deleted records from their tombstone snapshots. All live
// writes plus the tombstone transition run inside one database transaction, so
// a restore either fully happens or leaves no trace.
type Engine struct {
	tombstones repository.TombstoneStore
	codecs     *snapshot.Registry
	stores     *livestore.Registry
	tx         database.TxRunner
}

func NewEngine(tombstones repository.TombstoneStore, codecs *snapshot.Registry, stores *livestore.Registry, tx database.TxRunner) *Engine {
	return &Engine{tombstones: tombstones, codecs: codecs, stores: stores, tx: tx}
}

// Restore brings a tombstoned record back to the live store.
//
// Restore is idempotent keyed on the tombstone id: a tombstone already in the
// restored state returns the original result instead of inserting again. An
// identifier reused by an unrelated record yields ErrRestoreConflict; the
// engine never overwrites a live row.
func (e *Engine) Restore(ctx context.Context, tombstoneID string, actor model.AuditActor) (model.RestoredSummary, error) {
	t, err := e.tombstones.Get(ctx, tombstoneID)
	if err != nil {
		return model.RestoredSummary{}, err
	}

	switch t.State {
	case model.StateRestored:
		// A previous restore won; report its outcome.
		return model.RestoredSummary{RestoredItemID: t.RestoredItemID}, nil
	case model.StatePurged:
		return model.RestoredSummary{}, fmt.Errorf("%w: tombstone is purged", model.ErrIllegalTransition)
	}

	codec, err := e.codecs.For(t.ItemType)
	if err != nil {
		return model.RestoredSummary{}, err
	}
	store, err := e.stores.For(t.ItemType)
	if err != nil {
		return model.RestoredSummary{}, err
	}

	closure, err := codec.Restore(t.Snapshot)
	if err != nil {
		return model.RestoredSummary{}, err
	}

	capturedFingerprint, err := snapshot.PayloadFingerprint(t.Snapshot)
	if err != nil {
		return model.RestoredSummary{}, err
	}

	var summary model.RestoredSummary
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		present, liveFingerprint, err := store.Exists(ctx, t.ItemID)
		if err != nil {
			return err
		}

		// Identifier reuse check: an occupant whose content does not match the
		// snapshot is an unrelated record that claimed the id after deletion.
		if present && liveFingerprint != capturedFingerprint {
			return fmt.Errorf("%w: %s %s", model.ErrRestoreConflict, t.ItemType, t.ItemID)
		}

		resolved, dropped, err := store.ResolveDependencies(ctx, closure)
		if err != nil {
			return err
		}

		restoredID := t.ItemID
		if !present {
			restoredID, err = store.InsertLive(ctx, resolved)
			if err != nil {
				return fmt.Errorf("reinsert %s %s: %w", t.ItemType, t.ItemID, err)
			}
		}

		if _, err := e.tombstones.Transition(ctx, t.ID, t.Version, model.StateRestored); err != nil {
			return err
		}
		if err := e.tombstones.SetRestoredItemID(ctx, t.ID, restoredID); err != nil {
			return err
		}

		summary = model.RestoredSummary{
			RestoredItemID: restoredID,
			Dependents:     resolved.DependentCount(),
			DroppedRefs:    dropped,
		}
		return nil
	})
	if err != nil {
		return model.RestoredSummary{}, err
	}

	if len(summary.DroppedRefs) > 0 {
		slog.Warn("restore dropped dangling references",
			"tombstone_id", t.ID,
			"item_type", t.ItemType,
			"item_id", t.ItemID,
			"dropped", summary.DroppedRefs,
			"actor", actor.Username)
	}

	slog.Info("tombstone restored",
		"tombstone_id", t.ID,
		"item_type", t.ItemType,
		"restored_item_id", summary.RestoredItemID,
		"actor", actor.Username)

	return summary, nil
}
