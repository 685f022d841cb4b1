package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"devboard-trash/internal/metrics"
	"devboard-trash/internal/model"
	"devboard-trash/internal/repository"
	"devboard-trash/internal/snapshot"
)

// Sweeper purges expired tombstones in bounded batches. Every pass is
// idempotent: a crash between the state transition and payload disposal leaves
// a purged row still holding its snapshot, which the next pass finishes.
type Sweeper struct {
	tombstones repository.TombstoneStore
	codecs     *snapshot.Registry
	metrics    *metrics.TrashMetrics
	batchSize  int
}

func NewSweeper(tombstones repository.TombstoneStore, codecs *snapshot.Registry, m *metrics.TrashMetrics, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{tombstones: tombstones, codecs: codecs, metrics: m, batchSize: batchSize}
}

// Result reports one sweep pass. Remaining counts rows whose transition
// failed; they stay expired and are picked up again on the next pass.
type Result struct {
	Purged    int
	Disposed  int
	Skipped   int
	Remaining int
	Errors    []error
}

// Sweep purges every tombstone whose expiry is at or before now, then finishes
// disposal for purged rows still holding a payload. The clock is a parameter
// so expiry behavior is testable without waiting out retention windows.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		expired, err := s.tombstones.ListExpired(ctx, now, s.batchSize)
		if err != nil {
			return result, fmt.Errorf("list expired tombstones: %w", err)
		}
		if len(expired) == 0 {
			break
		}

		resolvedBefore := result.Purged + result.Skipped
		for _, t := range expired {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			s.purgeOne(ctx, t, &result)
		}

		// Rows whose transition failed stay expired, so without progress the
		// next list would return the same batch. Leave them for the next pass.
		if result.Purged+result.Skipped == resolvedBefore || len(expired) < s.batchSize {
			break
		}
	}

	if err := s.finishDisposal(ctx, &result); err != nil {
		return result, err
	}

	s.metrics.ExpiredBacklog.Set(float64(result.Remaining))
	return result, nil
}

func (s *Sweeper) purgeOne(ctx context.Context, t model.Tombstone, result *Result) {
	purged, err := s.tombstones.Transition(ctx, t.ID, t.Version, model.StatePurged)
	if errors.Is(err, model.ErrVersionConflict) || errors.Is(err, model.ErrIllegalTransition) {
		// A restore or explicit purge raced ahead. Expected, not an error.
		slog.Debug("sweep skipped tombstone, already resolved", "tombstone_id", t.ID)
		result.Skipped++
		s.metrics.SweepSkipped.Inc()
		return
	}
	if err != nil {
		slog.Error("sweep transition failed", "tombstone_id", t.ID, "error", err)
		result.Remaining++
		result.Errors = append(result.Errors, fmt.Errorf("purge %s: %w", t.ID, err))
		s.metrics.SweepErrors.Inc()
		return
	}

	result.Purged++
	s.metrics.RecordPurged(string(t.ItemType))

	if err := s.dispose(ctx, purged); err != nil {
		// The row stays purged-with-payload; the next pass retries disposal.
		slog.Error("snapshot disposal failed", "tombstone_id", t.ID, "error", err)
		result.Errors = append(result.Errors, fmt.Errorf("dispose %s: %w", t.ID, err))
		s.metrics.SweepErrors.Inc()
		return
	}

	result.Disposed++
}

// finishDisposal handles purged rows whose snapshot was never released, left
// behind by an earlier interrupted pass.
func (s *Sweeper) finishDisposal(ctx context.Context, result *Result) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		leftover, err := s.tombstones.ListPurgedHoldingPayload(ctx, s.batchSize)
		if err != nil {
			return fmt.Errorf("list undisposed tombstones: %w", err)
		}
		if len(leftover) == 0 {
			return nil
		}

		progressed := false
		for _, t := range leftover {
			if err := s.dispose(ctx, t); err != nil {
				slog.Error("snapshot disposal retry failed", "tombstone_id", t.ID, "error", err)
				result.Errors = append(result.Errors, fmt.Errorf("dispose %s: %w", t.ID, err))
				s.metrics.SweepErrors.Inc()
				continue
			}
			result.Disposed++
			progressed = true
		}

		// Avoid spinning on rows that keep failing to dispose.
		if !progressed || len(leftover) < s.batchSize {
			return nil
		}
	}
}

func (s *Sweeper) dispose(ctx context.Context, t model.Tombstone) error {
	if len(t.Snapshot) > 0 {
		codec, err := s.codecs.For(t.ItemType)
		if err != nil {
			return err
		}
		if err := codec.Dispose(ctx, t.Snapshot); err != nil {
			return err
		}
	}

	return s.tombstones.ClearSnapshot(ctx, t.ID)
}

// StartTicker runs recurring sweeps until the context is cancelled.
func (s *Sweeper) StartTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.Sweep(ctx, time.Now().UTC())
			if err != nil {
				slog.Error("scheduled sweep failed", "error", err)
				continue
			}
			if result.Purged > 0 || len(result.Errors) > 0 {
				slog.Info("sweep completed",
					"purged", result.Purged,
					"disposed", result.Disposed,
					"skipped", result.Skipped,
					"errors", len(result.Errors))
			}
		}
	}
}
