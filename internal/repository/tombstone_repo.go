package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"devboard-trash/internal/database"
	"devboard-trash/internal/model"
)

// TombstoneStore is the persistence boundary for tombstones. Transition is the
// sole mutation path for lifecycle state; everything else touches payload or
// bookkeeping columns only.
type TombstoneStore interface {
	Insert(ctx context.Context, t model.Tombstone) error
	Get(ctx context.Context, id string) (model.Tombstone, error)
	List(ctx context.Context, filter model.TombstoneFilter, pageToken string, limit int) ([]model.TombstoneEntry, string, error)
	Transition(ctx context.Context, id string, expectedVersion int64, newState model.TombstoneState) (model.Tombstone, error)
	SetRestoredItemID(ctx context.Context, id string, itemID string) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Tombstone, error)
	ListPurgedHoldingPayload(ctx context.Context, limit int) ([]model.Tombstone, error)
	ClearSnapshot(ctx context.Context, id string) error
}

type TombstoneRepository struct {
	db database.Querier
}

// NewTombstoneRepository wraps the pool (or any querier) behind the store
// interface. Per-call resolution lets the same repository run inside a caller's
// transaction.
func NewTombstoneRepository(db database.Querier) *TombstoneRepository {
	return &TombstoneRepository{db: db}
}

func (r *TombstoneRepository) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, r.db)
}

const tombstoneColumns = `id, item_type, item_id, snapshot,
	deleted_by_user_id, deleted_by_username, deleted_by_role, deleted_by_ip,
	deleted_at, expires_at, state, version, restored_item_id`

func scanTombstone(row pgx.Row) (model.Tombstone, error) {
	var t model.Tombstone
	var itemType, state string
	err := row.Scan(&t.ID, &itemType, &t.ItemID, &t.Snapshot,
		&t.DeletedBy.UserID, &t.DeletedBy.Username, &t.DeletedBy.Role, &t.DeletedBy.IP,
		&t.DeletedAt, &t.ExpiresAt, &state, &t.Version, &t.RestoredItemID)
	if err != nil {
		return model.Tombstone{}, err
	}

	t.ItemType = model.ItemType(itemType)
	t.State = model.TombstoneState(state)
	t.DeletedAt = t.DeletedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	return t, nil
}

func (r *TombstoneRepository) Insert(ctx context.Context, t model.Tombstone) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO tombstones
		 (id, item_type, item_id, snapshot,
		  deleted_by_user_id, deleted_by_username, deleted_by_role, deleted_by_ip,
		  deleted_at, expires_at, state, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, string(t.ItemType), t.ItemID, t.Snapshot,
		t.DeletedBy.UserID, t.DeletedBy.Username, t.DeletedBy.Role, t.DeletedBy.IP,
		t.DeletedAt, t.ExpiresAt, string(t.State), t.Version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s %s", model.ErrDuplicateItem, t.ItemType, t.ItemID)
		}
		return fmt.Errorf("insert tombstone: %w", err)
	}
	return nil
}

func (r *TombstoneRepository) Get(ctx context.Context, id string) (model.Tombstone, error) {
	t, err := scanTombstone(r.q(ctx).QueryRow(ctx,
		`SELECT `+tombstoneColumns+` FROM tombstones WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tombstone{}, model.ErrTombstoneNotFound
	}
	if err != nil {
		return model.Tombstone{}, fmt.Errorf("get tombstone: %w", err)
	}
	return t, nil
}

func (r *TombstoneRepository) List(ctx context.Context, filter model.TombstoneFilter, pageToken string, limit int) ([]model.TombstoneEntry, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 4)
	argIdx := 1

	if filter.ItemType != nil {
		where = append(where, fmt.Sprintf("item_type = $%d", argIdx))
		args = append(args, string(*filter.ItemType))
		argIdx++
	}
	if filter.State != nil {
		where = append(where, fmt.Sprintf("state = $%d", argIdx))
		args = append(args, string(*filter.State))
		argIdx++
	}
	if pageToken != "" {
		cursorAt, cursorID, err := decodePageToken(pageToken)
		if err != nil {
			return nil, "", err
		}
		where = append(where, fmt.Sprintf("(deleted_at, id) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, cursorAt, cursorID)
		argIdx += 2
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	// One extra row decides whether a next page exists.
	query := fmt.Sprintf(
		`SELECT id, item_type, item_id,
		        deleted_by_user_id, deleted_by_username, deleted_by_role, deleted_by_ip,
		        deleted_at, expires_at, state, restored_item_id
		 FROM tombstones %s
		 ORDER BY deleted_at DESC, id DESC
		 LIMIT $%d`, whereClause, argIdx)
	args = append(args, limit+1)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list tombstones: %w", err)
	}
	defer rows.Close()

	entries := make([]model.TombstoneEntry, 0, limit)
	for rows.Next() {
		var e model.TombstoneEntry
		var itemType, state string
		if err := rows.Scan(&e.ID, &itemType, &e.ItemID,
			&e.DeletedBy.UserID, &e.DeletedBy.Username, &e.DeletedBy.Role, &e.DeletedBy.IP,
			&e.DeletedAt, &e.ExpiresAt, &state, &e.RestoredItemID); err != nil {
			return nil, "", fmt.Errorf("scan tombstone entry: %w", err)
		}
		e.ItemType = model.ItemType(itemType)
		e.State = model.TombstoneState(state)
		e.DeletedAt = e.DeletedAt.UTC()
		e.ExpiresAt = e.ExpiresAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("list tombstones: %w", err)
	}

	nextToken := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		nextToken = encodePageToken(last.DeletedAt, last.ID)
	}

	return entries, nextToken, nil
}

// Transition moves a tombstone out of the tombstoned state under optimistic
// concurrency. Zero rows updated is classified by re-reading the row: missing,
// already terminal, or version raced.
func (r *TombstoneRepository) Transition(ctx context.Context, id string, expectedVersion int64, newState model.TombstoneState) (model.Tombstone, error) {
	if !newState.Terminal() {
		return model.Tombstone{}, fmt.Errorf("%w: cannot transition to %q", model.ErrIllegalTransition, newState)
	}

	t, err := scanTombstone(r.q(ctx).QueryRow(ctx,
		`UPDATE tombstones
		 SET state = $3, version = version + 1
		 WHERE id = $1 AND version = $2 AND state = 'tombstoned'
		 RETURNING `+tombstoneColumns, id, expectedVersion, string(newState)))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Tombstone{}, fmt.Errorf("transition tombstone: %w", err)
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return model.Tombstone{}, getErr
	}
	if current.State.Terminal() {
		return model.Tombstone{}, fmt.Errorf("%w: tombstone is %s", model.ErrIllegalTransition, current.State)
	}
	return model.Tombstone{}, fmt.Errorf("%w: expected version %d, found %d", model.ErrVersionConflict, expectedVersion, current.Version)
}

func (r *TombstoneRepository) SetRestoredItemID(ctx context.Context, id string, itemID string) error {
	tag, err := r.q(ctx).Exec(ctx,
		`UPDATE tombstones SET restored_item_id = $2 WHERE id = $1`, id, itemID)
	if err != nil {
		return fmt.Errorf("set restored item id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTombstoneNotFound
	}
	return nil
}

func (r *TombstoneRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Tombstone, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+tombstoneColumns+`
		 FROM tombstones
		 WHERE state = 'tombstoned' AND expires_at <= $1
		 ORDER BY expires_at
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired tombstones: %w", err)
	}
	defer rows.Close()

	return collectTombstones(rows)
}

// ListPurgedHoldingPayload finds purged rows whose snapshot was never cleared,
// left behind when a sweep crashed between transition and disposal.
func (r *TombstoneRepository) ListPurgedHoldingPayload(ctx context.Context, limit int) ([]model.Tombstone, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+tombstoneColumns+`
		 FROM tombstones
		 WHERE state = 'purged' AND snapshot IS NOT NULL
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list undisposed tombstones: %w", err)
	}
	defer rows.Close()

	return collectTombstones(rows)
}

func (r *TombstoneRepository) ClearSnapshot(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx,
		`UPDATE tombstones SET snapshot = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTombstoneNotFound
	}
	return nil
}

func collectTombstones(rows pgx.Rows) ([]model.Tombstone, error) {
	tombstones := make([]model.Tombstone, 0)
	for rows.Next() {
		t, err := scanTombstone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tombstone: %w", err)
		}
		tombstones = append(tombstones, t)
	}
	return tombstones, rows.Err()
}
