package livestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"devboard-trash/internal/database"
	"devboard-trash/internal/model"
	"devboard-trash/internal/snapshot"
)

type ThreadStore struct {
	pool *pgxpool.Pool
}

func NewThreadStore(pool *pgxpool.Pool) *ThreadStore {
	return &ThreadStore{pool: pool}
}

func (s *ThreadStore) ItemType() model.ItemType {
	return model.ItemTypeThread
}

func (s *ThreadStore) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, s.pool)
}

func (s *ThreadStore) getThread(ctx context.Context, itemID string) (model.Thread, error) {
	var t model.Thread
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, author_id, title, body, created_at
		 FROM threads WHERE id = $1`, itemID).
		Scan(&t.ID, &t.AuthorID, &t.Title, &t.Body, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Thread{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return t, nil
}

func (s *ThreadStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	thread, err := s.getThread(ctx, itemID)
	if err != nil {
		return nil, err
	}

	closure := model.ThreadClosure{Thread: thread}

	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, thread_id, author_id, body, created_at
		 FROM thread_comments WHERE thread_id = $1
		 ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get thread comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.ThreadComment
		if err := rows.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread comment: %w", err)
		}
		closure.Comments = append(closure.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get thread comments: %w", err)
	}

	return closure, nil
}

func (s *ThreadStore) RemoveLive(ctx context.Context, itemID string) error {
	// Comments cascade.
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM threads WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ResolveDependencies is a pass-through: comments travel with the thread and
// keep their author ids even when the author account is gone (rendered as a
// deleted user, same as the live site does).
func (s *ThreadStore) ResolveDependencies(_ context.Context, closure model.Closure) (model.Closure, []string, error) {
	tc, ok := closure.(model.ThreadClosure)
	if !ok {
		return nil, nil, fmt.Errorf("thread store: unexpected closure %T", closure)
	}
	return tc, nil, nil
}

func (s *ThreadStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	tc, ok := closure.(model.ThreadClosure)
	if !ok {
		return "", fmt.Errorf("thread store: unexpected closure %T", closure)
	}

	q := s.q(ctx)
	t := tc.Thread
	_, err := q.Exec(ctx,
		`INSERT INTO threads (id, author_id, title, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.AuthorID, t.Title, t.Body, t.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert thread: %w", err)
	}

	for _, c := range tc.Comments {
		_, err = q.Exec(ctx,
			`INSERT INTO thread_comments (id, thread_id, author_id, body, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.ID, t.ID, c.AuthorID, c.Body, c.CreatedAt)
		if err != nil {
			return "", fmt.Errorf("insert thread comment: %w", err)
		}
	}

	return t.ID, nil
}

func (s *ThreadStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	thread, err := s.getThread(ctx, itemID)
	if errors.Is(err, model.ErrItemNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	fingerprint, err := snapshot.Fingerprint(thread)
	if err != nil {
		return false, "", err
	}
	return true, fingerprint, nil
}
