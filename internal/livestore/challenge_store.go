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

type ChallengeStore struct {
	pool *pgxpool.Pool
}

func NewChallengeStore(pool *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{pool: pool}
}

func (s *ChallengeStore) ItemType() model.ItemType {
	return model.ItemTypeChallenge
}

func (s *ChallengeStore) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, s.pool)
}

func (s *ChallengeStore) getChallenge(ctx context.Context, itemID string) (model.Challenge, error) {
	var c model.Challenge
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, author_id, title, statement, difficulty, created_at
		 FROM challenges WHERE id = $1`, itemID).
		Scan(&c.ID, &c.AuthorID, &c.Title, &c.Statement, &c.Difficulty, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Challenge{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Challenge{}, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	challenge, err := s.getChallenge(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return model.ChallengeClosure{Challenge: challenge}, nil
}

func (s *ChallengeStore) RemoveLive(ctx context.Context, itemID string) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM challenges WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (s *ChallengeStore) ResolveDependencies(_ context.Context, closure model.Closure) (model.Closure, []string, error) {
	cc, ok := closure.(model.ChallengeClosure)
	if !ok {
		return nil, nil, fmt.Errorf("challenge store: unexpected closure %T", closure)
	}
	return cc, nil, nil
}

func (s *ChallengeStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	cc, ok := closure.(model.ChallengeClosure)
	if !ok {
		return "", fmt.Errorf("challenge store: unexpected closure %T", closure)
	}

	c := cc.Challenge
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO challenges (id, author_id, title, statement, difficulty, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.AuthorID, c.Title, c.Statement, c.Difficulty, c.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert challenge: %w", err)
	}

	return c.ID, nil
}

func (s *ChallengeStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	challenge, err := s.getChallenge(ctx, itemID)
	if errors.Is(err, model.ErrItemNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	fingerprint, err := snapshot.Fingerprint(challenge)
	if err != nil {
		return false, "", err
	}
	return true, fingerprint, nil
}
