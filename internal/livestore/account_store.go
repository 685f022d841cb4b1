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

type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) ItemType() model.ItemType {
	return model.ItemTypeAccount
}

func (s *AccountStore) q(ctx context.Context) database.Querier {
	return database.QuerierFrom(ctx, s.pool)
}

func (s *AccountStore) getAccount(ctx context.Context, itemID string) (model.Account, error) {
	var a model.Account
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, display_name, avatar_blob, created_at
		 FROM accounts WHERE id = $1`, itemID).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.AvatarBlob, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error) {
	account, err := s.getAccount(ctx, itemID)
	if err != nil {
		return nil, err
	}

	closure := model.AccountClosure{Account: account}

	var profile model.AccountProfile
	err = s.q(ctx).QueryRow(ctx,
		`SELECT account_id, headline, bio, location
		 FROM account_profiles WHERE account_id = $1`, itemID).
		Scan(&profile.AccountID, &profile.Headline, &profile.Bio, &profile.Location)
	if err == nil {
		closure.Profile = &profile
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get account profile: %w", err)
	}

	rows, err := s.q(ctx).Query(ctx,
		`SELECT account_id, skill, level
		 FROM account_skills WHERE account_id = $1
		 ORDER BY skill`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get account skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skill model.AccountSkill
		if err := rows.Scan(&skill.AccountID, &skill.Skill, &skill.Level); err != nil {
			return nil, fmt.Errorf("scan account skill: %w", err)
		}
		closure.Skills = append(closure.Skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get account skills: %w", err)
	}

	return closure, nil
}

func (s *AccountStore) RemoveLive(ctx context.Context, itemID string) error {
	// Profile and skill rows cascade.
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM accounts WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ResolveDependencies is a pass-through: an account's profile and skills are
// exclusively owned and reference nothing outside the closure.
func (s *AccountStore) ResolveDependencies(_ context.Context, closure model.Closure) (model.Closure, []string, error) {
	ac, ok := closure.(model.AccountClosure)
	if !ok {
		return nil, nil, fmt.Errorf("account store: unexpected closure %T", closure)
	}
	return ac, nil, nil
}

func (s *AccountStore) InsertLive(ctx context.Context, closure model.Closure) (string, error) {
	ac, ok := closure.(model.AccountClosure)
	if !ok {
		return "", fmt.Errorf("account store: unexpected closure %T", closure)
	}

	q := s.q(ctx)
	a := ac.Account
	_, err := q.Exec(ctx,
		`INSERT INTO accounts (id, email, display_name, avatar_blob, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.DisplayName, a.AvatarBlob, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}

	if ac.Profile != nil {
		_, err = q.Exec(ctx,
			`INSERT INTO account_profiles (account_id, headline, bio, location)
			 VALUES ($1, $2, $3, $4)`,
			a.ID, ac.Profile.Headline, ac.Profile.Bio, ac.Profile.Location)
		if err != nil {
			return "", fmt.Errorf("insert account profile: %w", err)
		}
	}

	for _, skill := range ac.Skills {
		_, err = q.Exec(ctx,
			`INSERT INTO account_skills (account_id, skill, level)
			 VALUES ($1, $2, $3)`,
			a.ID, skill.Skill, skill.Level)
		if err != nil {
			return "", fmt.Errorf("insert account skill: %w", err)
		}
	}

	return a.ID, nil
}

func (s *AccountStore) Exists(ctx context.Context, itemID string) (bool, string, error) {
	account, err := s.getAccount(ctx, itemID)
	if errors.Is(err, model.ErrItemNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	fingerprint, err := snapshot.Fingerprint(account)
	if err != nil {
		return false, "", err
	}
	return true, fingerprint, nil
}
