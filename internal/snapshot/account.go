package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/model"
)

// AccountCodec snapshots an account together with its profile and skill rows.
// Skill and profile rows keep their original keys on restore; the avatar blob
// is referenced by key and released on dispose.
type AccountCodec struct {
	blobs blob.Store
}

func NewAccountCodec(blobs blob.Store) *AccountCodec {
	return &AccountCodec{blobs: blobs}
}

func (c *AccountCodec) ItemType() model.ItemType {
	return model.ItemTypeAccount
}

type accountDependents struct {
	Profile *model.AccountProfile `json:"profile,omitempty"`
	Skills  []model.AccountSkill  `json:"skills,omitempty"`
}

func (c *AccountCodec) Capture(closure model.Closure) ([]byte, error) {
	ac, ok := closure.(model.AccountClosure)
	if !ok {
		return nil, fmt.Errorf("account codec: unexpected closure %T", closure)
	}

	return encodeEnvelope(model.ItemTypeAccount, ac.Account, accountDependents{
		Profile: ac.Profile,
		Skills:  ac.Skills,
	})
}

func (c *AccountCodec) Restore(payload []byte) (model.Closure, error) {
	env, err := decodeEnvelope(payload, model.ItemTypeAccount)
	if err != nil {
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(env.Record, &account); err != nil {
		return nil, fmt.Errorf("decode account record: %w", err)
	}

	var deps accountDependents
	if len(env.Dependents) > 0 {
		if err := json.Unmarshal(env.Dependents, &deps); err != nil {
			return nil, fmt.Errorf("decode account dependents: %w", err)
		}
	}

	return model.AccountClosure{Account: account, Profile: deps.Profile, Skills: deps.Skills}, nil
}

func (c *AccountCodec) Dispose(ctx context.Context, payload []byte) error {
	env, err := decodeEnvelope(payload, model.ItemTypeAccount)
	if err != nil {
		return err
	}

	var account model.Account
	if err := json.Unmarshal(env.Record, &account); err != nil {
		return fmt.Errorf("decode account record: %w", err)
	}

	if account.AvatarBlob == "" {
		return nil
	}

	return c.blobs.Remove(account.AvatarBlob)
}
