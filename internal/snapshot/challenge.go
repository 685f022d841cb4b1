package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/model"
)

// ChallengeCodec snapshots a flat challenge record.
type ChallengeCodec struct{}

func NewChallengeCodec() *ChallengeCodec {
	return &ChallengeCodec{}
}

func (c *ChallengeCodec) ItemType() model.ItemType {
	return model.ItemTypeChallenge
}

func (c *ChallengeCodec) Capture(closure model.Closure) ([]byte, error) {
	cc, ok := closure.(model.ChallengeClosure)
	if !ok {
		return nil, fmt.Errorf("challenge codec: unexpected closure %T", closure)
	}

	return encodeEnvelope(model.ItemTypeChallenge, cc.Challenge, nil)
}

func (c *ChallengeCodec) Restore(payload []byte) (model.Closure, error) {
	env, err := decodeEnvelope(payload, model.ItemTypeChallenge)
	if err != nil {
		return nil, err
	}

	var challenge model.Challenge
	if err := json.Unmarshal(env.Record, &challenge); err != nil {
		return nil, fmt.Errorf("decode challenge record: %w", err)
	}

	return model.ChallengeClosure{Challenge: challenge}, nil
}

func (c *ChallengeCodec) Dispose(_ context.Context, _ []byte) error {
	return nil
}
