package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/model"
)

// ThreadCodec snapshots a thread with its comments. Comment ids are preserved
// through restore so permalinks keep working.
type ThreadCodec struct{}

func NewThreadCodec() *ThreadCodec {
	return &ThreadCodec{}
}

func (c *ThreadCodec) ItemType() model.ItemType {
	return model.ItemTypeThread
}

type threadDependents struct {
	Comments []model.ThreadComment `json:"comments,omitempty"`
}

func (c *ThreadCodec) Capture(closure model.Closure) ([]byte, error) {
	tc, ok := closure.(model.ThreadClosure)
	if !ok {
		return nil, fmt.Errorf("thread codec: unexpected closure %T", closure)
	}

	return encodeEnvelope(model.ItemTypeThread, tc.Thread, threadDependents{Comments: tc.Comments})
}

func (c *ThreadCodec) Restore(payload []byte) (model.Closure, error) {
	env, err := decodeEnvelope(payload, model.ItemTypeThread)
	if err != nil {
		return nil, err
	}

	var thread model.Thread
	if err := json.Unmarshal(env.Record, &thread); err != nil {
		return nil, fmt.Errorf("decode thread record: %w", err)
	}

	var deps threadDependents
	if len(env.Dependents) > 0 {
		if err := json.Unmarshal(env.Dependents, &deps); err != nil {
			return nil, fmt.Errorf("decode thread dependents: %w", err)
		}
	}

	return model.ThreadClosure{Thread: thread, Comments: deps.Comments}, nil
}

func (c *ThreadCodec) Dispose(_ context.Context, _ []byte) error {
	return nil
}
