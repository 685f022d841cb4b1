package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/model"
)

// JobPostingCodec snapshots a posting with its tag links. Tag rows themselves
// are shared and stay out of the closure; only the link rows travel.
type JobPostingCodec struct{}

func NewJobPostingCodec() *JobPostingCodec {
	return &JobPostingCodec{}
}

func (c *JobPostingCodec) ItemType() model.ItemType {
	return model.ItemTypeJobPosting
}

type jobPostingDependents struct {
	Tags []model.JobPostingTag `json:"tags,omitempty"`
}

func (c *JobPostingCodec) Capture(closure model.Closure) ([]byte, error) {
	jc, ok := closure.(model.JobPostingClosure)
	if !ok {
		return nil, fmt.Errorf("job posting codec: unexpected closure %T", closure)
	}

	return encodeEnvelope(model.ItemTypeJobPosting, jc.Posting, jobPostingDependents{Tags: jc.Tags})
}

func (c *JobPostingCodec) Restore(payload []byte) (model.Closure, error) {
	env, err := decodeEnvelope(payload, model.ItemTypeJobPosting)
	if err != nil {
		return nil, err
	}

	var posting model.JobPosting
	if err := json.Unmarshal(env.Record, &posting); err != nil {
		return nil, fmt.Errorf("decode job posting record: %w", err)
	}

	var deps jobPostingDependents
	if len(env.Dependents) > 0 {
		if err := json.Unmarshal(env.Dependents, &deps); err != nil {
			return nil, fmt.Errorf("decode job posting dependents: %w", err)
		}
	}

	return model.JobPostingClosure{Posting: posting, Tags: deps.Tags}, nil
}

// Dispose is a no-op: postings embed no external resources.
func (c *JobPostingCodec) Dispose(_ context.Context, _ []byte) error {
	return nil
}
