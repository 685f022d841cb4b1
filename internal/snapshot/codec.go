package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"devboard-trash/internal/model"
)

// SchemaVersion tags every payload this build writes. Restore refuses payloads
// carrying any other version instead of guessing at field layouts.
const SchemaVersion = 1

// Codec serializes one ItemType's records into opaque versioned payloads and
// back. Capture is deterministic: the same closure always yields byte-identical
// output (no wall-clock or random material goes into the envelope).
type Codec interface {
	ItemType() model.ItemType

	// Capture encodes a closure into a payload.
	Capture(closure model.Closure) ([]byte, error)

	// Restore decodes a payload back into its closure.
	Restore(payload []byte) (model.Closure, error)

	// Dispose releases external resources the payload references (stored media
	// blobs). It must be idempotent: a second pass over a half-disposed payload
	// finishes the job instead of failing.
	Dispose(ctx context.Context, payload []byte) error
}

// envelope is the wire form of a snapshot payload.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	ItemType      model.ItemType  `json:"item_type"`
	Fingerprint   string          `json:"fingerprint"`
	Record        json.RawMessage `json:"record"`
	Dependents    json.RawMessage `json:"dependents,omitempty"`
}

// Fingerprint hashes the canonical JSON of a primary record. Live stores use
// the same function so the restore engine can tell "the original record" from
// "an unrelated record that reused the identifier".
func Fingerprint(record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("fingerprint record: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func encodeEnvelope(itemType model.ItemType, record any, dependents any) ([]byte, error) {
	fingerprint, err := Fingerprint(record)
	if err != nil {
		return nil, err
	}

	recordRaw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	var dependentsRaw json.RawMessage
	if dependents != nil {
		dependentsRaw, err = json.Marshal(dependents)
		if err != nil {
			return nil, fmt.Errorf("encode dependents: %w", err)
		}
	}

	payload, err := json.Marshal(envelope{
		SchemaVersion: SchemaVersion,
		ItemType:      itemType,
		Fingerprint:   fingerprint,
		Record:        recordRaw,
		Dependents:    dependentsRaw,
	})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	return payload, nil
}

func decodeEnvelope(payload []byte, itemType model.ItemType) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	if env.SchemaVersion != SchemaVersion {
		return envelope{}, fmt.Errorf("payload schema version %d: %w", env.SchemaVersion, model.ErrSchemaMismatch)
	}

	if env.ItemType != itemType {
		return envelope{}, fmt.Errorf("payload holds %q, codec handles %q: %w", env.ItemType, itemType, model.ErrSchemaMismatch)
	}

	return env, nil
}

// PayloadFingerprint extracts the stored fingerprint without fully decoding the
// payload. Used by the restore engine's identifier-conflict check.
func PayloadFingerprint(payload []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return "", fmt.Errorf("payload schema version %d: %w", env.SchemaVersion, model.ErrSchemaMismatch)
	}
	return env.Fingerprint, nil
}

// Registry holds one codec per ItemType. Construction fails unless the closed
// type set is covered exactly once, so a missing codec surfaces at startup.
type Registry struct {
	codecs map[model.ItemType]Codec
}

func NewRegistry(codecs ...Codec) (*Registry, error) {
	byType := make(map[model.ItemType]Codec, len(codecs))
	for _, c := range codecs {
		if _, dup := byType[c.ItemType()]; dup {
			return nil, fmt.Errorf("duplicate codec for item type %q", c.ItemType())
		}
		byType[c.ItemType()] = c
	}

	for _, t := range model.AllItemTypes() {
		if _, ok := byType[t]; !ok {
			return nil, fmt.Errorf("no codec registered for item type %q", t)
		}
	}

	return &Registry{codecs: byType}, nil
}

func (r *Registry) For(itemType model.ItemType) (Codec, error) {
	c, ok := r.codecs[itemType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownItemType, itemType)
	}
	return c, nil
}
