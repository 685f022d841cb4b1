package model

import "time"

// TombstoneState is the lifecycle state of a tombstone. A single enum rather
// than independent restored/purged flags, so the illegal "both" combination
// cannot be represented.
type TombstoneState string

const (
	StateTombstoned TombstoneState = "tombstoned"
	StateRestored   TombstoneState = "restored"
	StatePurged     TombstoneState = "purged"
)

// Terminal reports whether no further transition is legal from this state.
func (s TombstoneState) Terminal() bool {
	return s == StateRestored || s == StatePurged
}

// ParseTombstoneState validates a wire value.
func ParseTombstoneState(raw string) (TombstoneState, error) {
	switch TombstoneState(raw) {
	case StateTombstoned, StateRestored, StatePurged:
		return TombstoneState(raw), nil
	}
	return "", ErrInvalidInput
}

// Tombstone marks the deletion of one live record and holds its recoverable
// snapshot until restore or purge. Rows are append-mostly: metadata persists
// forever, only State, Version, Snapshot and the resolution columns change.
type Tombstone struct {
	ID             string         `json:"id"`
	ItemType       ItemType       `json:"item_type"`
	ItemID         string         `json:"item_id"`
	Snapshot       []byte         `json:"-"`
	DeletedBy      AuditActor     `json:"deleted_by"`
	DeletedAt      time.Time      `json:"deleted_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	State          TombstoneState `json:"state"`
	Version        int64          `json:"version"`
	RestoredItemID string         `json:"restored_item_id,omitempty"`
}

// TombstoneEntry is the listing projection: everything but the payload, which
// keeps list queries cheap and never leaks snapshot contents.
type TombstoneEntry struct {
	ID             string         `json:"id"`
	ItemType       ItemType       `json:"item_type"`
	ItemID         string         `json:"item_id"`
	DeletedBy      AuditActor     `json:"deleted_by"`
	DeletedAt      time.Time      `json:"deleted_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	State          TombstoneState `json:"state"`
	RestoredItemID string         `json:"restored_item_id,omitempty"`
}

// Entry strips the payload from a tombstone.
func (t Tombstone) Entry() TombstoneEntry {
	return TombstoneEntry{
		ID:             t.ID,
		ItemType:       t.ItemType,
		ItemID:         t.ItemID,
		DeletedBy:      t.DeletedBy,
		DeletedAt:      t.DeletedAt,
		ExpiresAt:      t.ExpiresAt,
		State:          t.State,
		RestoredItemID: t.RestoredItemID,
	}
}

// TombstoneFilter narrows List queries.
type TombstoneFilter struct {
	ItemType *ItemType
	State    *TombstoneState
}

// AuditActor identifies the principal behind a mutating request.
type AuditActor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IP       string `json:"ip"`
}
