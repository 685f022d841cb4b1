package livestore

import (
	"context"
	"fmt"

	"devboard-trash/internal/model"
)

// Store is the boundary to one item type's live tables. The trash service only
// ever needs four capabilities from a live store: a point-in-time read of a
// record plus its dependency closure, atomic removal, transactional
// reinsertion, and an existence/fingerprint probe for identifier reuse.
//
// Writes (RemoveLive, InsertLive) join the caller's database transaction via
// the context, so a soft delete or cascade restore is all-or-nothing.
type Store interface {
	ItemType() model.ItemType

	// GetForSnapshot reads the record and everything that must travel with it.
	GetForSnapshot(ctx context.Context, itemID string) (model.Closure, error)

	// RemoveLive deletes the record and its owned dependents.
	RemoveLive(ctx context.Context, itemID string) error

	// ResolveDependencies prunes closure references to entities that no longer
	// exist, returning the surviving closure and a description of each dropped
	// reference. Referential drift over a retention window is expected and
	// must not abort a restore.
	ResolveDependencies(ctx context.Context, closure model.Closure) (model.Closure, []string, error)

	// InsertLive writes the (already resolved) closure back and returns the
	// restored primary id.
	InsertLive(ctx context.Context, closure model.Closure) (string, error)

	// Exists probes the primary identifier and, when present, returns the
	// current occupant's content fingerprint.
	Exists(ctx context.Context, itemID string) (bool, string, error)
}

// Registry holds one live store per ItemType, validated for completeness at
// startup like the codec registry.
type Registry struct {
	stores map[model.ItemType]Store
}

func NewRegistry(stores ...Store) (*Registry, error) {
	byType := make(map[model.ItemType]Store, len(stores))
	for _, s := range stores {
		if _, dup := byType[s.ItemType()]; dup {
			return nil, fmt.Errorf("duplicate live store for item type %q", s.ItemType())
		}
		byType[s.ItemType()] = s
	}

	for _, t := range model.AllItemTypes() {
		if _, ok := byType[t]; !ok {
			return nil, fmt.Errorf("no live store registered for item type %q", t)
		}
	}

	return &Registry{stores: byType}, nil
}

func (r *Registry) For(itemType model.ItemType) (Store, error) {
	s, ok := r.stores[itemType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownItemType, itemType)
	}
	return s, nil
}
