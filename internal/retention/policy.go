package retention

import (
	"fmt"
	"time"

	"devboard-trash/internal/model"
)

// DefaultWindow is the retention window applied to any type without an
// explicit override.
const DefaultWindow = 30 * 24 * time.Hour

// Policy maps (item type, deletion time) to an expiry time. It is pure and
// total over the closed ItemType set; overrides are validated at construction
// so ExpiryFor can never silently default an unknown type.
type Policy struct {
	windows map[model.ItemType]time.Duration
}

// NewPolicy builds a policy from a default window and per-type overrides.
// A non-positive default falls back to DefaultWindow; overrides for unknown
// types or non-positive windows are rejected.
func NewPolicy(defaultWindow time.Duration, overrides map[model.ItemType]time.Duration) (*Policy, error) {
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindow
	}

	windows := make(map[model.ItemType]time.Duration, len(model.AllItemTypes()))
	for _, t := range model.AllItemTypes() {
		windows[t] = defaultWindow
	}

	for t, window := range overrides {
		if _, known := windows[t]; !known {
			return nil, fmt.Errorf("retention override for unknown item type %q", t)
		}
		if window <= 0 {
			return nil, fmt.Errorf("retention window for %q must be positive, got %s", t, window)
		}
		windows[t] = window
	}

	return &Policy{windows: windows}, nil
}

// ExpiryFor computes when a record deleted at deletedAt becomes purgeable.
// An unknown item type panics: reaching here means a type was added to the
// closed set without a retention entry, which startup validation should have
// caught.
func (p *Policy) ExpiryFor(itemType model.ItemType, deletedAt time.Time) time.Time {
	window, ok := p.windows[itemType]
	if !ok {
		panic(fmt.Sprintf("retention: no window for item type %q", itemType))
	}

	return deletedAt.Add(window)
}

// Window reports the configured window for a type, for logging and listings.
func (p *Policy) Window(itemType model.ItemType) (time.Duration, bool) {
	window, ok := p.windows[itemType]
	return window, ok
}
