package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devboard-trash/internal/model"
)

func TestPolicyExpiry(t *testing.T) {
	t.Parallel()

	deletedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("default window applies without overrides", func(t *testing.T) {
		policy, err := NewPolicy(0, nil)
		require.NoError(t, err)

		expiry := policy.ExpiryFor(model.ItemTypeArticle, deletedAt)
		require.Equal(t, deletedAt.Add(DefaultWindow), expiry)
		require.True(t, expiry.After(deletedAt))
	})

	t.Run("override replaces the default for its type only", func(t *testing.T) {
		policy, err := NewPolicy(14*24*time.Hour, map[model.ItemType]time.Duration{
			model.ItemTypeAccount: 90 * 24 * time.Hour,
		})
		require.NoError(t, err)

		require.Equal(t, deletedAt.Add(90*24*time.Hour), policy.ExpiryFor(model.ItemTypeAccount, deletedAt))
		require.Equal(t, deletedAt.Add(14*24*time.Hour), policy.ExpiryFor(model.ItemTypeThread, deletedAt))
	})
}

func TestNewPolicyRejectsBadOverrides(t *testing.T) {
	t.Parallel()

	_, err := NewPolicy(0, map[model.ItemType]time.Duration{
		model.ItemType("gist"): time.Hour,
	})
	require.Error(t, err)

	_, err = NewPolicy(0, map[model.ItemType]time.Duration{
		model.ItemTypeArticle: -time.Hour,
	})
	require.Error(t, err)
}

func TestExpiryForPanicsOnUnknownType(t *testing.T) {
	t.Parallel()

	policy, err := NewPolicy(0, nil)
	require.NoError(t, err)

	require.Panics(t, func() {
		policy.ExpiryFor(model.ItemType("gist"), time.Now().UTC())
	})
}

func TestWindowReporting(t *testing.T) {
	t.Parallel()

	policy, err := NewPolicy(7*24*time.Hour, nil)
	require.NoError(t, err)

	window, ok := policy.Window(model.ItemTypeChallenge)
	require.True(t, ok)
	require.Equal(t, 7*24*time.Hour, window)

	_, ok = policy.Window(model.ItemType("gist"))
	require.False(t, ok)
}
