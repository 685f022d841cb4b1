package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRetentionOverrides(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields no overrides", func(t *testing.T) {
		overrides, err := parseRetentionOverrides("")
		require.NoError(t, err)
		require.Empty(t, overrides)
	})

	t.Run("parses type=duration pairs", func(t *testing.T) {
		overrides, err := parseRetentionOverrides("account=2160h, thread=168h")
		require.NoError(t, err)
		require.Equal(t, map[string]time.Duration{
			"account": 2160 * time.Hour,
			"thread":  168 * time.Hour,
		}, overrides)
	})

	t.Run("rejects entries without a separator", func(t *testing.T) {
		_, err := parseRetentionOverrides("account")
		require.Error(t, err)
	})

	t.Run("rejects unparseable durations", func(t *testing.T) {
		_, err := parseRetentionOverrides("account=sometimes")
		require.Error(t, err)
	})
}
