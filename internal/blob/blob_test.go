package blob

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("avatar-acct-1.png", strings.NewReader("png-bytes")))

	exists, err := store.Exists("avatar-acct-1.png")
	require.NoError(t, err)
	require.True(t, exists)

	r, err := store.Open("avatar-acct-1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Remove("avatar-acct-1.png"))
	exists, err = store.Exists("avatar-acct-1.png")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocalStoreRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	// Removing a blob that was already released must not fail, otherwise a
	// re-run over a half-disposed payload would abort.
	require.NoError(t, store.Remove("never-existed.png"))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", " ", ".", "..", "a/b", `a\b`, "../escape"} {
		require.Error(t, store.Put(key, strings.NewReader("x")), "key %q", key)
		_, err := store.Open(key)
		require.Error(t, err, "key %q", key)
		require.Error(t, store.Remove(key), "key %q", key)
	}
}
