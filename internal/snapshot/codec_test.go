package snapshot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"devboard-trash/internal/blob"
	"devboard-trash/internal/model"
)

func threadFixture() model.ThreadClosure {
	return model.ThreadClosure{
		Thread: model.Thread{
			ID:        "thread-1",
			AuthorID:  "acct-7",
			Title:     "Generics in practice",
			Body:      "What changed for you since 1.18?",
			CreatedAt: "2026-01-10T09:00:00Z",
		},
		Comments: []model.ThreadComment{
			{ID: "c-1", ThreadID: "thread-1", AuthorID: "acct-9", Body: "Less reflection.", CreatedAt: "2026-01-10T10:00:00Z"},
			{ID: "c-2", ThreadID: "thread-1", AuthorID: "acct-3", Body: "Cleaner containers.", CreatedAt: "2026-01-11T08:30:00Z"},
		},
	}
}

func TestThreadCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewThreadCodec()
	original := threadFixture()

	payload, err := codec.Capture(original)
	require.NoError(t, err)

	restored, err := codec.Restore(payload)
	require.NoError(t, err)
	require.Equal(t, original, restored)
	require.Equal(t, 2, restored.DependentCount())
}

func TestCaptureIsDeterministic(t *testing.T) {
	t.Parallel()

	codec := NewThreadCodec()

	first, err := codec.Capture(threadFixture())
	require.NoError(t, err)
	second, err := codec.Capture(threadFixture())
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRestoreRejectsUnknownSchemaVersion(t *testing.T) {
	t.Parallel()

	codec := NewChallengeCodec()
	payload, err := codec.Capture(model.ChallengeClosure{
		Challenge: model.Challenge{ID: "ch-1", AuthorID: "acct-1", Title: "FizzBuzz", Difficulty: "easy"},
	})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))
	raw["schema_version"] = json.RawMessage("99")
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = codec.Restore(tampered)
	require.ErrorIs(t, err, model.ErrSchemaMismatch)

	_, err = PayloadFingerprint(tampered)
	require.ErrorIs(t, err, model.ErrSchemaMismatch)
}

func TestRestoreRejectsWrongItemType(t *testing.T) {
	t.Parallel()

	payload, err := NewThreadCodec().Capture(threadFixture())
	require.NoError(t, err)

	_, err = NewChallengeCodec().Restore(payload)
	require.ErrorIs(t, err, model.ErrSchemaMismatch)
}

func TestPayloadFingerprintMatchesRecordFingerprint(t *testing.T) {
	t.Parallel()

	closure := threadFixture()
	payload, err := NewThreadCodec().Capture(closure)
	require.NoError(t, err)

	fromPayload, err := PayloadFingerprint(payload)
	require.NoError(t, err)

	fromRecord, err := Fingerprint(closure.Thread)
	require.NoError(t, err)

	require.Equal(t, fromRecord, fromPayload)
	require.Len(t, fromPayload, 64)
}

func TestAccountDisposeReleasesAvatarBlob(t *testing.T) {
	t.Parallel()

	t.Run("removes the referenced blob", func(t *testing.T) {
		blobs := &blob.MockStore{}
		blobs.On("Remove", "avatar-acct-1.png").Return(nil)

		codec := NewAccountCodec(blobs)
		payload, err := codec.Capture(model.AccountClosure{
			Account: model.Account{ID: "acct-1", Email: "dev@example.com", AvatarBlob: "avatar-acct-1.png"},
		})
		require.NoError(t, err)

		require.NoError(t, codec.Dispose(context.Background(), payload))
		blobs.AssertExpectations(t)
	})

	t.Run("no blob reference is a no-op", func(t *testing.T) {
		blobs := &blob.MockStore{}

		codec := NewAccountCodec(blobs)
		payload, err := codec.Capture(model.AccountClosure{
			Account: model.Account{ID: "acct-2", Email: "dev2@example.com"},
		})
		require.NoError(t, err)

		require.NoError(t, codec.Dispose(context.Background(), payload))
		blobs.AssertNotCalled(t, "Remove")
	})
}

func TestRegistryRequiresEveryItemType(t *testing.T) {
	t.Parallel()

	blobs := &blob.MockStore{}

	_, err := NewRegistry(
		NewAccountCodec(blobs),
		NewJobPostingCodec(),
		NewChallengeCodec(),
		NewArticleCodec(blobs),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "thread")

	registry, err := NewRegistry(
		NewAccountCodec(blobs),
		NewJobPostingCodec(),
		NewChallengeCodec(),
		NewArticleCodec(blobs),
		NewThreadCodec(),
	)
	require.NoError(t, err)

	codec, err := registry.For(model.ItemTypeThread)
	require.NoError(t, err)
	require.Equal(t, model.ItemTypeThread, codec.ItemType())

	_, err = registry.For(model.ItemType("gist"))
	require.ErrorIs(t, err, model.ErrUnknownItemType)
}
