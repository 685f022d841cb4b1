package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devboard-trash/internal/model"
)

func TestPageTokenRoundTrip(t *testing.T) {
	t.Parallel()

	deletedAt := time.Date(2026, 2, 14, 8, 30, 15, 123456789, time.UTC)
	token := encodePageToken(deletedAt, "ts-42")

	gotTime, gotID, err := decodePageToken(token)
	require.NoError(t, err)
	require.True(t, deletedAt.Equal(gotTime))
	require.Equal(t, "ts-42", gotID)
}

func TestDecodePageTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	cases := []string{
		"not-base64!!!",
		"aGVsbG8=",         // no separator
		"fDEyMw==",         // "|123", empty timestamp
		"MjAyNi0wMS0wMXw=", // "2026-01-01|", empty id
	}

	for _, token := range cases {
		_, _, err := decodePageToken(token)
		require.ErrorIs(t, err, model.ErrInvalidInput, "token %q", token)
	}
}
