package repository

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"devboard-trash/internal/model"
)

// Page tokens encode the keyset cursor (deleted_at, id) of the last row served.
// Keyset pagination keeps the listing stable under concurrent inserts: new
// tombstones sort ahead of the cursor and never shift later pages.

func encodePageToken(deletedAt time.Time, id string) string {
	raw := deletedAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodePageToken(token string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: malformed page token", model.ErrInvalidInput)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("%w: malformed page token", model.ErrInvalidInput)
	}

	deletedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: malformed page token", model.ErrInvalidInput)
	}

	return deletedAt, parts[1], nil
}
