package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 200
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor orders rows by a timestamp with the row id as tie breaker.
type Cursor struct {
	Timestamp time.Time
	ID        uuid.UUID
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalized limit plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor builds an opaque base64 cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.Timestamp.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor string back into its components. An empty
// string yields a nil cursor without error.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{
		Timestamp: t,
		ID:        id,
	}, nil
}

// TrimPage drops the probe row fetched by LimitWithBuffer and reports whether
// a next page exists.
func TrimPage[T any](rows []T, limit int) ([]T, bool) {
	normalized := NormalizeLimit(limit)
	if len(rows) <= normalized {
		return rows, false
	}
	return rows[:normalized], true
}
