// Package persistence contains helpers shared by the storage backends and the HTTP layer.
package persistence

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"example.com/hydration/internal/domain"
)

// EncodeCursor serialises the intake cursor to an opaque token.
func EncodeCursor(c *domain.IntakeCursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.IntakeTime.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token yields a nil cursor.
func DecodeCursor(token string) (*domain.IntakeCursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.Invalid("malformed cursor")
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, domain.Invalid("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, domain.Invalid("malformed cursor")
	}
	return &domain.IntakeCursor{IntakeTime: ts, ID: parts[1]}, nil
}
