package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCursor is wrapped by every decode and match failure.
var ErrInvalidCursor = errors.New("cursor: invalid")

// Cursor is the opaque series pagination token (pre-encoding) with short
// field names to minimize payload size. It is serialized to minified JSON
// and encoded with URL-safe base64.
//
// Fields:
//   - v:   version of the cursor schema
//   - m:   mode ("distributor" or "region")
//   - e:   hash of the selected entity names
//   - y0:  first year of the range
//   - y1:  last year of the range
//   - off: row offset into the filtered months
//   - ps:  page size in rows
//   - dv:  dataset version the offsets refer to
type Cursor struct {
	V   int    `json:"v"`
	M   string `json:"m"`
	E   string `json:"e"`
	Y0  int    `json:"y0"`
	Y1  int    `json:"y1"`
	Off int    `json:"off"`
	Ps  int    `json:"ps"`
	Dv  int64  `json:"dv"`
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCursor)
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalidCursor, err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if strings.TrimSpace(c.M) == "" {
		return fmt.Errorf("%w: m (mode) required", ErrInvalidCursor)
	}
	if strings.TrimSpace(c.E) == "" {
		return fmt.Errorf("%w: e (entity hash) required", ErrInvalidCursor)
	}
	if c.Y0 > c.Y1 {
		return fmt.Errorf("%w: y0 after y1", ErrInvalidCursor)
	}
	if c.Off < 0 {
		return fmt.Errorf("%w: off must be >= 0", ErrInvalidCursor)
	}
	if c.Ps <= 0 {
		return fmt.Errorf("%w: ps must be > 0", ErrInvalidCursor)
	}
	return nil
}

// Matches reports whether the cursor was issued for the same query and
// dataset version.
func (c *Cursor) Matches(mode, entityHash string, y0, y1 int, version int64) error {
	switch {
	case c.M != mode:
		return fmt.Errorf("%w: mode changed", ErrInvalidCursor)
	case c.E != entityHash:
		return fmt.Errorf("%w: entity selection changed", ErrInvalidCursor)
	case c.Y0 != y0 || c.Y1 != y1:
		return fmt.Errorf("%w: year range changed", ErrInvalidCursor)
	case c.Dv != version:
		return fmt.Errorf("%w: dataset reloaded", ErrInvalidCursor)
	}
	return nil
}

// HashEntities fingerprints an ordered entity selection.
func HashEntities(names []string) string {
	h := sha256.New()
	for _, n := range names {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NextOffset computes the next offset after returning n units.
func NextOffset(curr, n int) int {
	if curr < 0 {
		curr = 0
	}
	if n <= 0 {
		return curr
	}
	return curr + n
}
