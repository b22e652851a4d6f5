package upload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor could not be decoded.
var ErrInvalidCursor = errors.New("upload: invalid cursor format")

// Cursor tracks incremental sync state for an upload source.
//
// Watermark is the modification-time cutoff from the previous sync.
// Paths lists the root-relative files known at that point, so the next
// incremental pass can report files that have since disappeared.
type Cursor struct {
	Version   int      `json:"v"`
	Watermark int64    `json:"watermark"`
	Paths     []string `json:"paths"`
}

// NewCursor creates an empty cursor at the current version.
func NewCursor() Cursor {
	return Cursor{Version: CursorVersion}
}

// WatermarkTime returns the watermark as a time.Time.
// A zero watermark returns the zero time.
func (c Cursor) WatermarkTime() time.Time {
	if c.Watermark == 0 {
		return time.Time{}
	}
	return time.Unix(0, c.Watermark)
}

// IsEmpty reports whether the cursor carries no sync state.
func (c Cursor) IsEmpty() bool {
	return c.Watermark == 0 && len(c.Paths) == 0
}

// Encode serialises the cursor to an opaque string.
func (c Cursor) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeCursor parses an opaque cursor string.
// An empty string decodes to a fresh cursor. A bare integer is accepted
// as a watermark-only cursor, which the sync layer writes when a feed
// finishes without reporting its own.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	if nanos, err := strconv.ParseInt(s, 10, 64); err == nil {
		c := NewCursor()
		c.Watermark = nanos
		return c, nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	if c.Version > CursorVersion {
		return Cursor{}, ErrInvalidCursor
	}
	if c.Version == 0 {
		c.Version = CursorVersion
	}

	return c, nil
}
