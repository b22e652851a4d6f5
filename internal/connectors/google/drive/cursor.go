package drive

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor could not be decoded.
var ErrInvalidCursor = errors.New("drive: invalid cursor format")

// Cursor tracks Google Drive sync state using the changes feed.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`

	// StartPageToken anchors the next changes.list() call.
	StartPageToken string `json:"token"`
}

// NewCursor creates a new empty cursor.
func NewCursor() Cursor {
	return Cursor{Version: CursorVersion}
}

// IsEmpty returns true if the cursor has no sync state.
func (c Cursor) IsEmpty() bool {
	return c.StartPageToken == ""
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
// An empty string decodes to a fresh cursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	if cursor.Version > CursorVersion {
		return Cursor{}, ErrInvalidCursor
	}
	if cursor.Version == 0 {
		cursor.Version = CursorVersion
	}

	return cursor, nil
}
