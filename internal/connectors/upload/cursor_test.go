package upload

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EncodeDecode(t *testing.T) {
	original := Cursor{
		Version:   CursorVersion,
		Watermark: time.Now().UnixNano(),
		Paths:     []string{"a.txt", "docs/b.md"},
	}

	encoded, err := original.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)

	assert.Equal(t, original.Version, decoded.Version)
	assert.Equal(t, original.Watermark, decoded.Watermark)
	assert.Equal(t, original.Paths, decoded.Paths)
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty string yields fresh cursor", func(t *testing.T) {
		cursor, err := DecodeCursor("")

		require.NoError(t, err)
		assert.Equal(t, CursorVersion, cursor.Version)
		assert.True(t, cursor.IsEmpty())
	})

	t.Run("bare integer yields watermark-only cursor", func(t *testing.T) {
		cursor, err := DecodeCursor("1700000000000000000")

		require.NoError(t, err)
		assert.Equal(t, int64(1700000000000000000), cursor.Watermark)
		assert.Empty(t, cursor.Paths)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := DecodeCursor("not a cursor !!!")

		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects valid base64 of non-JSON", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("not json"))

		_, err := DecodeCursor(encoded)

		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects future versions", func(t *testing.T) {
		future := Cursor{Version: CursorVersion + 1, Watermark: 42}
		encoded, err := future.Encode()
		require.NoError(t, err)

		_, err = DecodeCursor(encoded)

		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("normalises missing version", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(`{"watermark":123}`))

		cursor, err := DecodeCursor(encoded)

		require.NoError(t, err)
		assert.Equal(t, CursorVersion, cursor.Version)
		assert.Equal(t, int64(123), cursor.Watermark)
	})
}

func TestCursor_WatermarkTime(t *testing.T) {
	t.Run("zero watermark is the zero time", func(t *testing.T) {
		assert.True(t, NewCursor().WatermarkTime().IsZero())
	})

	t.Run("watermark round trips", func(t *testing.T) {
		now := time.Now()
		cursor := Cursor{Version: CursorVersion, Watermark: now.UnixNano()}

		assert.True(t, cursor.WatermarkTime().Equal(now))
	})
}

func TestCursor_IsEmpty(t *testing.T) {
	assert.True(t, NewCursor().IsEmpty())
	assert.False(t, Cursor{Version: CursorVersion, Watermark: 1}.IsEmpty())
	assert.False(t, Cursor{Version: CursorVersion, Paths: []string{"a"}}.IsEmpty())
}
