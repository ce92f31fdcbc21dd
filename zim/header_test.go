package zim

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/internal/zimtest"
)

func TestParseHeader(t *testing.T) {
	valid := zimtest.New().MustBytes()

	t.Run("valid", func(t *testing.T) {
		h, err := ParseHeader(valid)
		require.NoError(t, err)
		assert.Equal(t, uint16(6), h.MajorVersion)
		assert.Equal(t, uint16(1), h.MinorVersion)
		assert.Equal(t, "6c1e0b5a-2f7e-4a4b-9d0e-3b4c5d6e7f80", h.UUID.String())
		assert.False(t, h.HasMainPage())
		assert.Equal(t, uint64(HeaderSize), h.MimeListPos)
	})

	t.Run("bad magic", func(t *testing.T) {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(b, 0xDEADBEEF)
		_, err := ParseHeader(b)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ParseHeader(valid[:40])
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	for _, tc := range []struct {
		major uint16
		ok    bool
	}{
		{4, false},
		{5, true},
		{6, true},
		{7, false},
	} {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint16(b[4:], tc.major)
		_, err := ParseHeader(b)
		if tc.ok {
			assert.NoError(t, err, "major %d", tc.major)
			continue
		}
		require.ErrorIs(t, err, ErrUnsupportedVersion, "major %d", tc.major)
		var uv *UnsupportedVersionError
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, tc.major, uv.Major)
	}
}
