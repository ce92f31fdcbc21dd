package zim

import (
	"context"
	"fmt"
)

const maxMimeList = 64 << 10

// readMimeTypes reads NUL-terminated strings starting at pos until the
// empty terminator.
func (a *Archive) readMimeTypes(ctx context.Context, pos uint64) ([]string, error) {
	window := 1024
	for {
		n := min(int64(window), a.size-int64(pos))
		buf, err := a.readAt(ctx, int64(pos), int(n))
		if err != nil {
			return nil, err
		}
		types, ok := parseMimeList(buf)
		if ok {
			return types, nil
		}
		if int64(pos)+n >= a.size || window >= maxMimeList {
			return nil, fmt.Errorf("%w: unterminated mimetype list", ErrInvalidFormat)
		}
		window *= 4
	}
}

func parseMimeList(b []byte) ([]string, bool) {
	var types []string
	for {
		s, n := cstring(b)
		if n < 0 {
			return nil, false
		}
		if s == "" {
			return types, true
		}
		types = append(types, s)
		b = b[n:]
	}
}

// MimeTypes returns the archive's mimetype table.
func (a *Archive) MimeTypes() []string {
	return append([]string(nil), a.mimeTypes...)
}

// MimeType returns the mimetype of e, or "" for redirects and other
// entries without content.
func (a *Archive) MimeType(e Entry) string {
	if int(e.MimeIndex) < len(a.mimeTypes) {
		return a.mimeTypes[e.MimeIndex]
	}
	return ""
}
