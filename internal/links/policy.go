package links

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy selects and normalizes internal link targets.
type Policy struct {
	// ExcludeSchemes drops absolute URLs ("https:", "mailto:") and
	// protocol-relative ones ("//host/...").
	ExcludeSchemes bool `yaml:"exclude_schemes"`
	// ExcludeFragments drops same-page references ("#section").
	ExcludeFragments bool `yaml:"exclude_fragments"`
	// ExcludeParentRelative drops "../" paths.
	ExcludeParentRelative bool `yaml:"exclude_parent_relative"`
	// ExcludePrefixes drops normalized paths with any of these prefixes.
	ExcludePrefixes []string `yaml:"exclude_prefixes"`

	StripFragment bool `yaml:"strip_fragment"`
	StripQuery    bool `yaml:"strip_query"`
	TrimDotSlash  bool `yaml:"trim_dot_slash"`
	// Unescape percent-decodes the path so it matches directory entries.
	Unescape bool `yaml:"unescape"`
}

// DefaultPolicy returns the rules for current Kiwix archives.
func DefaultPolicy() Policy {
	return Policy{
		ExcludeSchemes:        true,
		ExcludeFragments:      true,
		ExcludeParentRelative: true,
		ExcludePrefixes:       []string{"-/", "I/", "_assets_/"},
		StripFragment:         true,
		StripQuery:            true,
		TrimDotSlash:          true,
		Unescape:              true,
	}
}

// LoadPolicy decodes a YAML policy. Fields missing from the document
// keep their DefaultPolicy values.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Policy{}, fmt.Errorf("links: decode policy: %w", err)
	}
	return p, nil
}

// Normalize maps a raw href to an archive path. It reports false when
// the href is not an internal article link.
func (p Policy) Normalize(href string) (string, bool) {
	s := strings.TrimSpace(href)
	if s == "" {
		return "", false
	}
	if p.ExcludeFragments && strings.HasPrefix(s, "#") {
		return "", false
	}
	if p.ExcludeSchemes && (strings.HasPrefix(s, "//") || hasScheme(s)) {
		return "", false
	}
	if p.ExcludeParentRelative && strings.HasPrefix(s, "../") {
		return "", false
	}

	if p.StripFragment {
		s, _, _ = strings.Cut(s, "#")
	}
	if p.StripQuery {
		s, _, _ = strings.Cut(s, "?")
	}
	if p.TrimDotSlash {
		for strings.HasPrefix(s, "./") {
			s = s[2:]
		}
	}
	if p.Unescape {
		if u, err := url.PathUnescape(s); err == nil {
			s = u
		}
	}

	if s == "" {
		return "", false
	}
	for _, prefix := range p.ExcludePrefixes {
		if strings.HasPrefix(s, prefix) {
			return "", false
		}
	}
	return s, true
}

// hasScheme reports whether s starts with "scheme:" as defined by
// RFC 3986: a letter followed by letters, digits, '+', '-' or '.'.
func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}
