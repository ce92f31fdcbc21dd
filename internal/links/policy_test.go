package links

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Normalize(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"Aspirin", "Aspirin", true},
		{"  Aspirin ", "Aspirin", true},
		{"./Aspirin", "Aspirin", true},
		{"Pain#Causes", "Pain", true},
		{"Fever?action=raw", "Fever", true},
		{"Acetylsalicylic%20acid", "Acetylsalicylic acid", true},
		{"Bad%zzescape", "Bad%zzescape", true},
		{"#cite_note-1", "", false},
		{"https://example.org/", "", false},
		{"http://example.org/", "", false},
		{"mailto:someone@example.org", "", false},
		{"//upload.example.org/x.png", "", false},
		{"../A/Aspirin", "", false},
		{"-/style.css", "", false},
		{"I/figure.png", "", false},
		{"_assets_/logo.svg", "", false},
		{"", "", false},
		{"?query", "", false},
		{"1:2 ratio", "1:2 ratio", true},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := p.Normalize(tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_Permissive(t *testing.T) {
	var p Policy

	got, ok := p.Normalize("../A/Aspirin")
	assert.True(t, ok)
	assert.Equal(t, "../A/Aspirin", got)

	got, ok = p.Normalize("Pain#Causes")
	assert.True(t, ok)
	assert.Equal(t, "Pain#Causes", got)
}

func TestLoadPolicy(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		doc := `
exclude_parent_relative: false
exclude_prefixes: ["M/"]
`
		p, err := LoadPolicy(strings.NewReader(doc))
		require.NoError(t, err)
		assert.False(t, p.ExcludeParentRelative)
		assert.Equal(t, []string{"M/"}, p.ExcludePrefixes)
		assert.True(t, p.ExcludeSchemes, "unset fields keep defaults")
	})

	t.Run("empty", func(t *testing.T) {
		p, err := LoadPolicy(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadPolicy(strings.NewReader("exclude_everything: true\n"))
		assert.Error(t, err)
	})
}
