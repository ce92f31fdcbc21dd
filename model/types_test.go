package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage_WeightsAreMonotonic(t *testing.T) {
	p := NewPage([]Key{7, 3, 9, 1})
	require.Equal(t, 4, p.Len())

	for i, l := range p.Links {
		assert.Greater(t, l.Weight, float32(0))
		assert.LessOrEqual(t, l.Weight, float32(1))
		if i > 0 {
			assert.Less(t, p.Links[i-1].Weight, l.Weight)
		}
	}
	assert.Equal(t, float32(0.25), p.Links[0].Weight)
	assert.Equal(t, float32(1), p.Links[3].Weight)
}

func TestNewPage_DuplicatesKeepFirstPosition(t *testing.T) {
	p := NewPage([]Key{5, 6, 5, 5, 7, 6})
	require.Equal(t, 3, p.Len())

	info, ok := p.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, LinkInfo{Index: 0, Weight: float32(1) / 3}, info)

	info, ok = p.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, 2, info.Index)
	assert.Equal(t, float32(1), info.Weight)

	_, ok = p.Lookup(99)
	assert.False(t, ok)
}

func TestPage_Empty(t *testing.T) {
	var nilPage *Page
	assert.Zero(t, nilPage.Len())
	_, ok := nilPage.Lookup(1)
	assert.False(t, ok)

	p := NewPage(nil)
	assert.Zero(t, p.Len())
}

func TestPathInfo(t *testing.T) {
	p := PathInfo{Distance: 2.5, Path: []Key{1, 4, 2}}
	assert.Equal(t, Key(2), p.Target())
	assert.Equal(t, 2, p.Hops())
	assert.Equal(t, "PathInfo(2.500, [1 4 2])", p.String())
}
