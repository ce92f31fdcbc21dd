package visited

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New(10)

	assert.False(t, s.Visited(1))
	assert.True(t, s.Visit(1))
	assert.False(t, s.Visit(1), "second visit")
	assert.True(t, s.Visited(1))
	assert.False(t, s.Visited(5))

	assert.True(t, s.Visit(5))
	assert.Equal(t, 2, s.Len())

	s.Reset()
	assert.False(t, s.Visited(1))
	assert.False(t, s.Visited(5))
	assert.Equal(t, 0, s.Len())

	assert.True(t, s.Visit(1))
	assert.False(t, s.Visited(5))
}

func TestSet_Grow(t *testing.T) {
	s := New(0)
	assert.False(t, s.Visited(1<<20))

	assert.True(t, s.Visit(1<<20))
	assert.True(t, s.Visit(3))
	assert.True(t, s.Visited(1<<20))
	assert.True(t, s.Visited(3))

	s.Reset()
	assert.False(t, s.Visited(1<<20))
}
