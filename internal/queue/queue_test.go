package queue

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_Order(t *testing.T) {
	pq := NewMin(4)
	for i, d := range []float64{3.5, 1.25, 2, 1.25, 0} {
		pq.PushItem(Item{Node: uint32(i), Distance: d, Trail: uint32(i)})
	}
	require.Equal(t, 5, pq.Len())

	var nodes []uint32
	for pq.Len() > 0 {
		it, _ := pq.PopItem()
		nodes = append(nodes, it.Node)
	}
	assert.Equal(t, []uint32{4, 1, 3, 2, 0}, nodes, "ties pop in push order")

	_, ok := pq.PopItem()
	assert.False(t, ok)
}

func TestPriorityQueue_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pq := NewMin(0)
	for i := range 1000 {
		pq.PushItem(Item{Node: uint32(i), Distance: rng.Float64() * 10, Trail: uint32(i)})
	}

	prev := -1.0
	for pq.Len() > 0 {
		it, _ := pq.PopItem()
		assert.GreaterOrEqual(t, it.Distance, prev)
		prev = it.Distance
	}

	pq.PushItem(Item{Node: 1})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())
}
