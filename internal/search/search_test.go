package search

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/model"
)

type mapGraph map[model.Key]*model.Page

func (g mapGraph) Get(k model.Key) (*model.Page, bool) {
	p, ok := g[k]
	return p, ok
}

// recordingGraph remembers which nodes were expanded.
type recordingGraph struct {
	mapGraph
	expanded []model.Key
}

func (g *recordingGraph) Get(k model.Key) (*model.Page, bool) {
	g.expanded = append(g.expanded, k)
	return g.mapGraph.Get(k)
}

const (
	a model.Key = iota
	b
	c
	d
	x
	y
	z
)

// diamond has two routes to c; the one through the nearer b is longer.
//
//	a: [b .5, d 1]
//	b: [x .25, y .5, z .75, c 1]
//	d: [c .25, x .5, y .75, z 1]
func diamond() mapGraph {
	return mapGraph{
		a: model.NewPage([]model.Key{b, d}),
		b: model.NewPage([]model.Key{x, y, z, c}),
		d: model.NewPage([]model.Key{c, x, y, z}),
	}
}

func TestTraverse_Order(t *testing.T) {
	var got []model.PathInfo
	for info := range Traverse(diamond(), a, math.Inf(1)) {
		got = append(got, info)
	}

	want := []struct {
		key  model.Key
		dist float64
	}{
		{a, 0}, {b, 1.5}, {d, 2}, {x, 2.75}, {y, 3}, {z, 3.25}, {c, 3.25},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.key, got[i].Target(), "position %d", i)
		assert.Equal(t, w.dist, got[i].Distance, "position %d", i)
	}
	assert.Equal(t, []model.Key{a}, got[0].Path)
	assert.Equal(t, []model.Key{a, b, x}, got[3].Path)
	assert.Equal(t, []model.Key{a, d, c}, got[6].Path)
}

func TestTraverse_Bounded(t *testing.T) {
	g := &recordingGraph{mapGraph: diamond()}
	dist := map[model.Key]float64{}
	for info := range Traverse(g, a, 2.75) {
		assert.LessOrEqual(t, info.Distance, 2.75)
		dist[info.Target()] = info.Distance
	}

	assert.Equal(t, map[model.Key]float64{a: 0, b: 1.5, d: 2, x: 2.75}, dist)
	for _, k := range g.expanded {
		assert.Contains(t, dist, k, "expanded a node beyond the bound")
	}
}

func TestTraverse_CyclesAndEarlyStop(t *testing.T) {
	g := mapGraph{
		a: model.NewPage([]model.Key{b}),
		b: model.NewPage([]model.Key{a, c}),
		c: model.NewPage([]model.Key{a}),
	}

	var keys []model.Key
	for info := range Traverse(g, a, math.Inf(1)) {
		keys = append(keys, info.Target())
	}
	assert.Equal(t, []model.Key{a, b, c}, keys)

	n := 0
	for range Traverse(g, a, math.Inf(1)) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	// The sequence is restartable.
	keys = keys[:0]
	for info := range Traverse(g, a, math.Inf(1)) {
		keys = append(keys, info.Target())
	}
	assert.Equal(t, []model.Key{a, b, c}, keys)
}

func TestShortestPath(t *testing.T) {
	g := diamond()

	info, ok, err := ShortestPath(g, a, c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.Key{a, d, c}, info.Path)
	assert.Equal(t, 3.25, info.Distance)
	assert.Equal(t, 2, info.Hops())

	info, ok, err = ShortestPath(g, a, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.PathInfo{Distance: 0, Path: []model.Key{a}}, info)

	_, ok, err = ShortestPath(g, c, a)
	require.NoError(t, err)
	assert.False(t, ok, "c has no page")

	_, ok, err = ShortestPath(g, a, c, WithMaxDistance(3))
	require.NoError(t, err)
	assert.False(t, ok, "beyond the bound")

	var stats Stats
	_, _, err = ShortestPath(g, a, y, WithStats(&stats))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Finalized)

	_, _, err = ShortestPath(g, a, c, WithMaxDistance(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClosestTitles(t *testing.T) {
	g := diamond()

	var stats Stats
	all, err := ClosestTitles(g, a, 10, 2, 3.25, WithStats(&stats))
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 7, stats.Finalized)
	assert.Equal(t, 5, stats.Candidates)

	seen := map[model.Key]bool{}
	for i, info := range all {
		assert.GreaterOrEqual(t, info.Distance, 2.0)
		assert.LessOrEqual(t, info.Distance, 3.25)
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].Distance, info.Distance)
		}
		seen[info.Target()] = true
	}
	assert.Len(t, seen, 5)

	rng := rand.New(rand.NewPCG(7, 11))
	some, err := ClosestTitles(g, a, 2, 2, 3.25, WithRand(rng))
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.NotEqual(t, some[0].Target(), some[1].Target())

	none, err := ClosestTitles(g, a, 3, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, none)

	fromZero, err := ClosestTitles(g, a, 10, 0, 1)
	require.NoError(t, err)
	for _, info := range fromZero {
		assert.NotEqual(t, a, info.Target())
	}
}

func TestClosestTitles_SamplesEveryCandidate(t *testing.T) {
	g := diamond()
	rng := rand.New(rand.NewPCG(1, 1))

	counts := map[model.Key]int{}
	for range 500 {
		got, err := ClosestTitles(g, a, 1, 2, 3.25, WithRand(rng))
		require.NoError(t, err)
		require.Len(t, got, 1)
		counts[got[0].Target()]++
	}
	for _, k := range []model.Key{d, x, y, z, c} {
		assert.Greater(t, counts[k], 50, "key %d", k)
	}
}

func TestClosestTitles_InvalidArguments(t *testing.T) {
	g := diamond()

	tests := []struct {
		name     string
		count    int
		min, max float64
	}{
		{"zero count", 0, 0, 1},
		{"negative count", -1, 0, 1},
		{"min above max", 1, 2, 1},
		{"nan min", 1, math.NaN(), 1},
		{"nan max", 1, 0, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClosestTitles(g, a, tt.count, tt.min, tt.max)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestSearcher_Reset(t *testing.T) {
	s := NewSearcher(16)
	s.push(a, 0, -1)
	s.Visited.Visit(3)

	s.Reset()
	assert.Equal(t, 0, s.Frontier.Len())
	assert.False(t, s.Visited.Visited(3))
	assert.Empty(t, s.trail)
}
