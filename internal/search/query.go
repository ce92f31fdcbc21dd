package search

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/zimgraph/model"
)

// ErrInvalidArgument is returned for malformed query parameters.
var ErrInvalidArgument = errors.New("search: invalid argument")

// Options configures a query.
type Options struct {
	// Rand drives ClosestTitles sampling. Nil uses the global source.
	Rand *rand.Rand
	// MaxDistance bounds ShortestPath. Defaults to +Inf.
	MaxDistance float64
	// Stats, if set, receives traversal counters.
	Stats *Stats
}

// Stats describes the work done by one query.
type Stats struct {
	// Finalized is the number of nodes popped for the first time.
	Finalized int
	// Candidates is the number of nodes within the requested range.
	Candidates int
}

// WithRand sets the sampling source.
func WithRand(r *rand.Rand) func(*Options) {
	return func(o *Options) { o.Rand = r }
}

// WithMaxDistance bounds ShortestPath.
func WithMaxDistance(d float64) func(*Options) {
	return func(o *Options) { o.MaxDistance = d }
}

// WithStats collects traversal counters into s.
func WithStats(s *Stats) func(*Options) {
	return func(o *Options) { o.Stats = s }
}

func buildOptions(optFns []func(*Options)) Options {
	o := Options{MaxDistance: math.Inf(1)}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Stats == nil {
		o.Stats = &Stats{}
	}
	return o
}

// ClosestTitles returns a uniform random sample of up to count nodes whose
// distance from start lies in [minDistance, maxDistance]. start is never a
// candidate. The sample is ordered by distance.
func ClosestTitles(g Graph, start model.Key, count int, minDistance, maxDistance float64, optFns ...func(*Options)) ([]model.PathInfo, error) {
	switch {
	case count <= 0:
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidArgument, count)
	case math.IsNaN(minDistance) || math.IsNaN(maxDistance):
		return nil, fmt.Errorf("%w: distance bounds must not be NaN", ErrInvalidArgument)
	case minDistance > maxDistance:
		return nil, fmt.Errorf("%w: min distance %g exceeds max distance %g", ErrInvalidArgument, minDistance, maxDistance)
	}
	o := buildOptions(optFns)

	var candidates []model.PathInfo
	for info := range Traverse(g, start, maxDistance) {
		o.Stats.Finalized++
		if info.Distance >= minDistance && info.Target() != start {
			candidates = append(candidates, info)
		}
	}
	o.Stats.Candidates = len(candidates)

	out := sample(candidates, count, o.Rand)
	slices.SortStableFunc(out, func(a, b model.PathInfo) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return out, nil
}

// sample picks min(k, len(items)) items without replacement using a
// partial Fisher-Yates shuffle. items is reordered.
func sample[T any](items []T, k int, rng *rand.Rand) []T {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	k = min(k, len(items))
	for i := range k {
		j := i + intN(len(items)-i)
		items[i], items[j] = items[j], items[i]
	}
	return items[:k]
}

// ShortestPath returns the minimum-distance path from start to target.
// It reports false when target is unreachable within MaxDistance.
func ShortestPath(g Graph, start, target model.Key, optFns ...func(*Options)) (model.PathInfo, bool, error) {
	o := buildOptions(optFns)
	if math.IsNaN(o.MaxDistance) || o.MaxDistance < 0 {
		return model.PathInfo{}, false, fmt.Errorf("%w: max distance %g", ErrInvalidArgument, o.MaxDistance)
	}

	for info := range Traverse(g, start, o.MaxDistance) {
		o.Stats.Finalized++
		if info.Target() == target {
			o.Stats.Candidates = 1
			return info, true, nil
		}
	}
	return model.PathInfo{}, false, nil
}
