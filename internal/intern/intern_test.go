package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/model"
)

func TestInterner_Basic(t *testing.T) {
	in := New()

	a := in.Intern("Aspirin")
	b := in.Intern("Pain")
	assert.Equal(t, model.Key(0), a)
	assert.Equal(t, model.Key(1), b)
	assert.Equal(t, a, in.Intern("Aspirin"))
	assert.Equal(t, 2, in.Len())

	s, ok := in.Resolve(b)
	require.True(t, ok)
	assert.Equal(t, "Pain", s)

	_, ok = in.Resolve(2)
	assert.False(t, ok)

	k, ok := in.Get("Aspirin")
	assert.True(t, ok)
	assert.Equal(t, a, k)
	_, ok = in.Get("Fever")
	assert.False(t, ok)
	assert.Equal(t, 2, in.Len(), "Get does not allocate")

	assert.Equal(t, []string{"Aspirin", "Pain"}, in.Strings())
	assert.Panics(t, func() { in.MustResolve(42) })
}

func TestInterner_ConcurrentSingleKeyPerString(t *testing.T) {
	in := New()

	const workers, words = 16, 500
	results := make([][]model.Key, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := make([]model.Key, words)
			for i := range words {
				keys[i] = in.Intern(fmt.Sprintf("article-%d", i))
			}
			results[w] = keys
		}()
	}
	wg.Wait()

	require.Equal(t, words, in.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}

	seen := map[model.Key]bool{}
	for i, k := range results[0] {
		assert.False(t, seen[k], "key %d allocated twice", k)
		seen[k] = true
		assert.Equal(t, fmt.Sprintf("article-%d", i), in.MustResolve(k))
	}
	for k := range words {
		assert.True(t, seen[model.Key(k)], "keys are dense")
	}
}

func TestFromStrings(t *testing.T) {
	in := New()
	for _, s := range []string{"c", "a", "b"} {
		in.Intern(s)
	}

	replayed, err := FromStrings(in.Strings())
	require.NoError(t, err)
	for k := range model.Key(3) {
		assert.Equal(t, in.MustResolve(k), replayed.MustResolve(k))
	}

	_, err = FromStrings([]string{"a", "b", "a"})
	assert.Error(t, err)
}
