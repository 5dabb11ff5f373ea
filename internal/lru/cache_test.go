package lru

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	id    string
	value int
}

func (e entry) Identifier() string { return e.id }

func TestCache_Eviction(t *testing.T) {
	c := NewCache[entry](2)
	c.Add(entry{"a", 1})
	c.Add(entry{"b", 2})

	// Touch "a" so that "b" is the least recently used.
	_, ok := c.GetByID("a")
	require.True(t, ok)

	c.Add(entry{"c", 3})
	assert.Equal(t, 2, c.Size())
	_, ok = c.GetByID("b")
	assert.False(t, ok)
	assert.Equal(t, []entry{{"a", 1}, {"c", 3}}, c.List())
}

func TestCache_Replace(t *testing.T) {
	c := NewCache[entry](2)
	c.Add(entry{"a", 1})
	c.Add(entry{"a", 2})
	assert.Equal(t, 1, c.Size())

	got, ok := c.GetByID("a")
	require.True(t, ok)
	assert.Equal(t, 2, got.value)

	assert.True(t, c.DeleteByID("a"))
	assert.False(t, c.DeleteByID("a"))
}

func TestCache_GetOrCreate(t *testing.T) {
	c := NewCache[entry](4)
	calls := 0
	generate := func() (entry, error) {
		calls++
		return entry{"x", calls}, nil
	}

	first, err := c.GetOrCreate("x", generate)
	require.NoError(t, err)
	second, err := c.GetOrCreate("x", generate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrCreate("y", func() (entry, error) { return entry{}, errors.New("boom") })
	assert.Error(t, err)
	_, ok := c.GetByID("y")
	assert.False(t, ok)
}
