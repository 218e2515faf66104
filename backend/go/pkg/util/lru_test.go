package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewWithConfig(CacheConfig[string, int]{Capacity: 2})
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_TTL(t *testing.T) {
	now := time.Unix(100, 0)
	c, err := NewWithConfig(CacheConfig[string, string]{Capacity: 4, TTL: time.Minute, Now: func() time.Time { return now }})
	require.NoError(t, err)

	c.Put("k", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_DeleteAndInvalidConfig(t *testing.T) {
	_, err := NewWithConfig(CacheConfig[int, int]{})
	assert.Error(t, err)

	c, err := NewWithConfig(CacheConfig[int, int]{Capacity: 1})
	require.NoError(t, err)
	c.Put(1, 1)
	assert.True(t, c.Delete(1))
	assert.False(t, c.Delete(1))
}
