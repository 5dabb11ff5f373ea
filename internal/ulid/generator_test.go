package ulid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{Generate(), true},
		{"0", false},
		{"invalidulid", false},
		{"01b4e6bxy0prj5g420d25mwqy0", false},
		{"01B4E6BXY0PRJ5G420D25MWQY!", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, Valid(tt.id))
		})
	}
}

func TestTime(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got, ok := Time(New(now))
	require.True(t, ok)
	assert.True(t, now.Equal(got))

	_, ok = Time("nope")
	assert.False(t, ok)
}

func TestGenerate_ConcurrentUniqueness(t *testing.T) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)

	const numIDs = 10000
	wg.Add(numIDs)
	for i := 0; i < numIDs; i++ {
		go func() {
			defer wg.Done()
			id := Generate()
			mu.Lock()
			defer mu.Unlock()
			ids[id] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, numIDs)
}
