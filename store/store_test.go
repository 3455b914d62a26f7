package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *ChannelStore {
	t.Helper()
	s, err := NewChannelStore(Config{TTL: ttl, MaxEntries: 100})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestChannelStore_SetThenGet(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	_, ok := s.Get(ctx, "example")
	assert.False(t, ok)

	s.Set(ctx, "example", "UC123")

	id, ok := s.Get(ctx, "example")
	require.True(t, ok)
	assert.Equal(t, "UC123", id)
}

func TestChannelStore_IgnoresEmptyIDs(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	s.Set(ctx, "example", "")

	_, ok := s.Get(ctx, "example")
	assert.False(t, ok)
}

func TestChannelStore_Expires(t *testing.T) {
	s := newTestStore(t, 50*time.Millisecond)
	ctx := context.Background()

	s.Set(ctx, "example", "UC123")
	_, ok := s.Get(ctx, "example")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := s.Get(ctx, "example")
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestChannelStore_Delete(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	s.Set(ctx, "example", "UC123")
	s.Delete(ctx, "example")

	require.Eventually(t, func() bool {
		_, ok := s.Get(ctx, "example")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestChannelStore_DisabledWithZeroTTL(t *testing.T) {
	s, err := NewChannelStore(Config{TTL: 0})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	assert.False(t, s.Enabled())
	s.Set(ctx, "example", "UC123")
	_, ok := s.Get(ctx, "example")
	assert.False(t, ok)
	s.Delete(ctx, "example")
}

func TestChannelStore_NilIsDisabled(t *testing.T) {
	var s *ChannelStore
	ctx := context.Background()

	assert.False(t, s.Enabled())
	s.Set(ctx, "example", "UC123")
	_, ok := s.Get(ctx, "example")
	assert.False(t, ok)
	s.Close()
}

func TestChannelStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handle := fmt.Sprintf("handle-%d", i%5)
			s.Set(ctx, handle, "UC"+handle)
			if id, ok := s.Get(ctx, handle); ok {
				assert.Equal(t, "UC"+handle, id)
			}
		}(i)
	}
	wg.Wait()
}
