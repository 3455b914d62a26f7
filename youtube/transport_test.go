package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/ytfeed/model"
)

func TestNewHTTPClient_NoLimiterByDefault(t *testing.T) {
	client := NewHTTPClient(HTTPConfig{})

	assert.Equal(t, DefaultTimeout, client.Timeout)
	_, limited := client.Transport.(*RateLimitedTransport)
	assert.False(t, limited)
}

func TestNewHTTPClient_WithLimiter(t *testing.T) {
	client := NewHTTPClient(HTTPConfig{RequestsPerSecond: 5, BurstCapacity: 2, Timeout: time.Second})

	assert.Equal(t, time.Second, client.Timeout)
	_, limited := client.Transport.(*RateLimitedTransport)
	assert.True(t, limited)
}

func TestRateLimitedTransport_Throttles(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewRateLimitedTransport(nil, 10, 1)}

	start := time.Now()
	for range 3 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, int32(3), hits.Load())
	// burst 1 at 10/s: the second and third requests wait ~100ms each.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestRateLimitedTransport_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	rt := NewRateLimitedTransport(nil, 0.001, 1)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	// Spend the single token.
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rt.RoundTrip(req.WithContext(ctx))
	assert.ErrorIs(t, err, ErrRateLimited)

	// A caller that already gave up is not a limiter refusal.
	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = rt.RoundTrip(req.WithContext(canceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestRateLimitedTransport_RefusalIsRateLimitError(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/channels": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{{"id": "UC123"}}})
		},
	})
	api, err := NewDataAPI(context.Background(), DataAPIConfig{
		APIKey:     "test-key",
		Endpoint:   srv.URL,
		HTTPClient: NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second, RequestsPerSecond: 0.001, BurstCapacity: 1}),
	})
	require.NoError(t, err)

	_, err = api.ChannelIDForHandle(context.Background(), "example")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = api.ChannelIDForHandle(ctx, "example")
	fe, ok := model.AsFeedError(err)
	require.True(t, ok, "expected FeedError, got %v", err)
	assert.Equal(t, model.ErrorTypeRateLimit, fe.ErrorType)
	assert.Equal(t, model.ClassUpstream, fe.Class())
	assert.Len(t, fake.calls(), 1, "refused request must not reach upstream")
}

func TestAtomLister_RateLimitRefusal(t *testing.T) {
	srv, queries := newAtomServer(t, http.StatusOK, channelAtom)
	lister, err := NewAtomLister(AtomConfig{
		BaseURL:    srv.URL,
		HTTPClient: NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second, RequestsPerSecond: 0.001, BurstCapacity: 1}),
	})
	require.NoError(t, err)

	_, err = lister.ListVideos(context.Background(), "UC123", 5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lister.ListVideos(ctx, "UC123", 5)
	fe, ok := model.AsFeedError(err)
	require.True(t, ok, "expected FeedError, got %v", err)
	assert.Equal(t, model.ErrorTypeRateLimit, fe.ErrorType)
	assert.Len(t, *queries, 1)
}
