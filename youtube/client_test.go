package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardwooding/ytfeed/model"
)

// fakeAPI records every request it serves and answers with the handler
// registered for the path.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T, handlers map[string]http.HandlerFunc) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{handlers: handlers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(context.Background()))
		f.mu.Unlock()
		h, ok := f.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) calls() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestDataAPI(t *testing.T, endpoint string, breakers *Breakers) *DataAPI {
	t.Helper()
	api, err := NewDataAPI(context.Background(), DataAPIConfig{
		APIKey:     "test-key",
		Endpoint:   endpoint,
		HTTPClient: NewHTTPClient(HTTPConfig{Timeout: 2 * time.Second}),
		Breakers:   breakers,
	})
	require.NoError(t, err)
	return api
}

func TestDataAPI_ChannelIDForHandle(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/channels": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{{"id": "UC123"}}})
		},
	})
	api := newTestDataAPI(t, srv.URL, nil)

	id, err := api.ChannelIDForHandle(context.Background(), "@example")
	require.NoError(t, err)
	assert.Equal(t, "UC123", id)

	calls := fake.calls()
	require.Len(t, calls, 1)
	q := calls[0].URL.Query()
	assert.Equal(t, "id", q.Get("part"))
	assert.Equal(t, "example", q.Get("forHandle"))
	assert.Equal(t, "test-key", q.Get("key"))
}

func TestDataAPI_ChannelIDForHandle_NoItems(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/channels": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"kind": "youtube#channelListResponse"})
		},
	})
	api := newTestDataAPI(t, srv.URL, nil)

	id, err := api.ChannelIDForHandle(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestDataAPI_SearchChannelID(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/search": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
				{"id": map[string]any{"kind": KindChannel, "channelId": "UC999"}},
			}})
		},
	})
	api := newTestDataAPI(t, srv.URL, nil)

	id, err := api.SearchChannelID(context.Background(), "@example")
	require.NoError(t, err)
	assert.Equal(t, "UC999", id)

	q := fake.calls()[0].URL.Query()
	assert.Equal(t, "snippet", q.Get("part"))
	assert.Equal(t, "channel", q.Get("type"))
	assert.Equal(t, "@example", q.Get("q"))
	assert.Equal(t, "1", q.Get("maxResults"))
}

func TestDataAPI_ListVideos(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/search": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
				{
					"id": map[string]any{"kind": KindVideo, "videoId": "v1"},
					"snippet": map[string]any{
						"title":        "One",
						"description":  "first",
						"publishedAt":  "2024-05-01T10:00:00Z",
						"channelTitle": "Example",
						"thumbnails": map[string]any{
							"medium": map[string]any{"url": "https://i.ytimg.com/vi/v1/mqdefault.jpg"},
						},
					},
				},
				{
					"id":      map[string]any{"kind": KindChannel, "channelId": "UC1"},
					"snippet": map[string]any{"title": "Channel"},
				},
			}})
		},
	})
	api := newTestDataAPI(t, srv.URL, nil)

	items, err := api.ListVideos(context.Background(), "UC1", 12)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.UpstreamItem{
		Kind:               KindVideo,
		VideoID:            "v1",
		Title:              "One",
		Description:        "first",
		PublishedAt:        "2024-05-01T10:00:00Z",
		MediumThumbnailURL: "https://i.ytimg.com/vi/v1/mqdefault.jpg",
		ChannelTitle:       "Example",
	}, items[0])
	assert.Empty(t, items[1].VideoID)

	q := fake.calls()[0].URL.Query()
	assert.Equal(t, "UC1", q.Get("channelId"))
	assert.Equal(t, "date", q.Get("order"))
	assert.Equal(t, "video", q.Get("type"))
	assert.Equal(t, "12", q.Get("maxResults"))
}

func TestDataAPI_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    model.ErrorType
	}{
		{
			name: "quota",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{
					"code": 403, "message": "quota", "errors": []map[string]any{{"reason": "quotaExceeded"}},
				}})
			},
			want: model.ErrorTypeQuotaExceeded,
		},
		{
			name: "bad key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{
					"code": 400, "message": "API key not valid", "errors": []map[string]any{{"reason": "badRequest"}},
				}})
			},
			want: model.ErrorTypeHTTPClientError,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: model.ErrorTypeHTTPServerError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"items": [`))
			},
			want: model.ErrorTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeAPI(t, map[string]http.HandlerFunc{"/youtube/v3/channels": tt.handler})
			api := newTestDataAPI(t, srv.URL, nil)

			_, err := api.ChannelIDForHandle(context.Background(), "example")
			require.Error(t, err)
			fe, ok := model.AsFeedError(err)
			require.True(t, ok, "expected FeedError, got %T", err)
			assert.Equal(t, tt.want, fe.ErrorType)
			assert.Equal(t, model.ClassUpstream, fe.Class())
			assert.Equal(t, "resolve_handle", fe.Operation)
			assert.NotContains(t, fe.URL, "test-key")
		})
	}
}

func TestDataAPI_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	api := newTestDataAPI(t, endpoint, nil)
	_, err := api.SearchChannelID(context.Background(), "example")

	fe, ok := model.AsFeedError(err)
	require.True(t, ok)
	assert.Equal(t, model.ClassUpstream, fe.Class())
}

func TestDataAPI_OpenBreakerSkipsHTTP(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/channels": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	breakers := NewBreakers(BreakerConfig{Enabled: true, FailureThreshold: 2, Timeout: time.Minute}, nil, OperationChannels)
	api := newTestDataAPI(t, srv.URL, breakers)

	for range 2 {
		_, err := api.ChannelIDForHandle(context.Background(), "example")
		require.Error(t, err)
	}
	require.Len(t, fake.calls(), 2)

	_, err := api.ChannelIDForHandle(context.Background(), "example")
	fe, ok := model.AsFeedError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrorTypeCircuitBreaker, fe.ErrorType)
	assert.Len(t, fake.calls(), 2, "open breaker must not reach upstream")
}

func TestDataAPI_InvalidChannelIDKeepsBreakerClosed(t *testing.T) {
	fake, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/youtube/v3/search": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("channelId") == "bogus" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{
					"code": 400, "message": "invalid channel", "errors": []map[string]any{{"reason": "invalidChannelId"}},
				}})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
				{"id": map[string]any{"kind": KindChannel, "channelId": "UCfound"}},
			}})
		},
	})
	breakers := NewBreakers(BreakerConfig{Enabled: true, FailureThreshold: 3, Timeout: time.Minute}, nil, OperationSearch)
	api := newTestDataAPI(t, srv.URL, breakers)

	for range 3 {
		_, err := api.ListVideos(context.Background(), "bogus", 6)
		fe, ok := model.AsFeedError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrorTypeHTTPClientError, fe.ErrorType)
	}
	assert.Equal(t, gobreaker.StateClosed, breakers.State(OperationSearch))

	id, err := api.SearchChannelID(context.Background(), "@example")
	require.NoError(t, err)
	assert.Equal(t, "UCfound", id)
	assert.Len(t, fake.calls(), 4)
}

func TestNewDataAPI_RejectsBadEndpoint(t *testing.T) {
	_, err := NewDataAPI(context.Background(), DataAPIConfig{APIKey: "k", Endpoint: "ftp://example.com"})
	fe, ok := model.AsFeedError(err)
	require.True(t, ok)
	assert.Equal(t, model.ClassConfiguration, fe.Class())
}
