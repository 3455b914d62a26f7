package resolver

import (
	"context"
	"sync"

	"github.com/richardwooding/ytfeed/model"
)

// fakeUpstream plays channel directory, searcher and lister, and counts
// every call it receives.
type fakeUpstream struct {
	mu sync.Mutex

	handleIDs  map[string]string // forHandle -> id
	searchIDs  map[string]string // query -> id
	items      []model.UpstreamItem
	handleErr  error
	searchErr  error
	listErr    error
	searchGate chan struct{} // when set, searches block until it is closed

	handleCalls   []string
	searchQueries []string
	listCalls     []listCall
}

type listCall struct {
	channelID  string
	maxResults int
}

func (f *fakeUpstream) ChannelIDForHandle(ctx context.Context, handle string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handleCalls = append(f.handleCalls, handle)
	if f.handleErr != nil {
		return "", f.handleErr
	}
	return f.handleIDs[handle], nil
}

func (f *fakeUpstream) SearchChannelID(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.searchQueries = append(f.searchQueries, query)
	gate := f.searchGate
	err, id := f.searchErr, f.searchIDs[query]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (f *fakeUpstream) ListVideos(ctx context.Context, channelID string, maxResults int) ([]model.UpstreamItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{channelID: channelID, maxResults: maxResults})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeUpstream) resolutionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handleCalls) + len(f.searchQueries)
}

func (f *fakeUpstream) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handleCalls) + len(f.searchQueries) + len(f.listCalls)
}

func (f *fakeUpstream) lists() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listCall(nil), f.listCalls...)
}

// mapCache is an in-memory ChannelCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]string{}}
}

func (c *mapCache) Get(ctx context.Context, handle string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[handle]
	return id, ok
}

func (c *mapCache) Set(ctx context.Context, handle, channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[handle] = channelID
	c.sets++
}

func (c *mapCache) Delete(ctx context.Context, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, handle)
}

func (c *mapCache) snapshot() (map[string]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out, c.sets
}
