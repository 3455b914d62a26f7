// Package resolver turns a feed request into a channel's recent videos. A
// handle is mapped to a channel id by an ordered chain of lookup strategies,
// then a single lister call fetches the videos.
package resolver

import (
	"context"

	"github.com/richardwooding/ytfeed/model"
)

// ChannelDirectory looks a handle up directly. "" means no such handle.
type ChannelDirectory interface {
	ChannelIDForHandle(ctx context.Context, handle string) (string, error)
}

// ChannelSearcher returns the top channel matching a free-text query, or "".
type ChannelSearcher interface {
	SearchChannelID(ctx context.Context, query string) (string, error)
}

// VideoLister returns up to maxResults of a channel's videos, newest first.
type VideoLister interface {
	ListVideos(ctx context.Context, channelID string, maxResults int) ([]model.UpstreamItem, error)
}

// ChannelCache remembers resolved channel ids by normalized handle.
type ChannelCache interface {
	Get(ctx context.Context, handle string) (string, bool)
	Set(ctx context.Context, handle, channelID string)
	Delete(ctx context.Context, handle string)
}

// Strategy names.
const (
	StrategyExactHandle      = "exact_handle"
	StrategySearchAtHandle   = "search_at_handle"
	StrategySearchBareHandle = "search_bare_handle"
)

// LookupFunc maps a normalized handle (no leading "@") to a channel id. An
// empty id with a nil error hands over to the next strategy.
type LookupFunc func(ctx context.Context, handle string) (string, error)

// Strategy is one named step of the resolution chain.
type Strategy struct {
	Name   string
	Lookup LookupFunc
}

// DefaultStrategies is the standard chain: the canonical handle lookup, then
// a channel search for "@handle", then one for the bare handle.
func DefaultStrategies(directory ChannelDirectory, searcher ChannelSearcher) []Strategy {
	return []Strategy{
		{
			Name:   StrategyExactHandle,
			Lookup: directory.ChannelIDForHandle,
		},
		{
			Name: StrategySearchAtHandle,
			Lookup: func(ctx context.Context, handle string) (string, error) {
				return searcher.SearchChannelID(ctx, model.DisplayHandle(handle))
			},
		},
		{
			Name: StrategySearchBareHandle,
			Lookup: func(ctx context.Context, handle string) (string, error) {
				return searcher.SearchChannelID(ctx, handle)
			},
		},
	}
}

// runChain tries each strategy in order and stops at the first id. It
// returns the id and the name of the strategy that found it; ("", "", nil)
// means every strategy came back empty.
func runChain(ctx context.Context, strategies []Strategy, handle string) (string, string, error) {
	for _, s := range strategies {
		id, err := s.Lookup(ctx, handle)
		if err != nil {
			return "", s.Name, err
		}
		if id != "" {
			return id, s.Name, nil
		}
	}
	return "", "", nil
}
