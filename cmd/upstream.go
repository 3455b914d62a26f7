package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
	"github.com/richardwooding/ytfeed/resolver"
	"github.com/richardwooding/ytfeed/store"
	"github.com/richardwooding/ytfeed/youtube"
)

// Feed sources selectable with --feed-source.
const (
	FeedSourceSearch = "search"
	FeedSourceAtom   = "atom"
)

// UpstreamFlags configure the YouTube clients, the channel id cache and the
// resolver. They are shared by every command that resolves feeds.
type UpstreamFlags struct {
	APIKey        string `name:"api-key" env:"YOUTUBE_API_KEY" help:"YouTube Data API key."`
	DefaultHandle string `name:"default-handle" default:"@khel.ai.cricket" env:"YTFEED_DEFAULT_HANDLE" help:"Handle used when a request names none."`

	Endpoint    string `name:"endpoint" default:"https://youtube.googleapis.com/" help:"YouTube Data API base URL."`
	AtomBaseURL string `name:"atom-base-url" default:"https://www.youtube.com/feeds/videos.xml" help:"Channel Atom feed URL."`
	FeedSource  string `name:"feed-source" default:"search" enum:"search,atom" help:"Where video lists come from (search, atom)."`

	UpstreamTimeout time.Duration `name:"upstream-timeout" default:"10s" help:"Timeout for a single upstream request."`
	LookupTimeout   time.Duration `name:"lookup-timeout" default:"30s" help:"Upper bound for a shared handle resolution."`
	UpstreamRPS     float64       `name:"upstream-rps" default:"0" help:"Upstream requests per second, 0 for unlimited."`
	UpstreamBurst   int           `name:"upstream-burst" default:"1" help:"Upstream burst capacity."`

	CacheTTL        time.Duration `name:"cache-ttl" default:"1h" help:"How long a resolved channel id is kept, 0 to disable."`
	CacheMaxEntries int64         `name:"cache-max-entries" default:"10000" help:"Maximum number of cached channel ids."`

	Breaker          bool          `name:"breaker" default:"true" negatable:"" help:"Guard upstream operations with circuit breakers."`
	BreakerFailures  uint32        `name:"breaker-failures" default:"3" help:"Consecutive failures that open a breaker."`
	BreakerTimeout   time.Duration `name:"breaker-timeout" default:"30s" help:"How long an open breaker rejects calls."`
	BreakerInterval  time.Duration `name:"breaker-interval" default:"60s" help:"Window after which closed breaker counts reset."`
	BreakerHalfOpenN uint32        `name:"breaker-half-open-requests" default:"3" help:"Requests allowed through a half-open breaker."`
}

// validate checks the upstream URLs before anything is built.
func (u *UpstreamFlags) validate() error {
	endpoints := map[string]string{"endpoint": u.Endpoint}
	if u.FeedSource == FeedSourceAtom {
		endpoints["atom-base-url"] = u.AtomBaseURL
	}
	return model.ValidateEndpoints(endpoints)
}

// newResolver wires the YouTube clients, the cache and the resolver. The
// returned cleanup releases the cache.
func (u *UpstreamFlags) newResolver(ctx context.Context, logger *zap.Logger) (*resolver.Resolver, func(), error) {
	if err := u.validate(); err != nil {
		return nil, nil, err
	}

	httpClient := youtube.NewHTTPClient(youtube.HTTPConfig{
		Timeout:           u.UpstreamTimeout,
		RequestsPerSecond: u.UpstreamRPS,
		BurstCapacity:     u.UpstreamBurst,
	})
	breakers := youtube.NewBreakers(youtube.BreakerConfig{
		Enabled:          u.Breaker,
		MaxRequests:      u.BreakerHalfOpenN,
		Interval:         u.BreakerInterval,
		Timeout:          u.BreakerTimeout,
		FailureThreshold: u.BreakerFailures,
	}, logger, youtube.OperationChannels, youtube.OperationSearch, youtube.OperationAtom)

	api, err := youtube.NewDataAPI(ctx, youtube.DataAPIConfig{
		APIKey:     u.APIKey,
		Endpoint:   u.Endpoint,
		HTTPClient: httpClient,
		Breakers:   breakers,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	var lister resolver.VideoLister = api
	if u.FeedSource == FeedSourceAtom {
		atom, err := youtube.NewAtomLister(youtube.AtomConfig{
			BaseURL:    u.AtomBaseURL,
			HTTPClient: httpClient,
			Breakers:   breakers,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, err
		}
		lister = atom
	}

	channels, err := store.NewChannelStore(store.Config{
		TTL:        u.CacheTTL,
		MaxEntries: u.CacheMaxEntries,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	res, err := resolver.New(resolver.Config{
		DefaultHandle: u.DefaultHandle,
		Credential:    u.APIKey,
		Strategies:    resolver.DefaultStrategies(api, api),
		Lister:        lister,
		Cache:         channels,
		LookupTimeout: u.LookupTimeout,
		Logger:        logger,
	})
	if err != nil {
		channels.Close()
		return nil, nil, err
	}

	logger.Debug("resolver configured",
		zap.String("feed_source", u.FeedSource),
		zap.String("default_handle", u.DefaultHandle),
		zap.Duration("cache_ttl", u.CacheTTL),
		zap.Bool("api_key_set", u.APIKey != ""))
	return res, channels.Close, nil
}
