package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/richardwooding/ytfeed/model"
)

// DefaultCredentialName is the credential reported when none is configured.
const DefaultCredentialName = "YOUTUBE_API_KEY"

// DefaultLookupTimeout bounds a shared resolution once it no longer belongs
// to any single caller.
const DefaultLookupTimeout = 30 * time.Second

// Config wires a Resolver.
type Config struct {
	// DefaultHandle is used when a request names no handle.
	DefaultHandle string
	// CredentialName is reported in the configuration error.
	CredentialName string
	// Credential must be non-empty before any upstream call is made.
	Credential string

	Strategies []Strategy
	Lister     VideoLister

	// Cache is optional. When set, concurrent misses for one handle share a
	// single chain run.
	Cache         ChannelCache
	LookupTimeout time.Duration

	Logger *zap.Logger
}

// Resolver resolves handles and fetches channel feeds. It is safe for
// concurrent use.
type Resolver struct {
	defaultHandle  string
	credentialName string
	credential     string
	strategies     []Strategy
	lister         VideoLister
	cache          ChannelCache
	lookupTimeout  time.Duration
	group          singleflight.Group
	logger         *zap.Logger
}

// New validates config and builds a Resolver.
func New(config Config) (*Resolver, error) {
	if model.StripHandle(config.DefaultHandle) == "" {
		return nil, errors.New("resolver: default handle must not be empty")
	}
	if config.Lister == nil {
		return nil, errors.New("resolver: a video lister is required")
	}
	if config.CredentialName == "" {
		config.CredentialName = DefaultCredentialName
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = DefaultLookupTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Resolver{
		defaultHandle:  config.DefaultHandle,
		credentialName: config.CredentialName,
		credential:     config.Credential,
		strategies:     append([]Strategy(nil), config.Strategies...),
		lister:         config.Lister,
		cache:          config.Cache,
		lookupTimeout:  config.LookupTimeout,
		logger:         config.Logger.Named("resolver"),
	}, nil
}

// DefaultHandle returns the configured fallback handle.
func (r *Resolver) DefaultHandle() string {
	return r.defaultHandle
}

// NewRequest normalizes raw caller input against the configured default.
func (r *Resolver) NewRequest(handle, channelID, maxResults string) model.FeedRequest {
	return model.NewFeedRequest(handle, channelID, maxResults, r.defaultHandle)
}

// ResolveFeed returns the channel's most recent videos. Errors are always
// *model.FeedError, classed as configuration, not found or upstream.
func (r *Resolver) ResolveFeed(ctx context.Context, req model.FeedRequest) (*model.FeedResponse, error) {
	if r.credential == "" {
		return nil, model.CreateConfigurationError(r.credentialName)
	}

	req.Handle = model.NormalizeHandle(req.Handle, r.defaultHandle)
	if req.MaxResults == 0 {
		req.MaxResults = model.DefaultMaxResults
	}
	req.MaxResults = model.ClampMaxResults(req.MaxResults)
	display := req.DisplayHandle()

	channelID := req.ChannelID
	strategy := ""
	if channelID == "" {
		id, via, err := r.resolveChannel(ctx, req.Handle)
		if err != nil {
			return nil, err
		}
		channelID, strategy = id, via
	}

	items, err := r.lister.ListVideos(ctx, channelID, req.MaxResults)
	if err != nil {
		if strategy == strategyCache && isRejected(err) {
			// The cached id no longer names a channel upstream knows.
			r.cache.Delete(ctx, cacheKey(req.Handle))
			r.logger.Info("evicted rejected channel id",
				zap.String("handle", display),
				zap.String("channel_id", channelID))
		}
		return nil, upstreamFailure(err, display, "list_videos")
	}

	return &model.FeedResponse{
		ChannelID: channelID,
		Handle:    display,
		Videos:    model.ShapeVideos(items),
	}, nil
}

// ResolveChannel maps a handle to a channel id through the cache and the
// strategy chain. An unresolvable handle is a not-found error.
func (r *Resolver) ResolveChannel(ctx context.Context, handle string) (string, error) {
	id, _, err := r.resolveChannel(ctx, handle)
	return id, err
}

// resolveChannel also reports which strategy produced the id, strategyCache
// for a cache hit.
func (r *Resolver) resolveChannel(ctx context.Context, handle string) (string, string, error) {
	handle = model.NormalizeHandle(handle, r.defaultHandle)
	display := model.DisplayHandle(handle)

	var (
		id       string
		strategy string
		err      error
	)
	if r.cache == nil {
		id, strategy, err = runChain(ctx, r.strategies, handle)
	} else {
		id, strategy, err = r.resolveShared(ctx, handle)
	}
	if err != nil {
		return "", "", upstreamFailure(err, display, "resolve_channel")
	}
	if id == "" {
		return "", "", model.CreateNotFoundError(display)
	}

	r.logger.Debug("resolved channel",
		zap.String("handle", display),
		zap.String("channel_id", id),
		zap.String("strategy", strategy))
	return id, strategy, nil
}

const strategyCache = "cache"

// cacheKey folds case: handles are case-insensitive upstream.
func cacheKey(handle string) string {
	return strings.ToLower(handle)
}

// isRejected reports whether the upstream refused the request itself (a 4xx
// other than quota), as it does for an unknown or deleted channel id.
func isRejected(err error) bool {
	fe, ok := model.AsFeedError(err)
	return ok && fe.ErrorType == model.ErrorTypeHTTPClientError
}

type chainResult struct {
	id       string
	strategy string
}

// resolveShared consults the cache and collapses concurrent misses for the
// same handle, in any letter case, into one chain run. The run is detached from the first
// caller so that caller's abort does not fail the others; the waiting
// caller still returns as soon as its own context ends.
func (r *Resolver) resolveShared(ctx context.Context, handle string) (string, string, error) {
	key := cacheKey(handle)
	if id, ok := r.cache.Get(ctx, key); ok {
		return id, strategyCache, nil
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()

		id, strategy, err := runChain(lookupCtx, r.strategies, handle)
		if err == nil && id != "" {
			r.cache.Set(lookupCtx, key, id)
		}
		return chainResult{id: id, strategy: strategy}, err
	})

	select {
	case <-ctx.Done():
		return "", "", model.CreateNetworkError(ctx.Err(), "", "resolve_channel").WithComponent("resolver")
	case res := <-ch:
		if res.Shared {
			r.logger.Debug("shared channel resolution", zap.String("handle", handle))
		}
		result, _ := res.Val.(chainResult)
		return result.id, result.strategy, res.Err
	}
}

// upstreamFailure makes sure err is an upstream-class FeedError tagged with
// the handle.
func upstreamFailure(err error, display, operation string) *model.FeedError {
	fe, ok := model.AsFeedError(err)
	if !ok {
		fe = model.NewFeedErrorWithCause(model.ErrorTypeUnknown, err.Error(), err).
			WithOperation(operation).
			WithComponent("resolver")
	}
	if fe.Class() != model.ClassUpstream {
		fe = model.NewFeedErrorWithCause(model.ErrorTypeInternal, fe.Message, fe).
			WithOperation(operation).
			WithComponent("resolver")
	}
	if fe.Handle == "" {
		// Shared resolutions hand the same error to every waiter.
		tagged := *fe
		tagged.Handle = display
		return &tagged
	}
	return fe
}
