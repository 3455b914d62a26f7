// Package store keeps the handle to channel id mapping between requests.
package store

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"go.uber.org/zap"
)

// Defaults for the channel id cache.
const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 10000
)

// Config configures a ChannelStore. MaxEntries defaults to
// DefaultMaxEntries and a nil Logger discards output.
type Config struct {
	TTL        time.Duration // <= 0 disables caching
	MaxEntries int64
	Logger     *zap.Logger
}

// ChannelStore is a bounded TTL cache from normalized handle to channel id.
// It is safe for concurrent use.
type ChannelStore struct {
	ttl      time.Duration
	client   *ristretto.Cache[string, string]
	channels *cache.Cache[string]
	logger   *zap.Logger
}

// NewChannelStore builds the cache. With a non-positive TTL it returns a
// store that never holds anything.
func NewChannelStore(config Config) (*ChannelStore, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		return &ChannelStore{logger: config.Logger}, nil
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}

	client, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        config.MaxEntries * 10,
		MaxCost:            config.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &ChannelStore{
		ttl:      config.TTL,
		client:   client,
		channels: cache.New[string](ristretto_store.NewRistretto(client)),
		logger:   config.Logger.Named("store"),
	}, nil
}

// Enabled reports whether the store holds entries at all.
func (s *ChannelStore) Enabled() bool {
	return s != nil && s.channels != nil
}

// Get returns the cached channel id for handle. Any store error is a miss.
func (s *ChannelStore) Get(ctx context.Context, handle string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	channelID, err := s.channels.Get(ctx, handle)
	if err != nil || channelID == "" {
		return "", false
	}
	return channelID, true
}

// Set records channelID for handle for the configured TTL. Empty ids are
// never stored.
func (s *ChannelStore) Set(ctx context.Context, handle, channelID string) {
	if !s.Enabled() || channelID == "" {
		return
	}
	err := s.channels.Set(ctx, handle, channelID,
		store.WithExpiration(s.ttl),
		store.WithCost(1),
	)
	if err != nil {
		s.logger.Warn("failed to cache channel id",
			zap.String("handle", handle),
			zap.Error(err))
		return
	}
	// Make the write visible to the next Get.
	s.client.Wait()
}

// Delete drops handle from the cache.
func (s *ChannelStore) Delete(ctx context.Context, handle string) {
	if !s.Enabled() {
		return
	}
	_ = s.channels.Delete(ctx, handle)
}

// Close releases the cache's background goroutines.
func (s *ChannelStore) Close() {
	if s.Enabled() {
		s.client.Close()
	}
}
