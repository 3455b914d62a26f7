// Package youtube talks to the upstream video platform: the Data API v3
// channel directory and search, and the public per-channel Atom feed.
package youtube

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Default upstream locations.
const (
	DefaultEndpoint    = "https://youtube.googleapis.com/"
	DefaultAtomBaseURL = "https://www.youtube.com/feeds/videos.xml"
	DefaultTimeout     = 10 * time.Second
)

// ErrRateLimited marks a request the outbound limiter refused because its
// deadline would pass before a token became available.
var ErrRateLimited = errors.New("outbound rate limit exceeded")

// RateLimitedTransport wraps an http.RoundTripper with rate limiting. It
// guards the upstream quota; it does not limit inbound callers.
type RateLimitedTransport struct {
	transport   http.RoundTripper
	rateLimiter *rate.Limiter
}

// NewRateLimitedTransport limits next to requestsPerSecond with the given
// burst. A nil next uses http.DefaultTransport.
func NewRateLimitedTransport(next http.RoundTripper, requestsPerSecond float64, burst int) *RateLimitedTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedTransport{
		transport:   next,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// RoundTrip implements the http.RoundTripper interface with rate limiting
func (r *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := r.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	return r.transport.RoundTrip(req)
}

// HTTPConfig configures the outbound client shared by every upstream call.
type HTTPConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables the limiter
	BurstCapacity     int
	Transport         http.RoundTripper
}

// NewHTTPClient builds the outbound client. The limiter is only installed
// when RequestsPerSecond is positive.
func NewHTTPClient(config HTTPConfig) *http.Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	transport := config.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if config.RequestsPerSecond > 0 {
		transport = NewRateLimitedTransport(transport, config.RequestsPerSecond, config.BurstCapacity)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}
