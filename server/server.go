// Package server exposes the channel feed resolver over HTTP and as an MCP
// tool.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
)

// Defaults for Config fields left zero.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultFreshFor        = 300 * time.Second
	DefaultStaleFor        = 600 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// FeedResolver is the part of the resolver the transports need.
type FeedResolver interface {
	NewRequest(handle, channelID, maxResults string) model.FeedRequest
	ResolveFeed(ctx context.Context, req model.FeedRequest) (*model.FeedResponse, error)
}

// Config holds the configuration for creating a new Server
type Config struct {
	Resolver  FeedResolver
	Transport model.Transport
	Addr      string
	// EnableMCP mounts the streamable MCP endpoint at /mcp on the HTTP transport.
	EnableMCP       bool
	RequestTimeout  time.Duration
	FreshFor        time.Duration // s-maxage on successful responses
	StaleFor        time.Duration // stale-while-revalidate on successful responses
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server serves channel feeds over the configured transport.
type Server struct {
	resolver        FeedResolver
	transport       model.Transport
	addr            string
	enableMCP       bool
	requestTimeout  time.Duration
	freshFor        time.Duration
	staleFor        time.Duration
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewServer creates a new Server with the given configuration
func NewServer(config Config) (*Server, error) {
	if config.Transport == model.UndefinedTransport {
		return nil, model.NewFeedError(model.ErrorTypeTransport, "transport must be specified").
			WithOperation("create_server").
			WithComponent("server")
	}
	if config.Resolver == nil {
		return nil, model.NewFeedError(model.ErrorTypeConfiguration, "Resolver is required").
			WithOperation("create_server").
			WithComponent("server")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.FreshFor <= 0 {
		config.FreshFor = DefaultFreshFor
	}
	if config.StaleFor <= 0 {
		config.StaleFor = DefaultStaleFor
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Server{
		resolver:        config.Resolver,
		transport:       config.Transport,
		addr:            config.Addr,
		enableMCP:       config.EnableMCP,
		requestTimeout:  config.RequestTimeout,
		freshFor:        config.FreshFor,
		staleFor:        config.StaleFor,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          config.Logger.Named("server"),
	}, nil
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	switch s.transport {
	case model.HTTPTransport:
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return model.NewFeedErrorWithCause(model.ErrorTypeTransport, "failed to listen", err).
				WithOperation("run_server").
				WithComponent("server")
		}
		return s.Serve(ctx, ln)
	case model.StdioTransport:
		s.logger.Info("serving MCP over stdio")
		return s.RunStdio(ctx)
	default:
		return model.NewFeedError(model.ErrorTypeTransport, "unsupported transport").
			WithOperation("run_server").
			WithComponent("server")
	}
}

// Serve runs the HTTP surface on ln and shuts it down gracefully once ctx
// is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("mcp", s.enableMCP))
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down", zap.Duration("timeout", s.shutdownTimeout))
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
