package cmd

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
	"github.com/richardwooding/ytfeed/server"
)

// ServeCmd runs the feed service.
type ServeCmd struct {
	UpstreamFlags `embed:""`

	Transport       string        `name:"transport" default:"http" enum:"http,stdio" help:"Transport to serve on (http, stdio)."`
	Addr            string        `name:"addr" default:":8080" env:"YTFEED_ADDR" help:"Listen address for the HTTP transport."`
	MCP             bool          `name:"mcp" help:"Also serve the MCP tool at /mcp on the HTTP transport."`
	RequestTimeout  time.Duration `name:"request-timeout" default:"15s" help:"Deadline for one feed request."`
	FreshFor        time.Duration `name:"fresh-for" default:"300s" help:"s-maxage advertised on successful responses."`
	StaleFor        time.Duration `name:"stale-for" default:"600s" help:"stale-while-revalidate advertised on successful responses."`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

func (c *ServeCmd) Run(ctx context.Context, logger *zap.Logger) error {
	transport, err := model.ParseTransport(c.Transport)
	if err != nil {
		return err
	}

	res, cleanup, err := c.newResolver(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.NewServer(server.Config{
		Resolver:        res,
		Transport:       transport,
		Addr:            c.Addr,
		EnableMCP:       c.MCP,
		RequestTimeout:  c.RequestTimeout,
		FreshFor:        c.FreshFor,
		StaleFor:        c.StaleFor,
		ShutdownTimeout: c.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if c.APIKey == "" {
		logger.Warn("no API key configured, every feed request will fail",
			zap.String("credential", "YOUTUBE_API_KEY"))
	}
	return srv.Run(ctx)
}

// FetchCmd resolves one feed and prints it as JSON. On failure it prints
// the public error body and exits non-zero.
type FetchCmd struct {
	UpstreamFlags `embed:""`

	Handle     string        `arg:"" optional:"" name:"handle" help:"Channel handle, with or without @. Defaults to --default-handle."`
	ChannelID  string        `name:"channel-id" help:"Fetch this channel id and skip handle resolution."`
	MaxResults string        `name:"max-results" default:"6" help:"Number of videos, clamped to 1..24."`
	Timeout    time.Duration `name:"timeout" default:"15s" help:"Deadline for the whole fetch."`
}

func (c *FetchCmd) Run(ctx context.Context, kctx *kong.Context, logger *zap.Logger) error {
	return c.fetch(ctx, logger, kctx.Stdout)
}

func (c *FetchCmd) fetch(ctx context.Context, logger *zap.Logger, out io.Writer) error {
	res, cleanup, err := c.newResolver(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	resp, err := res.ResolveFeed(ctx, res.NewRequest(c.Handle, c.ChannelID, c.MaxResults))
	if err != nil {
		if fe, ok := model.AsFeedError(err); ok {
			model.LogFeedError(logger, fe)
		}
		_ = enc.Encode(model.NewErrorResponse(err))
		return err
	}
	return enc.Encode(resp)
}
