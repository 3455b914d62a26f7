package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/cmd"
	"github.com/richardwooding/ytfeed/model"
	"github.com/richardwooding/ytfeed/version"
)

// Configuration files read, in order, before any --config file.
var defaultConfigPaths = []string{"/etc/ytfeed/config.yaml", "~/.config/ytfeed/config.yaml"}

// CLI is the command line: global flags plus the serve (default) and fetch
// commands.
type CLI struct {
	model.Globals

	Serve cmd.ServeCmd `cmd:"" default:"withargs" help:"Serve channel feeds over HTTP, or the MCP tool over stdio."`
	Fetch cmd.FetchCmd `cmd:"" help:"Fetch one channel feed and print it as JSON."`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("ytfeed"),
		kong.Description("Resolve YouTube channel handles to their most recent videos."),
		kong.UsageOnError(),
		kong.Vars{"version": version.GetFullVersion()},
		kong.Configuration(cmd.YAML, defaultConfigPaths...),
	}, options...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := model.NewLogger(cli.LogLevel, cli.JSONLogs)
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(logger)

	err = kctx.Run()
	stop()
	if err != nil {
		logger.Debug("command failed", zap.String("command", kctx.Command()), zap.Error(err))
	}
	_ = logger.Sync()
	kctx.FatalIfErrorf(err)
}
