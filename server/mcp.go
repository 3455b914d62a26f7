package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardwooding/ytfeed/model"
	"github.com/richardwooding/ytfeed/version"
)

// ToolChannelFeed is the name of the MCP tool.
const ToolChannelFeed = "channel_feed"

// ChannelFeedParams contains parameters for the channel_feed tool.
type ChannelFeedParams struct {
	Handle     string   `json:"handle,omitempty"`
	ChannelID  string   `json:"channelId,omitempty"`
	MaxResults *float64 `json:"maxResults,omitempty"`
}

// NewMCPServer builds the MCP server with the channel_feed tool registered.
func (s *Server) NewMCPServer() *mcp.Server {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ytfeed",
			Version: version.GetVersion(),
		},
		nil,
	)

	channelFeedTool := &mcp.Tool{
		Name:        ToolChannelFeed,
		Description: "Resolve a YouTube channel handle (or channel id) and list its most recent videos",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"handle": {
					Type:        "string",
					Description: "Channel handle, with or without leading @. Defaults to the configured handle.",
				},
				"channelId": {
					Type:        "string",
					Description: "Channel id. When set, the handle is not resolved.",
				},
				"maxResults": {
					Type:        "number",
					Description: "Number of videos, clamped to 1..24. Defaults to 6.",
				},
			},
		},
	}
	mcp.AddTool(srv, channelFeedTool, func(ctx context.Context, req *mcp.CallToolRequest, args ChannelFeedParams) (*mcp.CallToolResult, any, error) {
		maxResults := ""
		if args.MaxResults != nil {
			maxResults = strconv.FormatFloat(*args.MaxResults, 'f', -1, 64)
		}

		ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()

		feedReq := s.resolver.NewRequest(args.Handle, args.ChannelID, maxResults)
		resp, err := s.resolver.ResolveFeed(ctx, feedReq)
		if err != nil {
			if fe, ok := model.AsFeedError(err); ok {
				model.LogFeedError(s.logger, fe)
			}
			data, _ := json.Marshal(model.NewErrorResponse(err))
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
			}, nil, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})

	s.addResources(srv)
	s.addPrompts(srv)
	return srv
}

func (s *Server) mcpHandler() http.Handler {
	srv := s.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

// RunStdio serves the MCP tool over stdin/stdout until ctx is canceled or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.NewMCPServer().Run(ctx, &mcp.StdioTransport{})
}
