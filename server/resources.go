package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richardwooding/ytfeed/model"
)

// ChannelVideosURI is the resource template for a channel's recent videos.
// Handles are written without the leading @.
const ChannelVideosURI = "youtube://channel/{handle}/videos"

var channelVideosPattern = regexp.MustCompile(`^youtube://channel/([^/]+)/videos$`)

// PromptChannelDigest is the name of the digest prompt.
const PromptChannelDigest = "channel_digest"

func (s *Server) addResources(srv *mcp.Server) {
	srv.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "channel_videos",
		Title:       "Recent channel videos",
		Description: "The most recent videos of a YouTube channel, as the channel_feed tool returns them",
		MIMEType:    "application/json",
		URITemplate: ChannelVideosURI,
	}, s.readChannelVideos)
}

func (s *Server) readChannelVideos(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	handle, err := handleFromURI(uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.resolver.ResolveFeed(ctx, s.resolver.NewRequest(handle, "", ""))
	if err != nil {
		fe, ok := model.AsFeedError(err)
		if ok {
			model.LogFeedError(s.logger, fe)
			if fe.Class() == model.ClassNotFound {
				return nil, mcp.ResourceNotFoundError(uri)
			}
		}
		return nil, errors.New(model.NewErrorResponse(err).Error)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func handleFromURI(uri string) (string, error) {
	matches := channelVideosPattern.FindStringSubmatch(uri)
	if len(matches) < 2 {
		return "", mcp.ResourceNotFoundError(uri)
	}
	handle, err := url.PathUnescape(matches[1])
	if err != nil {
		return "", model.NewFeedErrorWithCause(model.ErrorTypeValidation, "invalid handle in resource URI", err).
			WithURL(uri).
			WithOperation("read_resource").
			WithComponent("server")
	}
	return handle, nil
}

func (s *Server) addPrompts(srv *mcp.Server) {
	srv.AddPrompt(&mcp.Prompt{
		Name:        PromptChannelDigest,
		Title:       "Channel digest",
		Description: "Summarize what a YouTube channel has published recently",
		Arguments: []*mcp.PromptArgument{
			{Name: "handle", Description: "Channel handle, with or without @. Defaults to the configured handle."},
			{Name: "maxResults", Description: "Number of videos to include, 1 to 24. Defaults to 6."},
		},
	}, s.handleChannelDigest)
}

func (s *Server) handleChannelDigest(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.resolver.ResolveFeed(ctx, s.resolver.NewRequest(args["handle"], "", args["maxResults"]))
	if err != nil {
		if fe, ok := model.AsFeedError(err); ok {
			model.LogFeedError(s.logger, fe)
		}
		body := model.NewErrorResponse(err)
		msg := body.Error
		if body.Handle != "" {
			msg += ": " + body.Handle
		}
		return promptResult("Channel digest unavailable", "Could not load the channel feed. "+msg+"."), nil
	}

	return promptResult("Digest of "+resp.Handle, digestText(resp)), nil
}

func digestText(resp *model.FeedResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Recent videos from %s\n\n", resp.Handle)
	fmt.Fprintf(&b, "Channel id: %s\n\n", resp.ChannelID)
	if len(resp.Videos) == 0 {
		b.WriteString("The channel has no recent videos.\n")
	}
	for i, v := range resp.Videos {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n   %s\n", i+1, v.Title, v.PublishedAt, v.WatchURL)
		if desc := strings.TrimSpace(v.Description); desc != "" {
			fmt.Fprintf(&b, "   %s\n", desc)
		}
	}
	b.WriteString("\nSummarize what this channel has been publishing lately and how often it posts.")
	return b.String()
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}
}
