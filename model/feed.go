package model

import "fmt"

const (
	watchURLFormat = "https://www.youtube.com/watch?v=%s"
	embedURLFormat = "https://www.youtube.com/embed/%s"
)

// UpstreamItem is one raw result returned by a video lister, before shaping.
// Kind is the upstream resource kind ("youtube#video", "youtube#channel", ...).
type UpstreamItem struct {
	Kind               string
	VideoID            string
	ChannelID          string
	Title              string
	Description        string
	PublishedAt        string
	MediumThumbnailURL string
	ChannelTitle       string
}

// VideoSummary is a display-ready video. The JSON names match what the site
// widgets consume.
type VideoSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"publishedAt"`
	ThumbnailURL string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
	WatchURL     string `json:"url"`
	EmbedURL     string `json:"embedUrl"`
}

// FeedResponse is the body of a successful feed lookup.
type FeedResponse struct {
	ChannelID string         `json:"channelId"`
	Handle    string         `json:"handle"`
	Videos    []VideoSummary `json:"videos"`
}

// ErrorResponse is the body of every failed lookup.
type ErrorResponse struct {
	Error  string `json:"error"`
	Handle string `json:"handle,omitempty"`
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLFormat, videoID)
}

// EmbedURL returns the canonical embeddable player URL for a video id.
func EmbedURL(videoID string) string {
	return fmt.Sprintf(embedURLFormat, videoID)
}

// ShapeVideos keeps the items that carry a video id, in upstream order, and
// turns them into VideoSummary values. The result is never nil.
func ShapeVideos(items []UpstreamItem) []VideoSummary {
	videos := make([]VideoSummary, 0, len(items))
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		videos = append(videos, VideoSummary{
			ID:           item.VideoID,
			Title:        item.Title,
			Description:  item.Description,
			PublishedAt:  item.PublishedAt,
			ThumbnailURL: item.MediumThumbnailURL,
			ChannelTitle: item.ChannelTitle,
			WatchURL:     WatchURL(item.VideoID),
			EmbedURL:     EmbedURL(item.VideoID),
		})
	}
	return videos
}

// NewErrorResponse builds the public body for err. Not-found errors carry
// the searched handle.
func NewErrorResponse(err error) ErrorResponse {
	fe, ok := AsFeedError(err)
	if !ok {
		return ErrorResponse{Error: MessageFetchFailed}
	}
	resp := ErrorResponse{Error: fe.PublicMessage()}
	if fe.Class() == ClassNotFound {
		resp.Handle = fe.Handle
	}
	return resp
}
