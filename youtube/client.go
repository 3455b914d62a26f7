package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/richardwooding/ytfeed/model"
)

// Upstream resource kinds.
const (
	KindVideo   = "youtube#video"
	KindChannel = "youtube#channel"
)

// quotaReasons are googleapi error reasons that mean the key's budget is spent.
var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
	"rateLimitExceeded":  true,
}

// DataAPIConfig configures a DataAPI client.
type DataAPIConfig struct {
	APIKey     string
	Endpoint   string       // defaults to DefaultEndpoint
	HTTPClient *http.Client // defaults to NewHTTPClient(HTTPConfig{})
	Breakers   *Breakers
	Logger     *zap.Logger
}

// DataAPI resolves channels and lists videos through the YouTube Data API v3.
// It satisfies the resolver's directory, searcher and lister roles.
type DataAPI struct {
	service  *yt.Service
	endpoint string
	breakers *Breakers
	logger   *zap.Logger
}

// NewDataAPI builds a client. The API key is attached to every request by
// the transport, so it never appears in logged URLs.
func NewDataAPI(ctx context.Context, config DataAPIConfig) (*DataAPI, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if err := model.ValidateEndpointURL(config.Endpoint); err != nil {
		return nil, model.CreateValidationError(err, config.Endpoint)
	}
	endpoint := model.NormalizeBaseURL(config.Endpoint)

	if config.HTTPClient == nil {
		config.HTTPClient = NewHTTPClient(HTTPConfig{})
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	base := config.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client := &http.Client{
		Transport: &transport.APIKey{Key: config.APIKey, Transport: base},
		Timeout:   config.HTTPClient.Timeout,
	}

	service, err := yt.NewService(ctx,
		option.WithHTTPClient(client),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating youtube service")
	}

	return &DataAPI{
		service:  service,
		endpoint: endpoint,
		breakers: config.Breakers,
		logger:   config.Logger.Named("youtube"),
	}, nil
}

// ChannelIDForHandle looks a handle up in the channel directory. It returns
// "" when the directory has no such handle.
func (d *DataAPI) ChannelIDForHandle(ctx context.Context, handle string) (string, error) {
	handle = model.StripHandle(handle)
	return execute(d.breakers, OperationChannels, func() (string, error) {
		resp, err := d.service.Channels.List([]string{"id"}).
			ForHandle(handle).
			Context(ctx).
			Do()
		if err != nil {
			return "", d.classify(err, "channels", "resolve_handle")
		}
		for _, item := range resp.Items {
			if item != nil && item.Id != "" {
				return item.Id, nil
			}
		}
		d.logger.Debug("no channel for handle", zap.String("handle", handle))
		return "", nil
	})
}

// SearchChannelID runs a channel-type search for query and returns the id of
// the top result, or "" when nothing matched.
func (d *DataAPI) SearchChannelID(ctx context.Context, query string) (string, error) {
	return execute(d.breakers, OperationSearch, func() (string, error) {
		resp, err := d.service.Search.List([]string{"snippet"}).
			Type("channel").
			Q(query).
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return "", d.classify(err, "search", "search_channel")
		}
		if len(resp.Items) == 0 || resp.Items[0] == nil || resp.Items[0].Id == nil {
			d.logger.Debug("channel search returned nothing", zap.String("query", query))
			return "", nil
		}
		return resp.Items[0].Id.ChannelId, nil
	})
}

// ListVideos returns up to maxResults of the channel's videos, newest first.
func (d *DataAPI) ListVideos(ctx context.Context, channelID string, maxResults int) ([]model.UpstreamItem, error) {
	return execute(d.breakers, OperationSearch, func() ([]model.UpstreamItem, error) {
		resp, err := d.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Order("date").
			Type("video").
			MaxResults(int64(maxResults)).
			Context(ctx).
			Do()
		if err != nil {
			return nil, d.classify(err, "search", "list_videos")
		}
		return searchItems(resp.Items), nil
	})
}

func searchItems(results []*yt.SearchResult) []model.UpstreamItem {
	items := make([]model.UpstreamItem, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		var item model.UpstreamItem
		if r.Id != nil {
			item.Kind = r.Id.Kind
			item.VideoID = r.Id.VideoId
			item.ChannelID = r.Id.ChannelId
		}
		if s := r.Snippet; s != nil {
			item.Title = s.Title
			item.Description = s.Description
			item.PublishedAt = s.PublishedAt
			item.ChannelTitle = s.ChannelTitle
			if s.Thumbnails != nil && s.Thumbnails.Medium != nil {
				item.MediumThumbnailURL = s.Thumbnails.Medium.Url
			}
		}
		items = append(items, item)
	}
	return items
}

// classify turns a client library error into a FeedError. resource is the
// path segment under youtube/v3 used for error context.
func (d *DataAPI) classify(err error, resource, operation string) error {
	upstreamURL := d.endpoint + "youtube/v3/" + resource
	err = errors.Wrapf(err, "youtube %s.list", resource)

	var fe *model.FeedError
	var apiErr *googleapi.Error
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &apiErr):
		if isQuotaError(apiErr) {
			fe = model.CreateQuotaError(apiErr.Code, apiErr.Header, upstreamURL, operation, err)
		} else {
			fe = model.CreateHTTPError(apiErr.Code, apiErr.Header, upstreamURL, operation)
			fe.Cause = err
		}
	case errors.Is(err, ErrRateLimited):
		fe = model.CreateRateLimitError(upstreamURL, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		fe = model.CreateParsingError(err, upstreamURL, operation)
	default:
		fe = model.CreateNetworkError(err, upstreamURL, operation)
	}

	fe.WithComponent("youtube")
	d.logger.Debug("upstream call failed", model.FeedErrorFields(fe)...)
	return fe
}

func isQuotaError(apiErr *googleapi.Error) bool {
	if apiErr.Code != http.StatusForbidden && apiErr.Code != http.StatusTooManyRequests {
		return false
	}
	for _, item := range apiErr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return false
}
