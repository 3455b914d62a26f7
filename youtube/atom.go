package youtube

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
)

// AtomConfig configures an AtomLister.
type AtomConfig struct {
	BaseURL    string       // defaults to DefaultAtomBaseURL
	HTTPClient *http.Client // defaults to NewHTTPClient(HTTPConfig{})
	Breakers   *Breakers
	Logger     *zap.Logger
}

// AtomLister lists a channel's videos from its public Atom feed. It needs no
// API key and costs no quota, but the feed is capped upstream at 15 entries.
type AtomLister struct {
	baseURL  string
	client   *http.Client
	breakers *Breakers
	logger   *zap.Logger
}

// NewAtomLister validates the base URL and builds a lister.
func NewAtomLister(config AtomConfig) (*AtomLister, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultAtomBaseURL
	}
	if err := model.ValidateEndpointURL(config.BaseURL); err != nil {
		return nil, model.CreateValidationError(err, config.BaseURL)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = NewHTTPClient(HTTPConfig{})
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &AtomLister{
		baseURL:  config.BaseURL,
		client:   config.HTTPClient,
		breakers: config.Breakers,
		logger:   config.Logger.Named("atom"),
	}, nil
}

// FeedURL returns the Atom feed location for a channel id.
func (a *AtomLister) FeedURL(channelID string) string {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return a.baseURL + "?channel_id=" + url.QueryEscape(channelID)
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()
	return u.String()
}

// ListVideos fetches the channel feed and returns at most maxResults entries
// in feed order, which is newest first.
func (a *AtomLister) ListVideos(ctx context.Context, channelID string, maxResults int) ([]model.UpstreamItem, error) {
	feedURL := a.FeedURL(channelID)

	return execute(a.breakers, OperationAtom, func() ([]model.UpstreamItem, error) {
		fp := gofeed.NewParser()
		fp.Client = a.client
		feed, err := fp.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			fe := a.classify(err, feedURL)
			a.logger.Debug("atom fetch failed", model.FeedErrorFields(fe)...)
			return nil, fe
		}

		items := make([]model.UpstreamItem, 0, min(len(feed.Items), maxResults))
		for _, item := range feed.Items {
			if len(items) == maxResults {
				break
			}
			if item == nil {
				continue
			}
			items = append(items, atomItem(feed, item))
		}
		return items, nil
	})
}

func (a *AtomLister) classify(err error, feedURL string) *model.FeedError {
	err = errors.Wrap(err, "fetching channel atom feed")

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		fe := model.CreateHTTPError(httpErr.StatusCode, nil, feedURL, "list_videos_atom")
		fe.Cause = err
		return fe.WithComponent("atom")
	}
	if errors.Is(err, ErrRateLimited) {
		return model.CreateRateLimitError(feedURL, err).WithComponent("atom")
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return model.CreateParsingError(err, feedURL, "list_videos_atom").WithComponent("atom")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.CreateNetworkError(err, feedURL, "list_videos_atom").WithComponent("atom")
	}
	return model.CreateParsingError(err, feedURL, "list_videos_atom").WithComponent("atom")
}

func atomItem(feed *gofeed.Feed, item *gofeed.Item) model.UpstreamItem {
	out := model.UpstreamItem{
		VideoID:     extensionValue(item.Extensions, "yt", "videoId"),
		ChannelID:   extensionValue(item.Extensions, "yt", "channelId"),
		Title:       item.Title,
		Description: item.Description,
		PublishedAt: item.Published,
	}
	if out.VideoID != "" {
		out.Kind = KindVideo
	}

	switch {
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		out.ChannelTitle = item.Authors[0].Name
	case len(feed.Authors) > 0 && feed.Authors[0] != nil:
		out.ChannelTitle = feed.Authors[0].Name
	default:
		out.ChannelTitle = feed.Title
	}

	if group := firstExtension(item.Extensions, "media", "group"); group != nil {
		if thumbs := group.Children["thumbnail"]; len(thumbs) > 0 {
			out.MediumThumbnailURL = thumbs[0].Attrs["url"]
		}
		if out.Description == "" {
			if desc := group.Children["description"]; len(desc) > 0 {
				out.Description = desc[0].Value
			}
		}
	}
	return out
}

func firstExtension(exts ext.Extensions, prefix, name string) *ext.Extension {
	if exts == nil {
		return nil
	}
	if values := exts[prefix][name]; len(values) > 0 {
		return &values[0]
	}
	return nil
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	if e := firstExtension(exts, prefix, name); e != nil {
		return e.Value
	}
	return ""
}
