package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/henvic/httpretty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/stateful/embedkit/internal/lru"
)

const (
	DefaultBaseURL       = "https://api.ndla.no"
	DefaultOembedURL     = "https://api.ndla.no/oembed-proxy/v1/oembed"
	DefaultBrightcoveURL = "https://cms.api.brightcove.com/v1/accounts"

	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	defaultCacheSize = 256

	maxResponseBody = 4 << 20
)

// Client fetches embed metadata over HTTP. Responses are cached by URL
// and concurrent requests for the same URL share one round trip.
type Client struct {
	baseURL           string
	oembedURL         string
	brightcoveURL     string
	brightcoveAccount string

	timeout      time.Duration
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	cacheSize    int
	transport    http.RoundTripper
	debug        io.Writer
	logger       *zap.Logger

	http  *http.Client
	group singleflight.Group
	cache *lru.Cache[cachedResponse]
}

var _ Fetcher = (*Client)(nil)

type cachedResponse struct {
	url  string
	body []byte
}

func (r cachedResponse) Identifier() string { return r.url }

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithOembedURL(oembedURL string) ClientOption {
	return func(c *Client) {
		c.oembedURL = oembedURL
	}
}

func WithBrightcove(baseURL, account string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.brightcoveURL = strings.TrimSuffix(baseURL, "/")
		}
		c.brightcoveAccount = account
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithRetries(retries int, waitMin, waitMax time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = retries
		if waitMin > 0 {
			c.retryWaitMin = waitMin
		}
		if waitMax > 0 {
			c.retryWaitMax = waitMax
		}
	}
}

func WithCacheSize(size int) ClientOption {
	return func(c *Client) {
		c.cacheSize = size
	}
}

func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithDebug dumps requests and responses to w.
func WithDebug(w io.Writer) ClientOption {
	return func(c *Client) {
		c.debug = w
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		oembedURL:     DefaultOembedURL,
		brightcoveURL: DefaultBrightcoveURL,
		timeout:       defaultTimeout,
		retries:       defaultRetries,
		retryWaitMin:  200 * time.Millisecond,
		retryWaitMax:  2 * time.Second,
		cacheSize:     defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retries
	rc.RetryWaitMin = c.retryWaitMin
	rc.RetryWaitMax = c.retryWaitMax
	rc.Logger = &leveledLogger{logger: c.logger.Sugar()}
	rc.HTTPClient.Timeout = c.timeout
	if c.transport != nil {
		rc.HTTPClient.Transport = c.transport
	}
	if c.debug != nil {
		rc.HTTPClient.Transport = debugTransport(c.debug, rc.HTTPClient.Transport)
	}

	c.http = rc.StandardClient()
	c.cache = lru.NewCache[cachedResponse](c.cacheSize)
	return c
}

func debugTransport(out io.Writer, next http.RoundTripper) http.RoundTripper {
	logger := &httpretty.Logger{
		Time:            true,
		TLS:             false,
		RequestHeader:   true,
		RequestBody:     true,
		ResponseHeader:  true,
		ResponseBody:    true,
		Formatters:      []httpretty.Formatter{&httpretty.JSONFormatter{}},
		MaxResponseBody: 50000,
	}
	logger.SetOutput(out)
	return logger.RoundTripper(next)
}

func (c *Client) FetchOembed(ctx context.Context, embedURL string) (*Oembed, error) {
	query := url.Values{"url": {embedURL}, "format": {"json"}}
	var result Oembed
	if err := c.getJSON(ctx, c.oembedURL+"?"+query.Encode(), &result); err != nil {
		return nil, errors.Wrapf(err, "oembed for %s", embedURL)
	}
	return &result, nil
}

func (c *Client) FetchImage(ctx context.Context, id, language string) (*ImageMetadata, error) {
	endpoint := c.baseURL + "/image-api/v3/images/" + url.PathEscape(id) + languageQuery(language)
	var result ImageMetadata
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, errors.Wrapf(err, "image %s", id)
	}
	return &result, nil
}

func (c *Client) FetchBrightcoveVideo(ctx context.Context, id string) (*BrightcoveVideo, error) {
	if c.brightcoveAccount == "" {
		return nil, errors.New("brightcove account is not configured")
	}
	endpoint := fmt.Sprintf("%s/%s/videos/%s", c.brightcoveURL, url.PathEscape(c.brightcoveAccount), url.PathEscape(id))
	var result BrightcoveVideo
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, errors.Wrapf(err, "brightcove video %s", id)
	}
	return &result, nil
}

func (c *Client) FetchConcept(ctx context.Context, id int64, language string) (*Concept, error) {
	endpoint := c.baseURL + "/concept-api/v1/drafts/" + strconv.FormatInt(id, 10) + languageQuery(language)
	var result Concept
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, errors.Wrapf(err, "concept %d", id)
	}
	return &result, nil
}

func languageQuery(language string) string {
	if language == "" {
		return ""
	}
	return "?" + url.Values{"language": {language}, "fallback": {"true"}}.Encode()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	if cached, ok := c.cache.GetByID(endpoint); ok {
		return decodeJSON(cached.body, v)
	}

	result, err, shared := c.group.Do(endpoint, func() (any, error) {
		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		c.cache.Add(cachedResponse{url: endpoint, body: body})
		return body, nil
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.Debug("shared in-flight request", zap.String("url", endpoint))
	}
	return decodeJSON(result.([]byte), v)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	logger := c.logger.With(zap.String("url", endpoint), zap.String("request_id", requestID))
	logger.Debug("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Info("request failed", zap.Error(err))
		return nil, errors.WithStack(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.Wrapf(ErrStatus, "%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	logger.Debug("received response", zap.Int("status", resp.StatusCode), zap.Int("size", len(body)))
	return body, nil
}

// leveledLogger routes retryablehttp logs to zap.
type leveledLogger struct {
	logger *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}
