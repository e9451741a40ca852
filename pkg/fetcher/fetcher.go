package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"wallcrawl/pkg/config"
	"wallcrawl/pkg/errors"
	"wallcrawl/pkg/logger"
)

// Response is a fully read upstream response
type Response struct {
	// URL is the final URL after redirects
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// Fetcher issues plain HTTP requests with the crawler's fixed headers.
// It is safe for concurrent use; the underlying client is never mutated
// after construction.
type Fetcher struct {
	client *resty.Client
	token  string
	logger logger.Logger
}

// Option customizes a Fetcher at construction time
type Option func(*resty.Client)

// WithTransport replaces the HTTP transport, mostly useful in tests
func WithTransport(rt http.RoundTripper) Option {
	return func(c *resty.Client) {
		c.SetTransport(rt)
	}
}

// New creates a Fetcher from crawler settings
func New(cfg *config.CrawlerConfig, log logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	referrer := cfg.Referrer
	if referrer == "" {
		referrer = config.DefaultReferrer
	}
	redirects := cfg.MaxRedirects
	if redirects <= 0 {
		redirects = 10
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(redirects))
	client.SetHeaders(map[string]string{
		"User-Agent":      userAgent,
		"Referer":         referrer,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})
	client.SetLogger(&restyLogger{log: log})

	for _, opt := range opts {
		opt(client)
	}

	return &Fetcher{
		client: client,
		logger: log,
	}
}

// WithBearerToken returns a Fetcher that sends token as an
// Authorization: Bearer header on every request. The token is opaque
// and never refreshed here.
func (f *Fetcher) WithBearerToken(token string) *Fetcher {
	return &Fetcher{
		client: f.client,
		token:  token,
		logger: f.logger,
	}
}

// Get fetches url
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	return f.GetWithQuery(ctx, url, nil, nil)
}

// GetWithQuery fetches url with extra query parameters and headers
func (f *Fetcher) GetWithQuery(ctx context.Context, url string, params, headers map[string]string) (*Response, error) {
	req := f.request(ctx, headers)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	return f.do(req, http.MethodGet, url)
}

// PostForm submits a form-encoded body to url
func (f *Fetcher) PostForm(ctx context.Context, url string, form, headers map[string]string) (*Response, error) {
	req := f.request(ctx, headers).SetFormData(form)
	return f.do(req, http.MethodPost, url)
}

func (f *Fetcher) request(ctx context.Context, headers map[string]string) *resty.Request {
	req := f.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if f.token != "" {
		req.SetAuthToken(f.token)
	}
	return req
}

func (f *Fetcher) do(req *resty.Request, method, url string) (*Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, url)
	elapsed := time.Since(start)

	if err != nil {
		f.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      url,
			"error":    err.Error(),
			"duration": elapsed,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     url,
		}
	}

	logger.LogRequest(f.logger, method, url, resp.StatusCode(), elapsed)

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errors.FromStatusCode(url, resp.StatusCode())
	}

	finalURL := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	return &Response{
		URL:        finalURL,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// restyLogger routes resty's own diagnostics into the crawler logger
type restyLogger struct {
	log logger.Logger
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.log.WithField("component", "resty").Warn(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.log.WithField("component", "resty").Warn(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.log.WithField("component", "resty").Debug(fmt.Sprintf(format, v...))
}
