// Package fetchertest provides a canned-response transport for tests of
// code built on fetcher.Fetcher.
package fetchertest

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"wallcrawl/pkg/config"
	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/logger"
)

// Reply is a canned upstream response
type Reply struct {
	Status int
	Body   string
	Err    error
}

// Transport answers requests from a table keyed by URL without query
// string. Unmatched URLs get a 404.
type Transport struct {
	mu       sync.Mutex
	replies  map[string]Reply
	requests []*http.Request
}

// NewTransport creates a Transport with the given routes
func NewTransport(replies map[string]Reply) *Transport {
	if replies == nil {
		replies = make(map[string]Reply)
	}
	return &Transport{replies: replies}
}

// HTML registers a 200 response
func (t *Transport) HTML(url, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[url] = Reply{Status: http.StatusOK, Body: body}
}

// Requests returns every request seen so far
func (t *Transport) Requests() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*http.Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := *req.URL
	key.RawQuery = ""
	key.Fragment = ""

	t.mu.Lock()
	t.requests = append(t.requests, req)
	reply, ok := t.replies[key.String()]
	t.mu.Unlock()

	if !ok {
		reply = Reply{Status: http.StatusNotFound}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}

	return &http.Response{
		StatusCode: reply.Status,
		Body:       io.NopCloser(bytes.NewBufferString(reply.Body)),
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Request:    req,
	}, nil
}

// NewFetcher returns a Fetcher wired to t
func NewFetcher(t *Transport) *fetcher.Fetcher {
	cfg := config.DefaultConfig().Crawler
	cfg.Timeout = 5 * time.Second
	return fetcher.New(&cfg, logger.NewNopLogger(), fetcher.WithTransport(t))
}
