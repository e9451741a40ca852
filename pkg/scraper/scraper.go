package scraper

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"wallcrawl/pkg/config"
	"wallcrawl/pkg/errors"
	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/gdrive"
	"wallcrawl/pkg/generic"
	"wallcrawl/pkg/googlephotos"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/pinterest"
	"wallcrawl/pkg/urlutil"
)

// Scraper routes a source to the extractor that understands it and
// falls back to the generic HTML scan when that extractor comes up empty
type Scraper struct {
	specialized []Extractor
	fallback    Extractor
	config      *config.CrawlerConfig
	logger      logger.Logger
}

// Option customizes the HTTP side of a Scraper
type Option func(*settings)

type settings struct {
	token       string
	fetcherOpts []fetcher.Option
}

// WithBearerToken sends token with every upstream request
func WithBearerToken(token string) Option {
	return func(s *settings) {
		s.token = token
	}
}

// WithTransport replaces the HTTP transport of the shared fetcher
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.fetcherOpts = append(s.fetcherOpts, fetcher.WithTransport(rt))
	}
}

// New creates a Scraper with every built-in extractor sharing one fetcher
func New(cfg *config.Config, log logger.Logger, opts ...Option) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	f := fetcher.New(&cfg.Crawler, log, s.fetcherOpts...)
	if s.token != "" {
		f = f.WithBearerToken(s.token)
	}

	return NewWithExtractors(&cfg.Crawler, log,
		generic.New(f, log),
		pinterest.New(f, log),
		googlephotos.New(f, log),
		gdrive.New(f, log),
	)
}

// NewWithExtractors creates a Scraper from explicit extractors. Specialized
// extractors are tried in order; fallback handles everything else.
func NewWithExtractors(cfg *config.CrawlerConfig, log logger.Logger, fallback Extractor, specialized ...Extractor) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		specialized: specialized,
		fallback:    fallback,
		config:      cfg,
		logger:      log,
	}
}

// Discover returns one page of candidates for source. It never fails:
// upstream and parsing errors are logged and collapse to an empty page.
func (s *Scraper) Discover(ctx context.Context, source string, limit int, cursor string) models.Page {
	source = strings.TrimSpace(source)
	cursor = strings.TrimSpace(cursor)
	if source == "" {
		return models.EmptyPage()
	}
	limit = s.pageSize(limit)

	if owner := s.cursorOwner(cursor); owner != nil {
		page, err := owner.Extract(ctx, source, limit, cursor)
		if err != nil {
			s.logFailure(owner.Name(), source, err)
			return models.EmptyPage()
		}
		return s.finish(owner.Name(), source, page)
	}

	u, isURL := urlutil.ParseHTTP(source)
	if !isURL {
		return s.search(ctx, source, limit)
	}

	for _, ex := range s.specialized {
		if !ex.Matches(u) {
			continue
		}
		page, err := ex.Extract(ctx, source, limit, cursor)
		if err == nil && len(page.Items) > 0 {
			return s.finish(ex.Name(), source, page)
		}
		if err != nil {
			s.logFailure(ex.Name(), source, err)
		}
		s.logger.DebugWithFields("falling back to generic scan", map[string]interface{}{
			"source":    source,
			"extractor": ex.Name(),
		})
		break
	}

	if s.fallback == nil {
		return models.EmptyPage()
	}
	page, err := s.fallback.Extract(ctx, source, limit, cursor)
	if err != nil {
		s.logFailure(s.fallback.Name(), source, err)
		return models.EmptyPage()
	}
	return s.finish(s.fallback.Name(), source, page)
}

// search hands a free-text query to the first extractor that accepts one
func (s *Scraper) search(ctx context.Context, query string, limit int) models.Page {
	for _, ex := range s.specialized {
		searcher, ok := ex.(Searcher)
		if !ok {
			continue
		}
		page, err := searcher.Search(ctx, query, limit)
		if err != nil {
			s.logFailure(ex.Name(), query, err)
			return models.EmptyPage()
		}
		return s.finish(ex.Name(), query, page)
	}
	return models.EmptyPage()
}

func (s *Scraper) cursorOwner(cursor string) Extractor {
	if cursor == "" {
		return nil
	}
	for _, ex := range s.specialized {
		if owner, ok := ex.(CursorOwner); ok && owner.OwnsCursor(cursor) {
			return owner
		}
	}
	return nil
}

func (s *Scraper) pageSize(limit int) int {
	if limit <= 0 {
		limit = s.config.DefaultPageSize
		if limit <= 0 {
			limit = 20
		}
	}
	if s.config.MaxPageSize > 0 && limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	return limit
}

func (s *Scraper) finish(extractor, source string, page models.Page) models.Page {
	if page.Items == nil {
		page.Items = []models.WallpaperCandidate{}
	}
	logger.LogDiscovery(s.logger, source, extractor, len(page.Items), page.HasMore())
	return page
}

func (s *Scraper) logFailure(extractor, source string, err error) {
	errType := errors.TypeOf(err)
	fields := map[string]interface{}{
		"source":     source,
		"extractor":  extractor,
		"error_type": string(errType),
		"retryable":  errors.IsRetryable(errType),
	}
	if errType == errors.ErrorTypeUnsupported {
		s.logger.WithError(err).DebugWithFields("extractor declined source", fields)
		return
	}
	s.logger.WithError(err).WarnWithFields("discovery failed", fields)
}

// Request is one discovery call of a batch
type Request struct {
	Source string
	Limit  int
	Cursor string
}

// Result pairs a request with its page
type Result struct {
	Request Request
	Page    models.Page
}

// DiscoverAll runs independent discovery calls concurrently, at most
// MaxConcurrentSources at a time. Results keep the order of reqs.
func (s *Scraper) DiscoverAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	limit := s.config.MaxConcurrentSources
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = Result{
				Request: req,
				Page:    s.Discover(gctx, req.Source, req.Limit, req.Cursor),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
