package scraper

import (
	"context"
	"net/url"

	"wallcrawl/pkg/models"
)

// Extractor turns one family of sources into pages of candidates.
// Extract may return an error; the dispatcher decides what to do with it.
type Extractor interface {
	Name() string
	Matches(u *url.URL) bool
	Extract(ctx context.Context, source string, limit int, cursor string) (models.Page, error)
}

// CursorOwner is implemented by extractors that mint structured cursors.
// A cursor it owns is routed straight back to it.
type CursorOwner interface {
	Extractor
	OwnsCursor(cursor string) bool
}

// Searcher is implemented by extractors that accept free-text queries
type Searcher interface {
	Extractor
	Search(ctx context.Context, query string, limit int) (models.Page, error)
}
