// Package scraper is the entry point of the crawler.
//
// A Scraper owns one fetcher and the four extractor families. Discover
// picks an extractor from the source's host, routes structured cursors
// back to the extractor that minted them, and sends free-text queries to
// Pinterest search. When a specialized extractor declines, fails or finds
// nothing, the generic HTML scan gets the same source and cursor.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	s := scraper.New(cfg, logger.GetLogger())
//
//	page := s.Discover(ctx, "https://www.pinterest.com/alice/forests/", 25, "")
//	for page.HasMore() {
//	    page = s.Discover(ctx, "https://www.pinterest.com/alice/forests/", 25, page.NextCursor)
//	}
//
// Discover never returns an error. Failures are logged with a retryable
// flag and surface as an empty page without a cursor; callers decide
// whether to try again later.
//
// DiscoverAll runs several independent sources concurrently, bounded by
// crawler.max_concurrent_sources. Calls for a single source stay
// sequential, and nothing here throttles upstream traffic.
package scraper
