// Package ratelimit provides caller-side throttling for discovery loops.
//
// The crawler itself never throttles. Callers that page through many
// results, like the wallcrawl command, wait on a Limiter between calls to
// stay polite to upstream hosts.
//
//	limiter := ratelimit.NewTokenBucket(30, 1) // 30 requests per minute
//	for page.HasMore() {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	    page = s.Discover(ctx, source, 25, page.NextCursor)
//	}
package ratelimit
