// Package pinterest extracts pins from boards, user feeds and pin search.
//
// Pinterest has no public paging API. The first page is read from the
// resource payloads the site embeds in its markup; later pages replay the
// site's internal resource call with the bookmark it handed out. The
// identity of that call travels inside an opaque cursor:
//
//	page, _ := ex.Extract(ctx, "https://www.pinterest.com/alice/forests/", 25, "")
//	next, _ := ex.Extract(ctx, "https://www.pinterest.com/alice/forests/", 25, page.NextCursor)
//
// Everything here depends on undocumented upstream shapes, so every
// failure surfaces as an empty page plus an error the caller may ignore.
package pinterest
