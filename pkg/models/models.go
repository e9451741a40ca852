package models

// WallpaperCandidate is a discovered image record before any caller-side
// deduplication against previously saved content.
type WallpaperCandidate struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	SourceURL string `json:"source_url"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Page is one unit of paginated discovery output.
// An empty NextCursor means no further pages are known to exist.
type Page struct {
	Items      []WallpaperCandidate `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// EmptyPage returns a page with no items and no cursor
func EmptyPage() Page {
	return Page{Items: []WallpaperCandidate{}}
}

// HasMore reports whether the page carries a continuation cursor
func (p Page) HasMore() bool {
	return p.NextCursor != ""
}
