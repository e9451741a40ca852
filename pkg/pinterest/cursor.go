package pinterest

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	// CursorPrefix tags cursors minted by this package
	CursorPrefix = "pin:"

	// EndBookmark is the bookmark upstream sends after the last page
	EndBookmark = "-end-"
)

// Cursor records just enough of a resource call to replay it with the
// next bookmark
type Cursor struct {
	ResourceType ResourceType `json:"resource_type"`
	Username     string       `json:"username,omitempty"`
	BoardSlug    string       `json:"board_slug,omitempty"`
	BoardID      string       `json:"board_id,omitempty"`
	PagePath     string       `json:"page_path"`
	Bookmark     string       `json:"bookmark"`
	PageSize     int          `json:"page_size"`
}

// Target returns the resource identity stored in the cursor
func (c Cursor) Target() Target {
	return Target{
		Resource:  c.ResourceType,
		Username:  c.Username,
		BoardSlug: c.BoardSlug,
		PagePath:  c.PagePath,
	}
}

// IsCursor reports whether s carries the Pinterest type tag. It does not
// validate the payload.
func IsCursor(s string) bool {
	return strings.HasPrefix(s, CursorPrefix)
}

// EncodeCursor serializes c into an opaque string
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return CursorPrefix + base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses s. Anything garbled, or a cursor with nothing left
// to fetch, reports false.
func DecodeCursor(s string) (Cursor, bool) {
	if !IsCursor(s) {
		return Cursor{}, false
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(s, CursorPrefix))
	if err != nil {
		return Cursor{}, false
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, false
	}

	if !c.ResourceType.Valid() || c.Bookmark == "" || c.Bookmark == EndBookmark || c.PagePath == "" {
		return Cursor{}, false
	}
	if c.ResourceType == BoardFeedResource && c.BoardID == "" && c.BoardSlug == "" {
		return Cursor{}, false
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}

	return c, true
}

// nextCursor encodes the follow-up cursor, or "" when upstream signalled the end
func nextCursor(t Target, boardID, bookmark string, pageSize int) string {
	if bookmark == "" || bookmark == EndBookmark {
		return ""
	}
	return EncodeCursor(Cursor{
		ResourceType: t.Resource,
		Username:     t.Username,
		BoardSlug:    t.BoardSlug,
		BoardID:      boardID,
		PagePath:     t.PagePath,
		Bookmark:     bookmark,
		PageSize:     pageSize,
	})
}
