package pinterest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallcrawl/pkg/errors"
	"wallcrawl/pkg/fetcher/fetchertest"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
)

const pinsJSON = `[
	{"id": "111", "title": "Misty Forest",
	 "images": {"orig": {"url": "https://i.pinimg.com/originals/aa/1.jpg?x=1&amp;y=2", "width": 1920, "height": 1080},
	            "236x": {"url": "https://i.pinimg.com/236x/aa/1.jpg"}},
	 "link": "https://photographer.example.com/forest"},
	{"id": 1234567890123456789, "grid_title": "Dunes",
	 "images": {"736x": {"url": "https://i.pinimg.com/736x/bb/2.jpg"}}},
	{"id": "333", "title": "No images"},
	{"id": "444", "title": "Repeat",
	 "images": {"orig": {"url": "https://i.pinimg.com/originals/aa/1.jpg?x=1&amp;y=2"}}},
	{"id": "555", "rich_summary": {"display_description": "Summary title"}, "seo_link": "/pin/555/",
	 "images": {"474x": {"url": "https://i.pinimg.com/474x/cc/5.jpg"}}},
	{"id": "666", "images": {"564x": {"url": "https://i.pinimg.com/564x/dd/6.jpg"}}},
	{"images": {"orig": {"url": "https://i.pinimg.com/originals/no-id.jpg"}}}
]`

func boardPage(bookmark string) string {
	return `<html><head>
<script>window.dataLayer = [];</script>
<script id="__PWS_DATA__" type="application/json">{"props":{"initialReduxState":{"resources":{
	"BoardResource": {"board_id=\"98765\"": {"data": {"id": "98765", "name": "Forests"}}},
	"BoardFeedResource": {"board_id=\"98765\"&page_size=25": {"data": ` + pinsJSON + `, "nextBookmark": "` + bookmark + `"}}
}}}}</script>
</head><body></body></html>`
}

const userPage = `<html><body>
<script type="application/json">{"context":{},"deep":{"nested":{"resourceResponses":[
	{"name": "UserResource", "options": {"username": "alice"}, "response": {"data": {"id": "1"}}},
	{"name": "UserPinsResource", "options": {"username": "alice", "page_size": 2},
	 "response": {"data": [
		{"id": "7", "title": "First", "images": {"orig": {"url": "https://i.pinimg.com/originals/u/7.jpg"}}},
		{"id": "8", "title": "Second", "images": {"orig": {"url": "https://i.pinimg.com/originals/u/8.jpg"}}}
	 ], "bookmark": "user-bm-1"}}
]}}}</script>
</body></html>`

func newExtractor(t *testing.T) (*Extractor, *fetchertest.Transport) {
	t.Helper()
	tr := fetchertest.NewTransport(nil)
	return New(fetchertest.NewFetcher(tr), logger.NewNopLogger()), tr
}

func mustParse(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url      string
		ok       bool
		resource ResourceType
		user     string
		slug     string
		path     string
	}{
		{"https://www.pinterest.com/alice/forests/", true, BoardFeedResource, "alice", "forests", "/alice/forests/"},
		{"https://pinterest.com/alice//forests", true, BoardFeedResource, "alice", "forests", "/alice/forests/"},
		{"https://www.pinterest.com/alice/", true, UserPinsResource, "alice", "", "/alice/"},
		{"https://www.pinterest.com/alice/_pins/", true, UserPinsResource, "alice", "", "/alice/_pins/"},
		{"https://www.pinterest.com/alice/_created/", true, UserPinsResource, "alice", "", "/alice/_created/"},
		{"https://www.pinterest.com/alice/_saved/", false, "", "", "", ""},
		{"https://www.pinterest.com/pin/12345/", false, "", "", "", ""},
		{"https://www.pinterest.com/ideas/", false, "", "", "", ""},
		{"https://www.pinterest.com/", false, "", "", "", ""},
		{"https://www.pinterest.com/alice/forests/section/", false, "", "", "", ""},
		{"https://www.pinterest.com/search/pins/?q=misty+forest", true, BaseSearchResource, "", "", "/search/pins/?q=misty+forest"},
		{"https://www.pinterest.com/search/boards/?q=x", false, "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			target, ok := Classify(mustParse(t, tt.url))
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.resource, target.Resource)
			assert.Equal(t, tt.user, target.Username)
			assert.Equal(t, tt.slug, target.BoardSlug)
			assert.Equal(t, tt.path, target.PagePath)
		})
	}
}

func TestSearchTargetQuery(t *testing.T) {
	target := SearchTarget("  misty forest ")
	assert.Equal(t, "misty forest", target.Query())
	assert.Equal(t, "https://www.pinterest.com/search/pins/?q=misty+forest", target.PageURL())
	assert.Empty(t, Target{Resource: UserPinsResource, PagePath: "/a/?q=x"}.Query())
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{
		ResourceType: BoardFeedResource,
		Username:     "alice",
		BoardSlug:    "forests",
		BoardID:      "98765",
		PagePath:     "/alice/forests/",
		Bookmark:     "Y2JVSG81V2sxcmNHRlpWM1J",
		PageSize:     25,
	}

	encoded := EncodeCursor(c)
	assert.True(t, IsCursor(encoded))

	decoded, ok := DecodeCursor(encoded)
	require.True(t, ok)
	assert.Equal(t, c, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	b64 := func(s string) string { return CursorPrefix + base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"empty":            "",
		"offset cursor":    "20",
		"prefix only":      CursorPrefix,
		"bad base64":       CursorPrefix + "!!!not-base64!!!",
		"not json":         b64("hello"),
		"unknown resource": b64(`{"resource_type":"PinResource","page_path":"/x/","bookmark":"b","page_size":5}`),
		"no bookmark":      b64(`{"resource_type":"UserPinsResource","username":"a","page_path":"/a/","page_size":5}`),
		"end bookmark":     b64(`{"resource_type":"UserPinsResource","username":"a","page_path":"/a/","bookmark":"-end-"}`),
		"board without id": b64(`{"resource_type":"BoardFeedResource","page_path":"/a/b/","bookmark":"b"}`),
	}

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := DecodeCursor(s)
			assert.False(t, ok)
		})
	}
}

func TestDecodeCursorDefaultsPageSize(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{
		"resource_type": "UserPinsResource",
		"username":      "alice",
		"page_path":     "/alice/",
		"bookmark":      "bm",
	})
	c, ok := DecodeCursor(CursorPrefix + base64.RawURLEncoding.EncodeToString(raw))
	require.True(t, ok)
	assert.Equal(t, defaultPageSize, c.PageSize)
}

func TestExtractBoardInitialPage(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML("https://www.pinterest.com/alice/forests/", boardPage("board-bm-1"))

	page, err := e.Extract(context.Background(), "https://www.pinterest.com/alice/forests/", 10, "")
	require.NoError(t, err)

	require.Len(t, page.Items, 4)

	first := page.Items[0]
	assert.Equal(t, "111", first.ID)
	assert.Equal(t, "Misty Forest", first.Title)
	assert.Equal(t, "https://i.pinimg.com/originals/aa/1.jpg?x=1&y=2", first.ImageURL)
	assert.Equal(t, "https://photographer.example.com/forest", first.SourceURL)
	assert.Equal(t, 1920, first.Width)
	assert.Equal(t, 1080, first.Height)
	assert.Equal(t, Name, first.Source)

	second := page.Items[1]
	assert.Equal(t, "1234567890123456789", second.ID)
	assert.Equal(t, "Dunes", second.Title)
	assert.Equal(t, "https://i.pinimg.com/736x/bb/2.jpg", second.ImageURL)
	assert.Equal(t, "https://www.pinterest.com/pin/1234567890123456789/", second.SourceURL)
	assert.Zero(t, second.Width)

	assert.Equal(t, "Summary title", page.Items[2].Title)
	assert.Equal(t, "https://www.pinterest.com/pin/555/", page.Items[2].SourceURL)
	assert.Equal(t, "Pinterest Pin", page.Items[3].Title)

	c, ok := DecodeCursor(page.NextCursor)
	require.True(t, ok)
	assert.Equal(t, BoardFeedResource, c.ResourceType)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "forests", c.BoardSlug)
	assert.Equal(t, "98765", c.BoardID)
	assert.Equal(t, "/alice/forests/", c.PagePath)
	assert.Equal(t, "board-bm-1", c.Bookmark)
	assert.Equal(t, 10, c.PageSize, "caller limit when options carry no page_size")
}

func TestExtractUserFeedNestedResourceResponses(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML("https://www.pinterest.com/alice/_created/", userPage)

	page, err := e.Extract(context.Background(), "https://www.pinterest.com/alice/_created/", 50, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	c, ok := DecodeCursor(page.NextCursor)
	require.True(t, ok)
	assert.Equal(t, UserPinsResource, c.ResourceType)
	assert.Equal(t, "user-bm-1", c.Bookmark)
	assert.Equal(t, 2, c.PageSize, "options.page_size wins over caller limit")
	assert.Equal(t, "/alice/_created/", c.PagePath)
}

func TestExtractLastPageHasNoCursor(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML("https://www.pinterest.com/alice/forests/", boardPage(EndBookmark))

	page, err := e.Extract(context.Background(), "https://www.pinterest.com/alice/forests/", 10, "")
	require.NoError(t, err)
	assert.NotEmpty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestExtractMissingPayloadFailsSoft(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML("https://www.pinterest.com/alice/forests/", `<html><script type="application/json">{"unrelated":true}</script></html>`)

	page, err := e.Extract(context.Background(), "https://www.pinterest.com/alice/forests/", 10, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestExtractDeclinesReservedPaths(t *testing.T) {
	e, tr := newExtractor(t)

	_, err := e.Extract(context.Background(), "https://www.pinterest.com/pin/123/", 10, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeUnsupported, errors.TypeOf(err))
	assert.Empty(t, tr.Requests(), "declined sources must not be fetched")
}

func TestExtractSearchQuery(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML("https://www.pinterest.com/search/pins/", `<html><script type="application/json">{"resourceResponses":[
		{"name": "BaseSearchResource", "options": {"query": "misty forest", "bookmarks": ["search-bm"]},
		 "response": {"data": {"results": [
			{"id": "9", "images": {"orig": {"url": "https://i.pinimg.com/originals/s/9.jpg"}}}
		 ]}}}
	]}</script></html>`)

	page, err := e.Extract(context.Background(), "misty forest", 20, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "misty forest", reqs[0].URL.Query().Get("q"))

	c, ok := DecodeCursor(page.NextCursor)
	require.True(t, ok)
	assert.Equal(t, BaseSearchResource, c.ResourceType)
	assert.Equal(t, "search-bm", c.Bookmark)
	assert.Equal(t, "misty forest", c.Target().Query())
}

func TestContinueBoard(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML(GetResourceURL(BoardFeedResource), `{"resource_response": {"data": [
		{"id": "21", "title": "Next one", "images": {"orig": {"url": "https:\/\/i.pinimg.com\/originals\/n\/21.jpg"}}}
	], "bookmark": "board-bm-2"}}`)

	cursor := EncodeCursor(Cursor{
		ResourceType: BoardFeedResource,
		Username:     "alice",
		BoardSlug:    "forests",
		BoardID:      "98765",
		PagePath:     "/alice/forests/",
		Bookmark:     "board-bm-1",
		PageSize:     25,
	})

	page, err := e.Extract(context.Background(), "ignored", 10, cursor)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "https://i.pinimg.com/originals/n/21.jpg", page.Items[0].ImageURL)

	next, ok := DecodeCursor(page.NextCursor)
	require.True(t, ok)
	assert.Equal(t, "board-bm-2", next.Bookmark)
	assert.Equal(t, "98765", next.BoardID)
	assert.Equal(t, 25, next.PageSize)

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "XMLHttpRequest", req.Header.Get("X-Requested-With"))
	assert.Contains(t, req.Header.Get("Accept"), "application/json")
	assert.Equal(t, "/alice/forests/", req.URL.Query().Get("source_url"))

	var payload struct {
		Options map[string]interface{} `json:"options"`
		Context map[string]interface{} `json:"context"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.URL.Query().Get("data")), &payload))
	assert.Equal(t, "98765", payload.Options["board_id"])
	assert.Equal(t, []interface{}{"board-bm-1"}, payload.Options["bookmarks"])
	assert.Equal(t, float64(25), payload.Options["page_size"])
	assert.NotNil(t, payload.Context)
}

func TestContinueUserEnd(t *testing.T) {
	e, tr := newExtractor(t)
	tr.HTML(GetResourceURL(UserPinsResource), `{"resource_response": {"data": [
		{"id": "31", "images": {"236x": {"url": "https://i.pinimg.com/236x/u/31.jpg"}}}
	], "bookmark": "-end-"}}`)

	cursor := EncodeCursor(Cursor{
		ResourceType: UserPinsResource,
		Username:     "alice",
		PagePath:     "/alice/",
		Bookmark:     "user-bm-1",
		PageSize:     10,
	})

	page, err := e.Continue(context.Background(), cursor)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)

	var payload struct {
		Options map[string]interface{} `json:"options"`
	}
	require.NoError(t, json.Unmarshal([]byte(tr.Requests()[0].URL.Query().Get("data")), &payload))
	assert.Equal(t, "alice", payload.Options["username"])
	assert.NotContains(t, payload.Options, "board_id")
}

func TestContinueGarbledCursor(t *testing.T) {
	e, tr := newExtractor(t)

	page, err := e.Extract(context.Background(), "https://www.pinterest.com/alice/", 10, CursorPrefix+"garbage")
	require.Error(t, err)
	assert.Equal(t, models.EmptyPage(), page)
	assert.Empty(t, tr.Requests())
}

func TestContinueUpstreamFailure(t *testing.T) {
	e, _ := newExtractor(t)

	cursor := EncodeCursor(Cursor{
		ResourceType: UserPinsResource,
		Username:     "alice",
		PagePath:     "/alice/",
		Bookmark:     "user-bm-1",
		PageSize:     10,
	})

	page, err := e.Continue(context.Background(), cursor)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
	assert.Empty(t, page.Items)
}

func TestMatches(t *testing.T) {
	e, _ := newExtractor(t)
	assert.True(t, e.Matches(mustParse(t, "https://www.pinterest.com/alice/")))
	assert.True(t, e.Matches(mustParse(t, "https://de.pinterest.de/alice/")))
	assert.False(t, e.Matches(mustParse(t, "https://example.com/pinterest.com/")))
}

func TestWalkStopsEarly(t *testing.T) {
	tree, err := decodeJSON([]byte(`{"a":[1,2,{"b":3}],"c":4}`))
	require.NoError(t, err)

	visited := 0
	stopped := walk(tree, func(node interface{}) bool {
		visited++
		return node == nil
	})
	assert.False(t, stopped)
	assert.Equal(t, 7, visited)
}
