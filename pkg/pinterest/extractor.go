package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wallcrawl/pkg/errors"
	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/urlutil"
)

const defaultPageSize = 25

// Extractor replays Pinterest's internal resource protocol for boards,
// user pin feeds and pin search
type Extractor struct {
	fetcher *fetcher.Fetcher
	logger  logger.Logger
}

// New creates a Pinterest extractor
func New(f *fetcher.Fetcher, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{
		fetcher: f,
		logger:  log.WithField("extractor", Name),
	}
}

// Name implements the dispatcher's extractor contract
func (e *Extractor) Name() string { return Name }

// Matches reports whether u is on a Pinterest host
func (e *Extractor) Matches(u *url.URL) bool {
	return urlutil.HostMatches(u, Hosts...)
}

// Extract returns pins for source. A tagged cursor resumes the recorded
// resource call and ignores source. Source may be a Pinterest URL or a
// free-text search query.
func (e *Extractor) Extract(ctx context.Context, source string, limit int, cursor string) (models.Page, error) {
	if cursor != "" && IsCursor(cursor) {
		return e.Continue(ctx, cursor)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	if u, ok := urlutil.ParseHTTP(source); ok {
		target, ok := Classify(u)
		if !ok {
			return models.EmptyPage(), errors.Unsupported(source, "no pin feed at this Pinterest path")
		}
		return e.initial(ctx, u.String(), target, limit)
	}

	return e.Search(ctx, source, limit)
}

// Search runs a free-text pin search
func (e *Extractor) Search(ctx context.Context, query string, limit int) (models.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.EmptyPage(), errors.Unsupported(query, "empty search query")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	target := SearchTarget(query)
	return e.initial(ctx, target.PageURL(), target, limit)
}

// initial reads the first page from the resource payloads embedded in the
// page markup. Upstream page size is authoritative so pins are not sliced.
func (e *Extractor) initial(ctx context.Context, pageURL string, target Target, limit int) (models.Page, error) {
	resp, err := e.fetcher.Get(ctx, pageURL)
	if err != nil {
		return models.EmptyPage(), err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return models.EmptyPage(), errors.Parsing(pageURL, "parse html: %v", err)
	}

	var (
		root  interface{}
		match resourceMatch
		found bool
	)
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		payload := strings.TrimSpace(s.Text())
		if payload == "" || (payload[0] != '{' && payload[0] != '[') {
			return true
		}
		tree, err := decodeJSON([]byte(payload))
		if err != nil {
			return true
		}
		if m, ok := findResource(tree, string(target.Resource)); ok {
			root, match, found = tree, m, true
			return false
		}
		return true
	})

	if !found {
		return models.EmptyPage(), errors.Parsing(pageURL, "no %s payload in page", target.Resource)
	}

	records := pinRecords(match.Data)
	items := parsePins(records)

	pageSize := integer(match.Options["page_size"])
	if pageSize <= 0 {
		pageSize = limit
	}

	boardID := ""
	if target.Resource == BoardFeedResource {
		boardID = boardIDFrom(root, match, records)
	}

	page := models.Page{
		Items:      items,
		NextCursor: nextCursor(target, boardID, match.Bookmark, pageSize),
	}

	e.logger.DebugWithFields("parsed initial resource", map[string]interface{}{
		"resource": string(target.Resource),
		"path":     target.PagePath,
		"pins":     len(items),
		"has_more": page.HasMore(),
	})

	return page, nil
}

// Continue fetches the page following cursor. A garbled cursor yields an
// empty page.
func (e *Extractor) Continue(ctx context.Context, cursor string) (models.Page, error) {
	c, ok := DecodeCursor(cursor)
	if !ok {
		return models.EmptyPage(), errors.Parsing("", "invalid pinterest cursor")
	}

	endpoint := GetResourceURL(c.ResourceType)
	data, err := json.Marshal(map[string]interface{}{
		"options": resourceOptions(c),
		"context": map[string]interface{}{},
	})
	if err != nil {
		return models.EmptyPage(), errors.New(errors.ErrorTypeUnknown, "encode resource request: %v", err)
	}

	resp, err := e.fetcher.GetWithQuery(ctx, endpoint,
		map[string]string{
			"source_url": c.PagePath,
			"data":       string(data),
		},
		map[string]string{
			"X-Requested-With":        "XMLHttpRequest",
			"Accept":                  "application/json, text/javascript, */*; q=0.01",
			"X-Pinterest-PWS-Handler": pwsHandler(c.ResourceType),
			"X-Pinterest-Source-Url":  c.PagePath,
		})
	if err != nil {
		return models.EmptyPage(), err
	}

	tree, err := decodeJSON(resp.Body)
	if err != nil {
		return models.EmptyPage(), errors.Parsing(endpoint, "decode resource response: %v", err)
	}

	rr := object(object(tree)["resource_response"])
	if rr == nil {
		return models.EmptyPage(), errors.Parsing(endpoint, "no resource_response")
	}

	items := parsePins(pinRecords(rr["data"]))
	bookmark := firstNonEmpty(str(rr, "bookmark"), optionBookmark(object(object(object(tree)["resource"])["options"])))

	page := models.Page{
		Items:      items,
		NextCursor: nextCursor(c.Target(), c.BoardID, bookmark, c.PageSize),
	}

	e.logger.DebugWithFields("fetched resource continuation", map[string]interface{}{
		"resource": string(c.ResourceType),
		"path":     c.PagePath,
		"pins":     len(items),
		"has_more": page.HasMore(),
	})

	return page, nil
}

// resourceOptions builds the options object of a resource call
func resourceOptions(c Cursor) map[string]interface{} {
	options := map[string]interface{}{
		"page_size": c.PageSize,
		"bookmarks": []string{c.Bookmark},
	}

	switch c.ResourceType {
	case BoardFeedResource:
		if c.BoardID != "" {
			options["board_id"] = c.BoardID
		}
		options["board_url"] = c.PagePath
		options["slug"] = c.BoardSlug
		options["username"] = c.Username
		options["field_set_key"] = "react_grid_pin"
	case UserPinsResource:
		options["username"] = c.Username
		options["field_set_key"] = "grid_item"
	case BaseSearchResource:
		options["query"] = c.Target().Query()
		options["scope"] = "pins"
		options["rs"] = "typed"
	}

	return options
}


// OwnsCursor reports whether cursor was minted by this package
func (e *Extractor) OwnsCursor(cursor string) bool {
	return IsCursor(cursor)
}
