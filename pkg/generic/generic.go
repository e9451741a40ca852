// Package generic discovers images on arbitrary HTML pages.
//
// There is no upstream cursor, so every call re-fetches the page and
// re-derives the same ordered candidate list, then slices it with an
// offset cursor.
package generic

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/paging"
	"wallcrawl/pkg/urlutil"
)

// Name identifies candidates produced by this package
const Name = "generic"

// imageAttributes lists where lazy loaders tend to stash the real URL.
// The first non-blank value wins.
var imageAttributes = []string{"src", "data-src", "data-lazy-src", "data-original", "data-actualsrc"}

// TitleFunc picks a label for the index-th (1-based) candidate. anchor
// is empty when the image has no enclosing link.
type TitleFunc func(img, anchor *goquery.Selection, index int) string

// AltFirst uses alt text, then the anchor's title, then "image N"
func AltFirst(img, anchor *goquery.Selection, index int) string {
	if alt := strings.TrimSpace(img.AttrOr("alt", "")); alt != "" {
		return alt
	}
	if title := strings.TrimSpace(anchor.AttrOr("title", "")); title != "" {
		return title
	}
	return fmt.Sprintf("image %d", index)
}

// AnchorFirst prefers the anchor's title over alt text
func AnchorFirst(img, anchor *goquery.Selection, index int) string {
	if title := strings.TrimSpace(anchor.AttrOr("title", "")); title != "" {
		return title
	}
	return AltFirst(img, anchor, index)
}

// Extractor scans <img> elements of a single page
type Extractor struct {
	fetcher *fetcher.Fetcher
	title   TitleFunc
	logger  logger.Logger
}

// New creates a generic extractor using alt-first titles
func New(f *fetcher.Fetcher, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{
		fetcher: f,
		title:   AltFirst,
		logger:  log.WithField("extractor", Name),
	}
}

// WithTitleFunc returns a copy that labels candidates with fn
func (e *Extractor) WithTitleFunc(fn TitleFunc) *Extractor {
	c := *e
	c.title = fn
	return &c
}

// Name implements the dispatcher's extractor contract
func (e *Extractor) Name() string { return Name }

// Matches accepts any http(s) page
func (e *Extractor) Matches(u *url.URL) bool {
	return urlutil.IsHTTP(u)
}

// Extract returns the page of candidates starting at the offset cursor
func (e *Extractor) Extract(ctx context.Context, source string, limit int, cursor string) (models.Page, error) {
	offset := paging.ParseOffset(cursor)

	resp, err := e.fetcher.Get(ctx, source)
	if err != nil {
		return models.EmptyPage(), err
	}

	all, err := Scan(resp.URL, resp.Body, paging.Window(offset, limit), e.title)
	if err != nil {
		return models.EmptyPage(), err
	}

	items, next := paging.Slice(all, offset, limit)
	e.logger.DebugWithFields("scanned page", map[string]interface{}{
		"url":       resp.URL,
		"collected": len(all),
		"offset":    offset,
		"returned":  len(items),
	})

	return models.Page{Items: items, NextCursor: next}, nil
}

// Scan collects at most max candidates from body in document order.
// pageURL is the address the body was served from.
func Scan(pageURL string, body []byte, max int, title TitleFunc) ([]models.WallpaperCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if title == nil {
		title = AltFirst
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, ok := urlutil.Resolve(pageURL, href); ok {
			base = resolved
		}
	}

	seen := make(map[string]bool)
	candidates := make([]models.WallpaperCandidate, 0)

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if len(candidates) >= max {
			return false
		}

		imageURL, ok := urlutil.Resolve(base, imageSource(img))
		if !ok || !urlutil.HasImageExtension(imageURL) || seen[imageURL] {
			return true
		}
		seen[imageURL] = true

		anchor := img.Closest("a[href]")
		sourceURL := pageURL
		if href, ok := anchor.Attr("href"); ok {
			if resolved, ok := urlutil.Resolve(base, href); ok {
				sourceURL = resolved
			}
		}

		candidates = append(candidates, models.WallpaperCandidate{
			ID:        urlutil.HashID(imageURL),
			Title:     title(img, anchor, len(candidates)+1),
			ImageURL:  imageURL,
			SourceURL: sourceURL,
			Source:    Name,
		})
		return true
	})

	return candidates, nil
}

func imageSource(img *goquery.Selection) string {
	for _, attr := range imageAttributes {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}
