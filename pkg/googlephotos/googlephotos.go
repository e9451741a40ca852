// Package googlephotos discovers images in shared Google Photos albums.
package googlephotos

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/paging"
	"wallcrawl/pkg/urlutil"
)

// Name identifies candidates produced by this package
const Name = "googlephotos"

// FullSize is the size directive appended to every asset URL
const FullSize = "=w4096-h4096"

var (
	assetPattern   = regexp.MustCompile(`https://lh\d+\.googleusercontent\.com/[A-Za-z0-9_\-/]+(?:=[A-Za-z0-9_\-]+)?`)
	unicodeEscape  = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	sizeSuffix     = regexp.MustCompile(`=[wshdm][A-Za-z0-9_\-]*$`)
	markerSuffix   = regexp.MustCompile(`-(?:no|rw)$`)
	avatarPrefixes = []string{"/a/", "/a-/"}
)

// Hosts serve shared albums
var Hosts = []string{"photos.google.com", "photos.app.goo.gl"}

// Extractor scans album markup for hosted asset URLs
type Extractor struct {
	fetcher *fetcher.Fetcher
	logger  logger.Logger
}

// New creates a Google Photos extractor
func New(f *fetcher.Fetcher, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{
		fetcher: f,
		logger:  log.WithField("extractor", Name),
	}
}

func (e *Extractor) Name() string { return Name }

// Matches accepts album hosts and goo.gl/photos short links
func (e *Extractor) Matches(u *url.URL) bool {
	if urlutil.HostMatches(u, Hosts...) {
		return true
	}
	return urlutil.HostMatches(u, "goo.gl") && strings.HasPrefix(u.Path, "/photos")
}

// Extract returns the page of album images starting at the offset cursor
func (e *Extractor) Extract(ctx context.Context, source string, limit int, cursor string) (models.Page, error) {
	offset := paging.ParseOffset(cursor)

	resp, err := e.fetcher.Get(ctx, source)
	if err != nil {
		return models.EmptyPage(), err
	}

	assets := ScanAssets(resp.Text())
	all := make([]models.WallpaperCandidate, len(assets))
	for i, asset := range assets {
		all[i] = models.WallpaperCandidate{
			ID:        urlutil.HashID(asset),
			Title:     fmt.Sprintf("Google Photos image %d", i+1),
			ImageURL:  asset,
			SourceURL: source,
			Source:    Name,
		}
	}

	items, next := paging.Slice(all, offset, limit)
	e.logger.DebugWithFields("scanned album", map[string]interface{}{
		"url":      source,
		"assets":   len(all),
		"offset":   offset,
		"returned": len(items),
	})

	return models.Page{Items: items, NextCursor: next}, nil
}

// ScanAssets returns the canonical full-size asset URLs in body, in
// first-seen order
func ScanAssets(body string) []string {
	decoded := decodeEscapes(body)

	seen := make(map[string]bool)
	var assets []string
	for _, match := range assetPattern.FindAllString(decoded, -1) {
		canonical, ok := Canonicalize(match)
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		assets = append(assets, canonical)
	}
	return assets
}

// Canonicalize drops any size directive and marker from an asset URL and
// requests the full-size rendition. Avatar URLs report false.
func Canonicalize(asset string) (string, bool) {
	u, err := url.Parse(asset)
	if err != nil {
		return "", false
	}
	for _, prefix := range avatarPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return "", false
		}
	}

	base := asset
	if i := strings.IndexByte(base, '='); i >= 0 && sizeSuffix.MatchString(base[i:]) {
		base = base[:i]
	}
	base = markerSuffix.ReplaceAllString(base, "")
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "", false
	}
	return base + FullSize, true
}

// decodeEscapes undoes the JS string escaping album pages wrap asset URLs in
func decodeEscapes(s string) string {
	s = unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		r, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(r))
	})
	s = strings.ReplaceAll(s, `\/`, "/")
	return strings.ReplaceAll(s, "&amp;", "&")
}
