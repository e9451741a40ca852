// Package gdrive discovers images in publicly shared Google Drive folders
// through the embeddable folder view.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wallcrawl/pkg/errors"
	"wallcrawl/pkg/fetcher"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/paging"
	"wallcrawl/pkg/urlutil"
)

// Name identifies candidates produced by this package
const Name = "gdrive"

const (
	// BaseURL is the Drive origin
	BaseURL = "https://drive.google.com"

	embeddedViewURL = BaseURL + "/embeddedfolderview?id=%s#grid"
	imageURLPattern = BaseURL + "/uc?export=view&id=%s"
	viewURLPattern  = BaseURL + "/file/d/%s/view"
)

var (
	folderPath = regexp.MustCompile(`/folders/([A-Za-z0-9_\-]+)`)
	filePath   = regexp.MustCompile(`/file/d/([A-Za-z0-9_\-]+)`)
	validID    = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// File is one entry of a folder listing
type File struct {
	ID    string
	Title string
}

// ImageURL is the direct-view address of the file
func (f File) ImageURL() string { return fmt.Sprintf(imageURLPattern, f.ID) }

// ViewURL is the Drive preview page of the file
func (f File) ViewURL() string { return fmt.Sprintf(viewURLPattern, f.ID) }

// FolderID extracts the folder identifier from a Drive URL
func FolderID(u *url.URL) (string, bool) {
	if m := folderPath.FindStringSubmatch(u.Path); m != nil {
		return m[1], true
	}
	if id := strings.TrimSpace(u.Query().Get("id")); validID.MatchString(id) {
		return id, true
	}
	return "", false
}

// EmbeddedFolderURL returns the listing page for a folder
func EmbeddedFolderURL(folderID string) string {
	return fmt.Sprintf(embeddedViewURL, url.QueryEscape(folderID))
}

// Extractor lists image files of a shared folder
type Extractor struct {
	fetcher *fetcher.Fetcher
	logger  logger.Logger
}

// New creates a Drive folder extractor
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

// Matches accepts drive.google.com URLs. Whether a folder id is present
// is decided by Extract.
func (e *Extractor) Matches(u *url.URL) bool {
	return urlutil.HostMatches(u, "drive.google.com")
}

// Extract returns the page of folder images starting at the offset
// cursor. URLs without a folder id are declined with an unsupported
// error before any request is made.
func (e *Extractor) Extract(ctx context.Context, source string, limit int, cursor string) (models.Page, error) {
	u, ok := urlutil.ParseHTTP(source)
	if !ok {
		return models.EmptyPage(), errors.Unsupported(source, "not a drive URL")
	}
	folderID, ok := FolderID(u)
	if !ok {
		return models.EmptyPage(), errors.Unsupported(source, "no folder id in drive URL")
	}

	offset := paging.ParseOffset(cursor)
	listing := EmbeddedFolderURL(folderID)

	resp, err := e.fetcher.Get(ctx, listing)
	if err != nil {
		return models.EmptyPage(), err
	}

	files, err := ParseListing(resp.Body)
	if err != nil {
		return models.EmptyPage(), errors.Parsing(listing, "%v", err)
	}

	all := make([]models.WallpaperCandidate, len(files))
	for i, f := range files {
		title := f.Title
		if title == "" {
			title = fmt.Sprintf("Drive image %d", i+1)
		}
		all[i] = models.WallpaperCandidate{
			ID:        f.ID,
			Title:     title,
			ImageURL:  f.ImageURL(),
			SourceURL: f.ViewURL(),
			Source:    Name,
		}
	}

	items, next := paging.Slice(all, offset, limit)
	e.logger.DebugWithFields("listed folder", map[string]interface{}{
		"folder_id": folderID,
		"files":     len(all),
		"offset":    offset,
		"returned":  len(items),
	})

	return models.Page{Items: items, NextCursor: next}, nil
}

// ParseListing returns the files of an embedded folder view that carry a
// thumbnail, in document order and without repeats
func ParseListing(body []byte) ([]File, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]bool)
	files := make([]File, 0)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		m := filePath.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil || seen[m[1]] {
			return
		}
		// Folders and non-image files are listed without a thumbnail
		if a.Find("img").Length() == 0 {
			return
		}
		seen[m[1]] = true

		title := strings.TrimSpace(a.AttrOr("title", ""))
		if title == "" {
			title = strings.Join(strings.Fields(a.Text()), " ")
		}
		files = append(files, File{ID: m[1], Title: title})
	})

	return files, nil
}
