package pinterest

import (
	"fmt"
	"net/url"
	"strings"

	"wallcrawl/pkg/urlutil"
)

const (
	// BaseURL is the canonical Pinterest origin
	BaseURL = "https://www.pinterest.com"

	// ResourceEndpoint is the internal resource protocol endpoint pattern
	ResourceEndpoint = "/resource/%s/get/"

	// SearchPath is the page path for pin search
	SearchPath = "/search/pins/"
)

// ResourceType names one of Pinterest's internal resource calls
type ResourceType string

const (
	BoardFeedResource  ResourceType = "BoardFeedResource"
	UserPinsResource   ResourceType = "UserPinsResource"
	BaseSearchResource ResourceType = "BaseSearchResource"

	// boardResource carries board metadata next to the feed
	boardResource = "BoardResource"
)

// Valid reports whether r is a resource the extractor can replay
func (r ResourceType) Valid() bool {
	switch r {
	case BoardFeedResource, UserPinsResource, BaseSearchResource:
		return true
	}
	return false
}

// Hosts are the domains served by this extractor
var Hosts = []string{
	"pinterest.com",
	"pinterest.co.uk",
	"pinterest.ca",
	"pinterest.com.au",
	"pinterest.de",
	"pinterest.fr",
	"pinterest.es",
	"pinterest.it",
	"pinterest.jp",
}

// First path segments that never name a user
var reservedSegments = map[string]bool{
	"pin":        true,
	"ideas":      true,
	"today":      true,
	"settings":   true,
	"search":     true,
	"explore":    true,
	"business":   true,
	"login":      true,
	"signup":     true,
	"resource":   true,
	"videos":     true,
	"categories": true,
	"topics":     true,
	"_tools":     true,
}

// Target identifies the resource a page URL or query maps to
type Target struct {
	Resource  ResourceType
	Username  string
	BoardSlug string
	// PagePath is the normalized path (plus query for search) used as source_url
	PagePath string
}

// Query returns the search text of a search target
func (t Target) Query() string {
	if t.Resource != BaseSearchResource {
		return ""
	}
	u, err := url.Parse(t.PagePath)
	if err != nil {
		return ""
	}
	return u.Query().Get("q")
}

// PageURL returns the absolute URL of the target's initial page
func (t Target) PageURL() string {
	return BaseURL + t.PagePath
}

// Classify maps a Pinterest page URL to its resource. It reports false
// for pages that carry no replayable pin feed.
func Classify(u *url.URL) (Target, bool) {
	segments := urlutil.Segments(u.Path)
	if len(segments) == 0 {
		return Target{}, false
	}

	first := strings.ToLower(segments[0])
	if first == "search" {
		q := strings.TrimSpace(u.Query().Get("q"))
		if len(segments) >= 2 && strings.ToLower(segments[1]) == "pins" && q != "" {
			return SearchTarget(q), true
		}
		return Target{}, false
	}
	if reservedSegments[first] {
		return Target{}, false
	}

	username := segments[0]
	switch len(segments) {
	case 1:
		return Target{
			Resource: UserPinsResource,
			Username: username,
			PagePath: urlutil.NormalizePath(u.Path),
		}, true
	case 2:
		second := segments[1]
		if second == "_pins" || second == "_created" {
			return Target{
				Resource: UserPinsResource,
				Username: username,
				PagePath: urlutil.NormalizePath(u.Path),
			}, true
		}
		if strings.HasPrefix(second, "_") {
			return Target{}, false
		}
		return Target{
			Resource:  BoardFeedResource,
			Username:  username,
			BoardSlug: second,
			PagePath:  urlutil.NormalizePath(u.Path),
		}, true
	default:
		return Target{}, false
	}
}

// SearchTarget builds the target of a free-text pin search
func SearchTarget(query string) Target {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	return Target{
		Resource: BaseSearchResource,
		PagePath: SearchPath + "?" + params.Encode(),
	}
}

// GetResourceURL returns the endpoint for a resource call
func GetResourceURL(resource ResourceType) string {
	return BaseURL + fmt.Sprintf(ResourceEndpoint, resource)
}

// GetPinURL constructs the permalink of a pin
func GetPinURL(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s/pin/%s/", BaseURL, id)
}

// pwsHandler mirrors the page handler the web client reports for a resource
func pwsHandler(resource ResourceType) string {
	switch resource {
	case BoardFeedResource:
		return "www/[username]/[slug].js"
	case UserPinsResource:
		return "www/[username].js"
	default:
		return "www/search/[scope].js"
	}
}
