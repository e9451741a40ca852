package pinterest

import (
	"bytes"
	"encoding/json"
	"html"
	"sort"
	"strconv"
	"strings"

	"wallcrawl/pkg/models"
	"wallcrawl/pkg/urlutil"
)

// Name identifies candidates produced by this package
const Name = "pinterest"

const defaultTitle = "Pinterest Pin"

// imageSizes is the preference order for pin images, largest first
var imageSizes = []string{"orig", "736x", "600x", "564x", "474x", "236x"}

// resourceMatch is one resource payload located in a JSON tree
type resourceMatch struct {
	Data     interface{}
	Bookmark string
	Options  map[string]interface{}
}

// decodeJSON parses data keeping numbers exact, pin ids overflow float64
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// walk visits every node of a decoded JSON tree depth first until visit
// returns true. It reports whether visit stopped the walk.
func walk(node interface{}, visit func(interface{}) bool) bool {
	if visit(node) {
		return true
	}
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if walk(v[k], visit) {
				return true
			}
		}
	case []interface{}:
		for _, item := range v {
			if walk(item, visit) {
				return true
			}
		}
	}
	return false
}

// findResource searches root for the payload of the named resource, in
// either the resourceResponses array or the resources map shape
func findResource(root interface{}, name string) (resourceMatch, bool) {
	var found resourceMatch
	ok := walk(root, func(node interface{}) bool {
		m, isMap := node.(map[string]interface{})
		if !isMap {
			return false
		}

		for _, entry := range array(m["resourceResponses"]) {
			e := object(entry)
			if str(e, "name") != name {
				continue
			}
			if match, ok := matchFromEntry(e); ok {
				found = match
				return true
			}
		}

		if resources := object(m["resources"]); resources != nil {
			if match, ok := matchFromResources(object(resources[name])); ok {
				found = match
				return true
			}
		}
		return false
	})
	return found, ok
}

// matchFromEntry reads a resourceResponses element
func matchFromEntry(e map[string]interface{}) (resourceMatch, bool) {
	for _, key := range []string{"response", "resource_response"} {
		if resp := object(e[key]); resp != nil {
			if data, ok := resp["data"]; ok && data != nil {
				return resourceMatch{
					Data:     data,
					Bookmark: firstNonEmpty(str(resp, "bookmark"), str(resp, "nextBookmark"), optionBookmark(object(e["options"]))),
					Options:  object(e["options"]),
				}, true
			}
		}
	}
	if data, ok := e["data"]; ok && data != nil {
		return resourceMatch{
			Data:     data,
			Bookmark: firstNonEmpty(str(e, "bookmark"), str(e, "nextBookmark"), optionBookmark(object(e["options"]))),
			Options:  object(e["options"]),
		}, true
	}
	return resourceMatch{}, false
}

// matchFromResources reads a resources[name] entry, which is keyed by the
// serialized call options
func matchFromResources(entry map[string]interface{}) (resourceMatch, bool) {
	if entry == nil {
		return resourceMatch{}, false
	}
	if _, direct := entry["data"]; direct {
		return matchFromEntry(entry)
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if match, ok := matchFromEntry(object(entry[k])); ok {
			return match, true
		}
	}
	return resourceMatch{}, false
}

func optionBookmark(options map[string]interface{}) string {
	bookmarks := array(options["bookmarks"])
	if len(bookmarks) == 0 {
		return ""
	}
	s, _ := bookmarks[0].(string)
	return s
}

// pinRecords returns the pin list of a resource payload. Search results
// wrap it in an object.
func pinRecords(data interface{}) []interface{} {
	if list := array(data); list != nil {
		return list
	}
	if m := object(data); m != nil {
		return array(m["results"])
	}
	return nil
}

// parsePins converts pin records to candidates, skipping malformed ones
// and repeated image URLs
func parsePins(records []interface{}) []models.WallpaperCandidate {
	seen := make(map[string]bool)
	out := make([]models.WallpaperCandidate, 0, len(records))
	for _, rec := range records {
		c, ok := parsePin(object(rec))
		if !ok || seen[c.ImageURL] {
			continue
		}
		seen[c.ImageURL] = true
		out = append(out, c)
	}
	return out
}

func parsePin(pin map[string]interface{}) (models.WallpaperCandidate, bool) {
	if pin == nil {
		return models.WallpaperCandidate{}, false
	}
	id := idString(pin["id"])
	images := object(pin["images"])
	if id == "" || images == nil {
		return models.WallpaperCandidate{}, false
	}

	imageURL := ""
	for _, size := range imageSizes {
		if raw := str(object(images[size]), "url"); raw != "" {
			if resolved, ok := urlutil.Resolve(BaseURL, unescapeURL(raw)); ok {
				imageURL = resolved
				break
			}
		}
	}
	if imageURL == "" {
		return models.WallpaperCandidate{}, false
	}

	candidate := models.WallpaperCandidate{
		ID:        id,
		Title:     pinTitle(pin),
		ImageURL:  imageURL,
		SourceURL: pinSourceURL(pin, id),
		Source:    Name,
	}
	if orig := object(images["orig"]); orig != nil {
		candidate.Width = integer(orig["width"])
		candidate.Height = integer(orig["height"])
	}
	return candidate, true
}

func pinTitle(pin map[string]interface{}) string {
	return firstNonEmpty(
		strings.TrimSpace(str(pin, "title")),
		strings.TrimSpace(str(pin, "grid_title")),
		strings.TrimSpace(str(pin, "description")),
		strings.TrimSpace(str(object(pin["rich_summary"]), "display_description")),
		defaultTitle,
	)
}

func pinSourceURL(pin map[string]interface{}, id string) string {
	if link, ok := urlutil.ParseHTTP(unescapeURL(str(pin, "link"))); ok {
		return link.String()
	}
	if seo := strings.TrimSpace(str(pin, "seo_link")); seo != "" {
		if resolved, ok := urlutil.Resolve(BaseURL, unescapeURL(seo)); ok {
			return resolved
		}
	}
	return GetPinURL(id)
}

// boardIDFrom finds the board id of a board page payload
func boardIDFrom(root interface{}, match resourceMatch, pins []interface{}) string {
	if id := idString(match.Options["board_id"]); id != "" {
		return id
	}
	if board, ok := findResource(root, boardResource); ok {
		if id := idString(object(board.Data)["id"]); id != "" {
			return id
		}
	}
	for _, p := range pins {
		if id := idString(object(object(p)["board"])["id"]); id != "" {
			return id
		}
	}
	return ""
}

func unescapeURL(s string) string {
	return strings.TrimSpace(html.UnescapeString(strings.ReplaceAll(s, `\/`, "/")))
}

func object(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func array(v interface{}) []interface{} {
	a, _ := v.([]interface{})
	return a
}

func str(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// idString accepts ids sent as strings or numbers
func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func integer(v interface{}) int {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int(f)
		}
		return int(i)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
