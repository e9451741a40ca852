package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
		ok   bool
	}{
		{"relative", "https://example.com/gallery/", "img/a.jpg", "https://example.com/gallery/img/a.jpg", true},
		{"root relative", "https://example.com/gallery/", "/a.png", "https://example.com/a.png", true},
		{"protocol relative", "https://example.com/", "//cdn.example.com/a.webp", "https://cdn.example.com/a.webp", true},
		{"absolute", "https://example.com/", " http://other.org/x.jpg ", "http://other.org/x.jpg", true},
		{"data uri", "https://example.com/", "data:image/png;base64,AAAA", "", false},
		{"javascript", "https://example.com/", "javascript:void(0)", "", false},
		{"ftp", "https://example.com/", "ftp://files.example.com/a.jpg", "", false},
		{"blank", "https://example.com/", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.base, tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, HasImageExtension("https://x.test/a.jpg"))
	assert.True(t, HasImageExtension("https://x.test/a.JPEG"))
	assert.True(t, HasImageExtension("https://x.test/a.png?w=100#frag"))
	assert.True(t, HasImageExtension("https://x.test/a.WebP"))
	assert.False(t, HasImageExtension("https://x.test/a.gif"))
	assert.False(t, HasImageExtension("https://x.test/a.svg"))
	assert.False(t, HasImageExtension("https://x.test/jpg"))
	assert.False(t, HasImageExtension("https://x.test/a?f=.jpg"))
}

func TestHostMatches(t *testing.T) {
	u, _ := url.Parse("https://WWW.Pinterest.com/user/board/")
	assert.True(t, HostMatches(u, "pinterest.com"))

	u, _ = url.Parse("https://uk.pinterest.com/user/")
	assert.True(t, HostMatches(u, "pinterest.com"))

	u, _ = url.Parse("https://notpinterest.com/")
	assert.False(t, HostMatches(u, "pinterest.com"))

	u, _ = url.Parse("https://photos.app.goo.gl/abc")
	assert.True(t, HostMatches(u, "photos.google.com", "photos.app.goo.gl"))

	assert.False(t, HostMatches(nil, "example.com"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/", NormalizePath("///"))
	assert.Equal(t, "/user/board/", NormalizePath("user//board"))
	assert.Equal(t, "/user/", NormalizePath("/user"))
}

func TestParseHTTP(t *testing.T) {
	_, ok := ParseHTTP("mountain wallpapers")
	assert.False(t, ok)

	u, ok := ParseHTTP(" https://example.com/a ")
	assert.True(t, ok)
	assert.Equal(t, "example.com", u.Host)
}

func TestHashID(t *testing.T) {
	a := HashID("https://example.com/a.jpg")
	assert.Len(t, a, 32)
	assert.Equal(t, a, HashID("https://example.com/a.jpg"))
	assert.NotEqual(t, a, HashID("https://example.com/b.jpg"))
}
