package links

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResolvesAndDedupes(t *testing.T) {
	html := []byte(`
		<html><body>
			<a href="/news/one">One</a>
			<a href="https://example.com/news/two">Two</a>
			<a href="/news/one">One again</a>
			<a href="/news/one#comments">One with fragment</a>
		</body></html>
	`)

	got := Extract(html, "https://example.com", true)

	assert.Equal(t, []string{
		"https://example.com/news/one",
		"https://example.com/news/two",
	}, got)
}

func TestExtractSameHostOnly(t *testing.T) {
	html := []byte(`
		<html><body>
			<a href="/local">Local</a>
			<a href="https://other.example.org/external">External</a>
			<a href="https://EXAMPLE.com/upper">Same host, different case</a>
		</body></html>
	`)

	got := Extract(html, "https://example.com", false)

	assert.Equal(t, []string{
		"https://example.com/local",
		"https://example.com/upper",
	}, got)
}

func TestExtractSkipsNonContentSchemes(t *testing.T) {
	html := []byte(`
		<html><body>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:someone@example.com">Mail</a>
			<a href="tel:+15551234">Call</a>
			<a href="/article">Article</a>
		</body></html>
	`)

	got := Extract(html, "https://example.com", true)

	assert.Equal(t, []string{"https://example.com/article"}, got)
}

func TestExtractMalformedHTMLYieldsNoCandidates(t *testing.T) {
	got := Extract([]byte("<<<<not html at all"), "https://example.com", true)
	assert.Empty(t, got)
}

func TestExtractStableOrder(t *testing.T) {
	html := []byte(`
		<html><body>
			<a href="/zebra">z</a>
			<a href="/alpha">a</a>
			<a href="/mid">m</a>
		</body></html>
	`)

	first := Extract(html, "https://example.com", true)
	second := Extract(html, "https://example.com", true)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"https://example.com/alpha",
		"https://example.com/mid",
		"https://example.com/zebra",
	}, first)
}

func TestNormalizeStripsTrackingParams(t *testing.T) {
	base, err := url.Parse("https://example.com")
	require.NoError(t, err)

	got, err := Normalize(base, "/post?utm_source=rss&utm_medium=feed&id=42&fbclid=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post?id=42", got)
}

func TestNormalizeLowercasesHost(t *testing.T) {
	base, err := url.Parse("https://example.com")
	require.NoError(t, err)

	got, err := Normalize(base, "https://NEWS.Example.COM/Path")
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com/Path", got)
}

func TestNormalizeRejectsNonHTTP(t *testing.T) {
	base, err := url.Parse("https://example.com")
	require.NoError(t, err)

	got, err := Normalize(base, "ftp://example.com/file")
	require.NoError(t, err)
	assert.Empty(t, got)
}
