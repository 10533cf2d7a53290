// Package normalizer canonicalizes raw input (URL, HTML, or pasted text)
// into plain text plus a stable content fingerprint. Two inputs that
// normalize to the same text fingerprint identically regardless of how
// they were submitted; the cache depends on that.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"newssum/config"
	"newssum/types"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims and squeezes all whitespace runs to single spaces.
func CollapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Fingerprint returns the hex sha256 of the whitespace-collapsed text.
// Case-sensitive by design: casing is content.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(CollapseWhitespace(text)))
	return hex.EncodeToString(sum[:])
}

// Snippet returns the first n characters of the normalized text.
func Snippet(text string, n int) string {
	t := CollapseWhitespace(text)
	if len(t) > n {
		return t[:n]
	}
	return t
}

// FromText normalizes pasted plain text. No metadata extraction happens on
// this path.
func FromText(text, domain string) types.NormalizedContent {
	t := truncate(CollapseWhitespace(text), config.MaxInputChars)
	return types.NormalizedContent{
		Text:    t,
		Snippet: Snippet(t, config.SnippetChars),
		Domain:  domain,
	}
}

// FromHTML extracts a readable article body and document metadata from raw
// HTML. Metadata priority: structured meta tags first, then a visible
// <time datetime> element, then nothing.
func FromHTML(html, domain string) types.NormalizedContent {
	title, desc, pubTime := extractMeta(html)

	text := extractBody(html)
	text = truncate(text, config.MaxInputChars)

	snippet := desc
	if snippet == "" {
		snippet = Snippet(text, config.SnippetChars)
	}

	return types.NormalizedContent{
		Text:    text,
		Title:   title,
		Snippet: snippet,
		PubTime: pubTime,
		Domain:  domain,
	}
}

// extractBody runs readability over the document and strips anything the
// summarizer must never see: script/style/iframe/noscript subtrees and
// inline event-handler attributes.
func extractBody(html string) string {
	content := html
	if article, err := readability.FromReader(strings.NewReader(html), nil); err == nil && article.Content != "" {
		content = article.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return CollapseWhitespace(stripTags(content))
	}

	doc.Find("script, style, iframe, noscript").Remove()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			kept := node.Attr[:0]
			for _, attr := range node.Attr {
				if !strings.HasPrefix(strings.ToLower(attr.Key), "on") {
					kept = append(kept, attr)
				}
			}
			node.Attr = kept
		}
	})

	return CollapseWhitespace(doc.Text())
}

var metaPubSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[itemprop="datePublished"]`,
	`meta[name="pubdate"]`,
	`meta[name="date"]`,
}

func extractMeta(html string) (title, desc, pubTime string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", ""
	}

	title = CollapseWhitespace(doc.Find("title").First().Text())

	for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			desc = CollapseWhitespace(v)
			break
		}
	}

	for _, sel := range metaPubSelectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			pubTime = normalizePubTime(v)
			break
		}
	}
	if pubTime == "" {
		if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			pubTime = normalizePubTime(v)
		}
	}

	return title, desc, pubTime
}

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// normalizePubTime prefers a full ISO 8601 parse, keeps raw values that at
// least contain a date, and drops everything else.
func normalizePubTime(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(v, "Z", "+00:00", 1)); err == nil {
		return t.Format(time.RFC3339)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(time.RFC3339)
	}
	if dateRe.MatchString(v) {
		return v
	}
	return ""
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// NormalizeURL canonicalizes a source URL: https default, lowercase host,
// utm_* query params dropped, trailing slash trimmed. The result is the
// source identity used in the cache-key seed.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""

	return u.String()
}
