package embeds

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RewriteEmbedHTML locates the first iframe in an embeddable HTML fragment and
// rewrites it: lazy loading always, and for YouTube-family embeds a title
// attribute, responsive aspect-ratio styling, query-string merging and an
// optional privacy-enhanced host swap. The mutated iframe element alone is
// reserialized; the provider's surrounding markup is dropped.
//
// Rewriting is best-effort and never fails: markup that cannot be parsed, or
// a fragment without an iframe, comes back unchanged with an empty IframeSrc.
func RewriteEmbedHTML(fragment, title string, cfg RewriteConfig) RewriteResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return RewriteResult{EmbedHTML: fragment}
	}

	// Only the first iframe is considered; any siblings are intentionally
	// not carried into the output.
	iframe := doc.Find("iframe").First()
	if iframe.Length() == 0 {
		return RewriteResult{EmbedHTML: fragment}
	}

	iframe.SetAttr("loading", "lazy")

	src, _ := iframe.Attr("src")
	youtube := isYouTubeSrc(src)

	if youtube {
		iframe.SetAttr("title", title)
	}

	if youtube || cfg.ForceAspectRatioStyle {
		applyAspectRatioStyle(iframe)
	}

	if youtube {
		if rewritten, ok := rewriteIframeSrc(src, cfg); ok {
			src = rewritten
			iframe.SetAttr("src", src)
		}
	}

	rendered, err := goquery.OuterHtml(iframe)
	if err != nil {
		return RewriteResult{EmbedHTML: fragment, IframeSrc: src}
	}

	return RewriteResult{EmbedHTML: rendered, IframeSrc: src}
}

// isYouTubeSrc reports whether the iframe src points at a YouTube-family
// embed. Detection is by host so a "youtube" elsewhere in the URL (e.g. a
// path segment) does not trigger the rewrite.
func isYouTubeSrc(src string) bool {
	if src == "" {
		return false
	}
	parsed, err := url.Parse(src)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(parsed.Hostname()), "youtube")
}

// applyAspectRatioStyle converts fixed width/height attributes into an inline
// style that makes the embed fill its container at the original aspect ratio,
// regardless of the host page's CSS.
func applyAspectRatioStyle(iframe *goquery.Selection) {
	width, okW := iframe.Attr("width")
	height, okH := iframe.Attr("height")
	if !okW || !okH || width == "" || height == "" {
		return
	}
	iframe.RemoveAttr("width")
	iframe.RemoveAttr("height")
	iframe.SetAttr("style", fmt.Sprintf("width: 100%%; aspect-ratio: %s/%s !important;", width, height))
}

// rewriteIframeSrc merges the configured query parameters into the iframe URL
// and optionally swaps in the privacy-enhanced host, then reassembles the URL
// deterministically. Returns false when the src cannot be parsed at all.
func rewriteIframeSrc(src string, cfg RewriteConfig) (string, bool) {
	parsed, err := url.Parse(src)
	if err != nil {
		return "", false
	}

	query := parseOrderedQuery(parsed.RawQuery)
	for _, param := range cfg.ExtraQueryParams {
		query.Set(param.Key, param.Value)
	}

	if cfg.PrivacyEnhancedHost != "" {
		if port := parsed.Port(); port != "" {
			parsed.Host = cfg.PrivacyEnhancedHost + ":" + port
		} else {
			parsed.Host = cfg.PrivacyEnhancedHost
		}
	}

	return assembleURL(parsed, query), true
}

// assembleURL rebuilds a URL from its components. Absent components introduce
// no stray delimiters: no "//" without host or userinfo, no "@" without
// userinfo, no "?" when the merged query has no keys, no "#" without a
// fragment.
func assembleURL(u *url.URL, query *orderedQuery) string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString(":")
	}
	if u.Host != "" || u.User != nil {
		b.WriteString("//")
	}
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteString("@")
	}
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())
	if query.Len() > 0 {
		b.WriteString("?")
		b.WriteString(query.Encode())
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

// orderedQuery is a query string as an insertion-ordered key/value mapping.
// The standard library's url.Values is map-backed and loses the provider's
// parameter order, which must survive the rewrite byte-for-byte.
type orderedQuery struct {
	pairs []QueryParam
}

// parseOrderedQuery decodes a raw query string preserving first-seen key
// order. A repeated key keeps its first position with the last value, matching
// how providers themselves interpret duplicates. Undecodable pairs are dropped
// rather than failing the rewrite.
func parseOrderedQuery(raw string) *orderedQuery {
	q := &orderedQuery{}
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		q.Set(decodedKey, decodedValue)
	}
	return q
}

// Set overrides the value for key, appending it when first seen.
func (q *orderedQuery) Set(key, value string) {
	for i := range q.pairs {
		if q.pairs[i].Key == key {
			q.pairs[i].Value = value
			return
		}
	}
	q.pairs = append(q.pairs, QueryParam{Key: key, Value: value})
}

// Get returns the value for key, or "" when absent.
func (q *orderedQuery) Get(key string) string {
	for _, pair := range q.pairs {
		if pair.Key == key {
			return pair.Value
		}
	}
	return ""
}

// Len returns the number of keys.
func (q *orderedQuery) Len() int {
	return len(q.pairs)
}

// Encode serializes the mapping in insertion order.
func (q *orderedQuery) Encode() string {
	var b strings.Builder
	for i, pair := range q.pairs {
		if i > 0 {
			b.WriteString("&")
		}
		b.WriteString(url.QueryEscape(pair.Key))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}
