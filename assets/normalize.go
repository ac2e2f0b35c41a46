package assets

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// svgKeyMaxLen bounds the serialized markup used as an inline-SVG dedup
// key. Longer markup is truncated before hashing.
const svgKeyMaxLen = 4096

// NormalizeURL computes the dedup key for a URL-backed asset: query string
// and fragment are stripped so resize/tracking variants of the same image
// collapse to one key. Relative URLs are resolved against the page URL.
// data: URIs are returned unchanged; they have no variant problem and no
// stable source identity.
func NormalizeURL(raw, pageURL string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "data:") {
		return trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		// Unparseable: naive strip keeps dedup better than nothing.
		return strings.SplitN(strings.SplitN(trimmed, "#", 2)[0], "?", 2)[0]
	}
	if !u.IsAbs() && pageURL != "" {
		if base, berr := url.Parse(pageURL); berr == nil {
			u = base.ResolveReference(u)
		}
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// IsDataURI reports whether the source is an embedded data: URI.
func IsDataURI(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "data:")
}

// NormalizeSVG canonicalizes inline vector markup for content hashing:
// the fragment is parsed and re-serialized so attribute spacing and
// self-closing quirks don't split identical graphics into distinct assets.
// Output is bounded to svgKeyMaxLen.
func NormalizeSVG(markup string) string {
	trimmed := strings.TrimSpace(markup)
	if trimmed == "" {
		return ""
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(trimmed), ctx)
	if err != nil || len(nodes) == 0 {
		return truncate(collapseSpace(trimmed), svgKeyMaxLen)
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return truncate(collapseSpace(trimmed), svgKeyMaxLen)
		}
	}
	return truncate(b.String(), svgKeyMaxLen)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
