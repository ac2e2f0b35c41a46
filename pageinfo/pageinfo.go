// Package pageinfo extracts the page-level summary: brand design tokens
// sampled from computed styles, and product title/price/description from
// the rendered HTML. Non-product pages degrade gracefully to title-only.
package pageinfo

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"github.com/shopmorph/shopmorph/models"
	"golang.org/x/net/html"
)

// priceSelectors are tried in order; the first match containing a digit
// wins. These cover the common storefront theme conventions.
var priceSelectors = compileAll(
	".price",
	".product-price",
	".product__price",
	"span.money",
	"[data-product-price]",
)

// descriptionSelectors are tried in order; the first match with more than
// minDescriptionLen characters of text wins.
var descriptionSelectors = compileAll(
	".product-description",
	".product__description",
	".rte",
	"#description",
)

const minDescriptionLen = 20

func compileAll(sels ...string) []cascadia.Sel {
	out := make([]cascadia.Sel, 0, len(sels))
	for _, s := range sels {
		sel, err := cascadia.Parse(s)
		if err != nil {
			panic("pageinfo: bad selector " + s + ": " + err.Error())
		}
		out = append(out, sel)
	}
	return out
}

// Extractor extracts page info and design tokens from one capture.
type Extractor struct {
	md *converter.Converter
}

// New creates an Extractor with a reusable markdown converter (script,
// style and head noise stripped; commonmark rendering).
func New() *Extractor {
	return &Extractor{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Extract derives PageInfo from the rendered HTML and DesignTokens from
// the digest's computed-style samples. Every step is best-effort: a
// missing selector or failed parse degrades to an empty field, never an
// error.
func (e *Extractor) Extract(htmlStr, pageURL, docTitle, lang string, nodes []models.DigestNode) (models.PageInfo, models.DesignTokens) {
	info := models.PageInfo{Title: docTitle, Lang: lang}
	tokens := designTokens(nodes)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		slog.Warn("pageinfo: rendered HTML unparseable, keeping document title only", "error", err)
		return info, tokens
	}

	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		info.Title = h1
	} else if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		info.Title = og
	}

	info.Price = findPrice(doc)
	info.DescriptionHTML = findDescription(doc, htmlStr, pageURL)

	if info.DescriptionHTML != "" {
		if md, mdErr := e.md.ConvertString(info.DescriptionHTML); mdErr == nil {
			info.DescriptionMD = strings.TrimSpace(md)
		}
	}
	return info, tokens
}

func findPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		var price string
		doc.FindMatcher(matcher{sel}).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if strings.ContainsAny(text, "0123456789") {
				price = text
				return false
			}
			return true
		})
		if price != "" {
			return price
		}
	}
	if amt, ok := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); ok {
		return amt
	}
	return ""
}

// findDescription tries the theme selectors first and falls back to the
// readability algorithm's excerpt for pages with no recognizable
// description container.
func findDescription(doc *goquery.Document, htmlStr, pageURL string) string {
	for _, sel := range descriptionSelectors {
		node := doc.FindMatcher(matcher{sel}).First()
		if len(strings.TrimSpace(node.Text())) > minDescriptionLen {
			if h, err := node.Html(); err == nil && strings.TrimSpace(h) != "" {
				return strings.TrimSpace(h)
			}
		}
	}

	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(htmlStr), parsed)
	if err != nil {
		slog.Warn("pageinfo: readability fallback failed", "url", pageURL, "error", err)
		return ""
	}
	if strings.TrimSpace(article.Excerpt) != "" {
		return "<p>" + strings.TrimSpace(article.Excerpt) + "</p>"
	}
	return ""
}

// designTokens samples the brand DNA out of the digest's computed styles:
// the first prominent button background, the dominant surface color, and
// the heading/body font stacks.
func designTokens(nodes []models.DigestNode) models.DesignTokens {
	var t models.DesignTokens
	for i := range nodes {
		n := &nodes[i]
		switch n.Tag {
		case "button", "a":
			if t.PrimaryButtonColor == "" && n.Tag == "button" && prominentColor(n.Style.BackgroundColor) {
				t.PrimaryButtonColor = n.Style.BackgroundColor
			}
		case "h1", "h2":
			if t.HeadingFont == "" && n.Style.FontFamily != "" {
				t.HeadingFont = n.Style.FontFamily
			}
		case "p", "li":
			if t.BodyFont == "" && n.Style.FontFamily != "" {
				t.BodyFont = n.Style.FontFamily
			}
		case "section", "main", "article":
			if t.BackgroundColor == "" && prominentColor(n.Style.BackgroundColor) {
				t.BackgroundColor = n.Style.BackgroundColor
			}
		}
	}
	return t
}

// prominentColor filters out the transparent/white backgrounds that carry
// no brand signal.
func prominentColor(c string) bool {
	switch c {
	case "", "transparent", "rgba(0, 0, 0, 0)", "rgb(255, 255, 255)", "#ffffff", "#fff":
		return false
	}
	return true
}

// matcher adapts a compiled cascadia selector to goquery's Matcher
// interface, so the selector lists above are parsed once at init.
type matcher struct{ sel cascadia.Sel }

func (m matcher) Match(n *html.Node) bool        { return m.sel.Match(n) }
func (m matcher) MatchAll(n *html.Node) []*html.Node { return cascadia.QueryAll(n, m.sel) }
func (m matcher) Filter(ns []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range ns {
		if m.sel.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
