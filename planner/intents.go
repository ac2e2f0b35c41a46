package planner

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopmorph/shopmorph/models"
)

// Per-intent item caps, matching what the downstream native templates can
// actually hold.
const (
	maxFeatureItems = 6
	maxSlides       = 8
	maxReviewChars  = 260
	maxRichChars    = 400
)

func buildHero(sec *models.Section, p *models.Passport) models.Intent {
	intent := &models.HeroIntent{
		Kind:    "hero",
		Heading: firstNonEmpty(sec.Content.Heading, p.PageInfo.Title),
		Text:    sec.Content.Text,
	}

	for i := range sec.Nodes {
		n := &sec.Nodes[i]
		if n.Tag == "button" || (n.Tag == "a" && n.Text != "") {
			intent.CTALabel = n.Text
			intent.CTAHref = n.Href
			break
		}
	}

	// Prefer the explicit hero background role; fall back to the first
	// image usage so a hero with an inline <img> still gets its banner.
	for _, u := range sec.Assets {
		if u.Role == models.RoleHeroBg {
			intent.HeroBgAssetID = u.AssetID
			break
		}
	}
	if intent.HeroBgAssetID == "" && len(sec.Assets) > 0 {
		intent.HeroBgAssetID = sec.Assets[0].AssetID
	}
	return intent
}

func buildFeatures(sec *models.Section) models.Intent {
	var items []models.FeatureItem
	for _, u := range sec.Assets {
		if u.Role != models.RoleIcon {
			continue
		}
		if len(items) >= maxFeatureItems {
			break
		}
		items = append(items, models.FeatureItem{
			IconAssetID: u.AssetID,
			Order:       len(items) + 1,
		})
	}

	columns := len(items)
	if columns < 3 {
		columns = 3
	}
	if columns > 4 {
		columns = 4
	}
	return &models.FeaturesIntent{
		Kind:    "features",
		Title:   sec.Content.Heading,
		Columns: columns,
		Items:   items,
	}
}

func buildSlideshow(sec *models.Section) models.Intent {
	var slides []models.Slide
	for _, u := range sec.Assets {
		if u.Role != models.RoleGallery && u.Role != models.RoleIllustration {
			continue
		}
		if len(slides) >= maxSlides {
			break
		}
		slides = append(slides, models.Slide{
			ImageAssetID: u.AssetID,
			Order:        len(slides) + 1,
		})
	}
	return &models.SlideshowIntent{
		Kind:   "slideshow",
		Title:  sec.Content.Heading,
		Slides: slides,
	}
}

// buildFAQ pairs each disclosure's summary (question) with the remainder
// of its body (answer) via bbox containment over the digest subset. Items
// may legitimately be empty; the builder supports empty FAQ blocks to be
// enriched later.
func buildFAQ(sec *models.Section) models.Intent {
	var items []models.FAQItem
	for i := range sec.Nodes {
		d := &sec.Nodes[i]
		if d.Tag != "details" {
			continue
		}
		question := ""
		for j := range sec.Nodes {
			s := &sec.Nodes[j]
			if s.Tag == "summary" && d.BBox.Overlap(s.BBox) >= s.BBox.Area()*9/10 {
				question = s.Text
				break
			}
		}
		answer := strings.TrimSpace(strings.TrimPrefix(d.Text, question))
		if question == "" && answer == "" {
			continue
		}
		items = append(items, models.FAQItem{Question: question, Answer: answer})
	}
	return &models.FAQIntent{
		Kind:  "faq",
		Title: firstNonEmpty(sec.Content.Heading, "FAQ"),
		Items: items,
	}
}

func buildReviews(sec *models.Section) models.Intent {
	body := firstNonEmpty(sec.TextSample, sec.Content.Text)
	return &models.RichTextIntent{
		Kind:    "rich_text",
		Heading: firstNonEmpty(sec.Content.Heading, "Reviews"),
		HTML:    "<p>" + html.EscapeString(truncateRunes(body, maxReviewChars)) + "</p>",
	}
}

func buildRichText(sec *models.Section, p *models.Passport) models.Intent {
	intent := &models.RichTextIntent{
		Kind:    "rich_text",
		Heading: sec.Content.Heading,
	}
	if p.PageInfo.DescriptionHTML != "" {
		intent.HTML = p.PageInfo.DescriptionHTML
		intent.Markdown = p.PageInfo.DescriptionMD
		return intent
	}
	body := firstNonEmpty(sec.Content.Text, sec.TextSample)
	intent.HTML = "<p>" + html.EscapeString(truncateRunes(body, maxRichChars)) + "</p>"
	return intent
}

// buildCustomMarkup synthesizes a deterministic static rendition of the
// section from its digest subset: headings, paragraphs and images in
// document order, sanitized. A generation capability may later replace
// this with higher-fidelity markup (see ReplaceMarkup).
func buildCustomMarkup(sec *models.Section) models.Intent {
	var b strings.Builder
	b.WriteString(`<div class="cloned-section">`)
	for i := range sec.Nodes {
		n := &sec.Nodes[i]
		switch n.Tag {
		case "h1", "h2", "h3":
			if n.Text != "" {
				fmt.Fprintf(&b, "<%s>%s</%s>", n.Tag, html.EscapeString(n.Text), n.Tag)
			}
		case "p", "li":
			if n.Text != "" {
				fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(n.Text))
			}
		case "img":
			if n.Src != "" {
				fmt.Fprintf(&b, `<img src="%s" alt="%s">`, html.EscapeString(n.Src), html.EscapeString(n.Alt))
			}
		}
	}
	b.WriteString("</div>")

	return &models.CustomMarkupIntent{
		Kind: "custom_markup",
		HTML: SanitizeMarkup(b.String()),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
