package planner

import (
	"github.com/microcosm-cc/bluemonday"
)

// markupPolicy is the sanitizer for custom-markup HTML, whether synthesized
// here or generated externally. UGC baseline plus the presentational
// attributes a static section rendition needs. Script, event handlers and
// iframes never pass.
var markupPolicy = newMarkupPolicy()

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("style").Globally()
	p.AllowElements("section", "figure", "figcaption", "picture", "source")
	p.AllowAttrs("srcset", "sizes", "loading").OnElements("img", "source")
	return p
}

// SanitizeMarkup strips unsafe constructs from custom-markup HTML.
func SanitizeMarkup(raw string) string {
	return markupPolicy.Sanitize(raw)
}
