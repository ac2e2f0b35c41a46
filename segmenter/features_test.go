package segmenter

import (
	"testing"

	"github.com/shopmorph/shopmorph/models"
)

func featuresOf(t *testing.T, nodes ...models.DigestNode) models.Features {
	t.Helper()
	s := New(testConfig())
	sec := &models.Section{
		BBox:  models.BBox{X: 0, Y: 0, W: 1440, H: 500},
		Nodes: nodes,
	}
	return s.computeFeatures(sec)
}

func TestComputeFeaturesCounts(t *testing.T) {
	f := featuresOf(t,
		models.DigestNode{Tag: "h2", Text: "Why us"},
		models.DigestNode{Tag: "p", Text: "Because."},
		models.DigestNode{Tag: "li", Text: "Fast"},
		models.DigestNode{Tag: "button", Text: "Buy"},
		models.DigestNode{Tag: "a", Text: "Learn more"},
		models.DigestNode{Tag: "a"}, // no text, not a CTA
		models.DigestNode{Tag: "svg", SVGMarkup: "<svg/>"},
		models.DigestNode{Tag: "img", BBox: models.BBox{W: 800, H: 400}},
		models.DigestNode{Tag: "img", BBox: models.BBox{W: 64, H: 64}},
	)

	if f.HeadingCount != 1 {
		t.Errorf("headings = %d", f.HeadingCount)
	}
	if f.ParagraphCount != 2 {
		t.Errorf("paragraphs = %d", f.ParagraphCount)
	}
	if f.CTACount != 2 {
		t.Errorf("ctas = %d (text-less anchors must not count)", f.CTACount)
	}
	if f.SVGCount != 1 {
		t.Errorf("svgs = %d", f.SVGCount)
	}
	if f.LargeImageCount != 1 || f.SmallImageCount != 1 {
		t.Errorf("images = %d large / %d small", f.LargeImageCount, f.SmallImageCount)
	}
	if f.NodeCount != 9 {
		t.Errorf("nodes = %d", f.NodeCount)
	}
	if f.BoxHeight != 500 {
		t.Errorf("boxHeight = %d", f.BoxHeight)
	}
}

func TestComputeFeaturesDisclosuresNotDoubleCounted(t *testing.T) {
	f := featuresOf(t,
		models.DigestNode{Tag: "details", Text: "Q1 A1"},
		models.DigestNode{Tag: "summary", Text: "Q1"},
		models.DigestNode{Tag: "details", Text: "Q2 A2"},
		models.DigestNode{Tag: "summary", Text: "Q2"},
	)
	if f.DisclosureCount != 2 {
		t.Errorf("disclosures = %d, want 2 (details wraps its summary)", f.DisclosureCount)
	}
}

func TestComputeFeaturesCardGrouping(t *testing.T) {
	card := func(w int) models.DigestNode {
		return models.DigestNode{
			Tag:     "div",
			DomPath: "body>main>section.features>div.card",
			BBox:    models.BBox{W: w, H: 300},
		}
	}
	f := featuresOf(t,
		card(320), card(330), card(315), // same 50px bucket siblings
		models.DigestNode{Tag: "div", DomPath: "body>main>aside>div", BBox: models.BBox{W: 320, H: 300}},
	)
	if f.CardCount != 3 {
		t.Errorf("cards = %d, want the largest sibling group", f.CardCount)
	}
}

func TestComputeFeaturesCarouselHint(t *testing.T) {
	f := featuresOf(t, models.DigestNode{
		Tag:     "div",
		DomPath: "body>section>div.swiper-wrapper",
	})
	if !f.CarouselLikely {
		t.Error("swiper class must set the carousel flag")
	}

	f = featuresOf(t, models.DigestNode{Tag: "div", DomPath: "body>section>div.grid"})
	if f.CarouselLikely {
		t.Error("plain grid must not set the carousel flag")
	}
}

func TestComputeFeaturesStarsAndAvatars(t *testing.T) {
	f := featuresOf(t,
		models.DigestNode{Tag: "p", Text: "★★★★★ great mug"},
		models.DigestNode{Tag: "img", BBox: models.BBox{W: 48, H: 48}},  // avatar
		models.DigestNode{Tag: "img", BBox: models.BBox{W: 48, H: 96}},  // not squarish
		models.DigestNode{Tag: "img", BBox: models.BBox{W: 400, H: 400}}, // squarish but too big
	)
	if f.StarGlyphCount != 5 {
		t.Errorf("stars = %d", f.StarGlyphCount)
	}
	if f.AvatarCount != 1 {
		t.Errorf("avatars = %d", f.AvatarCount)
	}
}

func TestComputeFeaturesBackgroundImagesCount(t *testing.T) {
	f := featuresOf(t, models.DigestNode{
		Tag:   "section",
		BgURL: "https://cdn.example.com/bg.jpg",
		BBox:  models.BBox{W: 1440, H: 700},
	})
	if f.LargeImageCount != 1 {
		t.Errorf("large images = %d, want the background counted", f.LargeImageCount)
	}
}

func TestCountStars(t *testing.T) {
	if got := countStars("no stars here"); got != 0 {
		t.Errorf("got %d", got)
	}
	if got := countStars("★⭐✦✭☆"); got != 5 {
		t.Errorf("got %d, want all glyph variants counted", got)
	}
}
