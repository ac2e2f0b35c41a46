package segmenter

import (
	"fmt"
	"strings"

	"github.com/shopmorph/shopmorph/models"
)

// carouselHints are class-name fragments that mark slider widgets. DomPath
// carries up to two class names per ancestor, which is enough for the
// common slider libraries.
var carouselHints = []string{"carousel", "swiper", "slider", "slideshow", "splide", "glide"}

// starGlyphs are the rating characters counted for the reviews rubric.
var starGlyphs = []rune{'★', '⭐', '✦', '✭', '☆'}

// avatarMaxDim bounds "avatar-like" square images (reviewer portraits).
const avatarMaxDim = 120

// computeFeatures derives the structural feature vector for one section.
// These are intentionally cheap counting heuristics over the digest subset;
// they exist only as classifier input.
func (s *Segmenter) computeFeatures(sec *models.Section) models.Features {
	f := models.Features{
		BoxHeight: sec.BBox.H,
		NodeCount: len(sec.Nodes),
	}

	cardGroups := map[string]int{}
	detailsCount, summaryCount := 0, 0

	for i := range sec.Nodes {
		n := &sec.Nodes[i]
		switch n.Tag {
		case "h1", "h2", "h3":
			f.HeadingCount++
		case "p", "li":
			f.ParagraphCount++
		case "button":
			f.CTACount++
		case "a":
			if n.Text != "" {
				f.CTACount++
			}
		case "svg":
			f.SVGCount++
		case "details":
			detailsCount++
		case "summary":
			summaryCount++
		case "img":
			if n.BBox.W >= s.cfg.LargeImageMinDim && n.BBox.H >= s.cfg.LargeImageMinDim {
				f.LargeImageCount++
			} else {
				f.SmallImageCount++
			}
			if isSquarish(n.BBox) && n.BBox.MaxDim() <= avatarMaxDim {
				f.AvatarCount++
			}
		}

		if n.BgURL != "" && n.Tag != "img" {
			if n.BBox.W >= s.cfg.LargeImageMinDim && n.BBox.H >= s.cfg.LargeImageMinDim {
				f.LargeImageCount++
			} else {
				f.SmallImageCount++
			}
		}

		if !f.CarouselLikely && hasCarouselHint(n.DomPath) {
			f.CarouselLikely = true
		}

		f.StarGlyphCount += countStars(n.Text)

		// Repeated-card heuristic: siblings (same parent path) of similar
		// width, bucketed to 50px. The largest bucket wins.
		if n.Tag == "div" || n.Tag == "li" || n.Tag == "article" {
			key := fmt.Sprintf("%s|%d", parentPath(n.DomPath), n.BBox.W/50)
			cardGroups[key]++
		}
	}

	// Native disclosure widgets: a <details> wraps its <summary>, so take
	// whichever count is larger rather than summing the pair twice.
	f.DisclosureCount = max(detailsCount, summaryCount)

	for _, count := range cardGroups {
		if count >= 2 && count > f.CardCount {
			f.CardCount = count
		}
	}
	return f
}

func hasCarouselHint(domPath string) bool {
	lower := strings.ToLower(domPath)
	for _, h := range carouselHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func countStars(text string) int {
	n := 0
	for _, r := range text {
		for _, g := range starGlyphs {
			if r == g {
				n++
				break
			}
		}
	}
	return n
}

func isSquarish(b models.BBox) bool {
	d := b.W - b.H
	if d < 0 {
		d = -d
	}
	return b.MaxDim() > 0 && float64(d) <= 0.15*float64(b.MaxDim())
}

// parentPath strips the last segment of a dom path, yielding a sibling
// grouping key.
func parentPath(domPath string) string {
	if i := strings.LastIndex(domPath, ">"); i >= 0 {
		return domPath[:i]
	}
	return ""
}
