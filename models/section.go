package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// SectionType is the fixed layout taxonomy. The declaration order of
// ClassifiableTypes below is the classifier's tie-break order: when two
// types score equally, the first-declared type wins. This is a documented,
// deterministic rule; do not reorder without revisiting classifier tests.
type SectionType string

const (
	SectionPage         SectionType = "page"
	SectionHeader       SectionType = "header"
	SectionFooter       SectionType = "footer"
	SectionHeroBanner   SectionType = "hero_banner"
	SectionFeaturesGrid SectionType = "features_grid"
	SectionGallery      SectionType = "gallery"
	SectionSlideshow    SectionType = "slideshow"
	SectionReviews      SectionType = "reviews"
	SectionFAQ          SectionType = "faq"
	SectionRichText     SectionType = "rich_text"
	SectionUnknown      SectionType = "unknown"
)

// ClassifiableTypes lists the types the scoring rubric considers, in
// tie-break order. page/header/footer are assigned structurally (root node
// and landmark tags) and never compete in the rubric.
var ClassifiableTypes = []SectionType{
	SectionHeroBanner,
	SectionFeaturesGrid,
	SectionGallery,
	SectionSlideshow,
	SectionReviews,
	SectionFAQ,
	SectionRichText,
	SectionUnknown,
}

// Confidence bounds. The floor guarantees no classification is ever
// reported as "zero confidence"; the ceiling reflects that these are
// heuristics, never certainties.
const (
	ConfidenceFloor   = 0.30
	ConfidenceCeiling = 0.99
)

// Policy is a section's inclusion decision for the clone plan.
type Policy struct {
	IncludeInClone bool   `json:"includeInClone"`
	Reason         string `json:"reason,omitempty"`
}

// Content is the minimal extracted text content of a section.
type Content struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Fingerprint carries the visual similarity signals for a section or asset.
// These are QA/dedup signals only; classification never reads them.
type Fingerprint struct {
	DHash         string  `json:"dhash"`
	DominantColor string  `json:"dominantColor"`
	EdgeDensity   float64 `json:"edgeDensity"`
}

// Features is the structural feature vector the segmenter computes per
// section and the classifier consumes. These are intentionally cheap
// counting heuristics, not a layout engine.
type Features struct {
	HeadingCount    int  `json:"headingCount"`
	ParagraphCount  int  `json:"paragraphCount"`
	CTACount        int  `json:"ctaCount"`
	LargeImageCount int  `json:"largeImageCount"`
	SmallImageCount int  `json:"smallImageCount"`
	SVGCount        int  `json:"svgCount"`
	DisclosureCount int  `json:"disclosureCount"`
	CarouselLikely  bool `json:"carouselLikely"`
	CardCount       int  `json:"cardCount"`
	StarGlyphCount  int  `json:"starGlyphCount"`
	AvatarCount     int  `json:"avatarCount"`
	BoxHeight       int  `json:"boxHeight"`
	NodeCount       int  `json:"nodeCount"`
}

// Section is a bounded vertical region of the page in document order.
type Section struct {
	ID          string       `json:"id"`
	Order       int          `json:"order"`
	Tag         string       `json:"tag"`
	DomPath     string       `json:"domPath"`
	BBox        BBox         `json:"bbox"`
	Type        SectionType  `json:"type"`
	Confidence  float64      `json:"confidence"`
	Policy      Policy       `json:"policy"`
	Content     Content      `json:"content"`
	TextSample  string       `json:"textSample,omitempty"`
	Features    Features     `json:"features"`
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
	Assets      []AssetUsage `json:"assets"`
	Nodes       []DigestNode `json:"nodes,omitempty"`
}

// SectionID derives the stable section identifier from the page URL, the
// section's structural path, and its bounding box. Re-runs on an unchanged
// page therefore produce identical IDs, which downstream tools rely on to
// correlate data across runs.
func SectionID(pageURL, domPath string, b BBox) string {
	key := fmt.Sprintf("%s|%s|%d|%d|%d|%d", pageURL, domPath, b.X, b.Y, b.W, b.H)
	sum := sha1.Sum([]byte(key))
	return "s_" + hex.EncodeToString(sum[:])[:12]
}
