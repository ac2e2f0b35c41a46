package segmenter

import (
	"fmt"
	"testing"

	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/renderer"
)

const testURL = "https://shop.example.com/products/lamp"

func testConfig() config.CaptureConfig {
	return config.CaptureConfig{
		MinSectionHeight:    160,
		MinSectionWidthFrac: 0.55,
		MaxSections:         22,
		MaxNodesPerSection:  900,
		IconMaxDim:          96,
		LargeImageMinDim:    200,
	}
}

// candidateAt builds a full-width candidate with one matching digest node so
// it survives the empty-subset filter.
func candidateAt(y, h int) (renderer.Candidate, models.DigestNode) {
	b := models.BBox{X: 0, Y: y, W: 1440, H: h}
	c := renderer.Candidate{
		Tag:     "section",
		DomPath: fmt.Sprintf("body>section@%d", y),
		BBox:    b,
	}
	n := models.DigestNode{
		Tag:  "p",
		Text: "some copy",
		BBox: models.BBox{X: 100, Y: y + 20, W: 400, H: 40},
	}
	return c, n
}

func buildCapture(candidates []renderer.Candidate, nodes []models.DigestNode, pageHeight int) *renderer.Capture {
	return &renderer.Capture{
		Viewport:   models.Viewport{Width: 1440, Height: 900, DeviceScaleFactor: 1},
		PageHeight: pageHeight,
		Candidates: candidates,
		Nodes:      nodes,
	}
}

func TestSegmentOrdersByVerticalPosition(t *testing.T) {
	c1, n1 := candidateAt(1200, 400)
	c2, n2 := candidateAt(0, 600)
	c3, n3 := candidateAt(650, 500)

	capt := buildCapture(
		[]renderer.Candidate{c1, c2, c3},
		[]models.DigestNode{n1, n2, n3},
		2000,
	)

	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}
	for i := 1; i < len(sections); i++ {
		if sections[i].BBox.Y < sections[i-1].BBox.Y {
			t.Errorf("section %d at y=%d precedes section %d at y=%d",
				i, sections[i].BBox.Y, i-1, sections[i-1].BBox.Y)
		}
		if sections[i].Order != i+1 {
			t.Errorf("section %d has Order=%d, want %d", i, sections[i].Order, i+1)
		}
	}
}

func TestSegmentRejectsSlivers(t *testing.T) {
	short, shortNode := candidateAt(0, 100) // below min height
	narrow := renderer.Candidate{
		Tag:     "aside",
		DomPath: "body>aside",
		BBox:    models.BBox{X: 0, Y: 200, W: 300, H: 400}, // below min width
	}
	ok, okNode := candidateAt(700, 400)

	capt := buildCapture(
		[]renderer.Candidate{short, narrow, ok},
		[]models.DigestNode{shortNode, okNode},
		1200,
	)

	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if sections[0].BBox.Y != 700 {
		t.Errorf("kept section at y=%d, want the one at y=700", sections[0].BBox.Y)
	}
}

func TestSegmentKeepsShortLandmarks(t *testing.T) {
	header := renderer.Candidate{
		Tag:      "header",
		DomPath:  "body>header",
		BBox:     models.BBox{X: 0, Y: 0, W: 1440, H: 80}, // well below min height
		Landmark: true,
	}
	logo := models.DigestNode{
		Tag:  "img",
		Src:  "https://shop.example.com/logo.png",
		BBox: models.BBox{X: 20, Y: 10, W: 120, H: 60},
	}

	capt := buildCapture([]renderer.Candidate{header}, []models.DigestNode{logo}, 900)
	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want the header landmark kept", len(sections))
	}
	if sections[0].Tag != "header" {
		t.Errorf("got tag %q, want header", sections[0].Tag)
	}
}

func TestSegmentCapsSectionCount(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSections = 5

	var candidates []renderer.Candidate
	var nodes []models.DigestNode
	for i := 0; i < 12; i++ {
		c, n := candidateAt(i*300, 250)
		candidates = append(candidates, c)
		nodes = append(nodes, n)
	}

	capt := buildCapture(candidates, nodes, 4000)
	sections := New(cfg).Segment(capt, testURL)
	if len(sections) != 5 {
		t.Fatalf("got %d sections, want cap of 5", len(sections))
	}
	// The cap keeps the topmost candidates.
	if sections[4].BBox.Y != 1200 {
		t.Errorf("last kept section at y=%d, want 1200", sections[4].BBox.Y)
	}
}

func TestSegmentDropsEmptyCandidates(t *testing.T) {
	c, _ := candidateAt(0, 400)
	// No digest nodes anywhere near the candidate.
	far := models.DigestNode{Tag: "p", Text: "x", BBox: models.BBox{X: 0, Y: 5000, W: 100, H: 20}}

	capt := buildCapture([]renderer.Candidate{c}, []models.DigestNode{far}, 6000)
	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 0 {
		t.Fatalf("got %d sections, want 0 for a candidate with no nodes", len(sections))
	}
}

func TestSegmentDeduplicatesOverlappingCandidates(t *testing.T) {
	a, n := candidateAt(0, 600)
	// Same region again under a different path (e.g. landmark + root child).
	b := renderer.Candidate{
		Tag:     "div",
		DomPath: "body>div.wrapper",
		BBox:    models.BBox{X: 0, Y: 0, W: 1440, H: 580},
	}

	capt := buildCapture([]renderer.Candidate{a, b}, []models.DigestNode{n}, 900)
	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want overlap collapsed to 1", len(sections))
	}
}

func TestSegmentIDsAreStableAcrossRuns(t *testing.T) {
	c, n := candidateAt(0, 500)
	capt := buildCapture([]renderer.Candidate{c}, []models.DigestNode{n}, 900)

	s := New(testConfig())
	first := s.Segment(capt, testURL)
	second := s.Segment(capt, testURL)
	if len(first) != 1 || len(second) != 1 {
		t.Fatal("expected one section per run")
	}
	if first[0].ID != second[0].ID {
		t.Errorf("IDs differ across runs: %s vs %s", first[0].ID, second[0].ID)
	}
	if first[0].ID[:2] != "s_" {
		t.Errorf("section ID %q must carry the s_ prefix", first[0].ID)
	}
}

func TestSegmentContentExtraction(t *testing.T) {
	c, _ := candidateAt(0, 500)
	heading := models.DigestNode{Tag: "h2", Text: "Why choose us", BBox: models.BBox{X: 100, Y: 40, W: 600, H: 50}}
	para := models.DigestNode{Tag: "p", Text: "Because we care.", BBox: models.BBox{X: 100, Y: 120, W: 600, H: 30}}

	capt := buildCapture([]renderer.Candidate{c}, []models.DigestNode{heading, para}, 900)
	sections := New(testConfig()).Segment(capt, testURL)
	if len(sections) != 1 {
		t.Fatal("expected one section")
	}
	if got := sections[0].Content.Heading; got != "Why choose us" {
		t.Errorf("heading = %q", got)
	}
	if got := sections[0].Content.Text; got != "Because we care." {
		t.Errorf("text = %q", got)
	}
}
