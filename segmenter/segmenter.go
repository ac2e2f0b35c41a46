// Package segmenter partitions a page capture into top-level, non-overlapping
// section candidates in vertical document order. It is pure: it consumes the
// renderer's structured output and never touches the live page.
package segmenter

import (
	"log/slog"
	"sort"

	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/renderer"
)

// minOverlapArea is the minimum intersection (px²) for a digest node to be
// attributed to a section.
const minOverlapArea = 25

// maxContainment is the bbox overlap fraction above which a later candidate
// is treated as a duplicate of an earlier one (e.g. a header landmark that
// is also a direct child of the root).
const maxContainment = 0.6

// Segmenter turns section candidates into bounded, ordered sections.
type Segmenter struct {
	cfg config.CaptureConfig
}

// New creates a Segmenter with the given capture configuration.
func New(cfg config.CaptureConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Segment filters, orders and caps the capture's section candidates and
// attaches each section's digest-node subset and structural features.
//
// Rules:
//   - non-landmark candidates below MinSectionHeight or narrower than
//     MinSectionWidthFrac × viewport are rejected (decorative slivers)
//   - header/footer landmarks are always kept
//   - canonical order is bbox.Y ascending
//   - at most MaxSections are emitted (cost control, a degradation)
//   - a candidate whose node subset is empty is never created as a Section
func (s *Segmenter) Segment(cap *renderer.Capture, pageURL string) []*models.Section {
	minWidth := int(float64(cap.Viewport.Width) * s.cfg.MinSectionWidthFrac)

	var kept []renderer.Candidate
	for _, c := range cap.Candidates {
		if !c.Landmark && (c.BBox.H < s.cfg.MinSectionHeight || c.BBox.W < minWidth) {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].BBox.Y < kept[j].BBox.Y
	})

	var sections []*models.Section
	for _, c := range kept {
		if len(sections) >= s.cfg.MaxSections {
			slog.Warn("section cap reached, remaining candidates dropped",
				"cap", s.cfg.MaxSections,
				"candidates", len(kept),
			)
			break
		}
		if s.duplicates(sections, c.BBox) {
			continue
		}

		bbox := c.BBox.Clamp(cap.Viewport.Width, max(cap.PageHeight, cap.Viewport.Height))
		nodes := s.collectNodes(cap.Nodes, bbox)
		if len(nodes) == 0 {
			continue
		}

		sec := &models.Section{
			ID:         models.SectionID(pageURL, c.DomPath, bbox),
			Order:      len(sections) + 1,
			Tag:        c.Tag,
			DomPath:    c.DomPath,
			BBox:       bbox,
			TextSample: c.TextSample,
			Nodes:      nodes,
			Assets:     []models.AssetUsage{},
		}
		sec.Features = s.computeFeatures(sec)
		sec.Content = extractContent(sec)
		sections = append(sections, sec)
	}
	return sections
}

// duplicates reports whether the bbox substantially overlaps an already
// accepted section, which keeps the emitted set non-overlapping in reading
// order.
func (s *Segmenter) duplicates(accepted []*models.Section, b models.BBox) bool {
	for _, sec := range accepted {
		ov := sec.BBox.Overlap(b)
		smaller := min(sec.BBox.Area(), b.Area())
		if smaller > 0 && float64(ov)/float64(smaller) > maxContainment {
			return true
		}
	}
	return false
}

// collectNodes returns the digest nodes overlapping the section bbox,
// bounded by the per-section cap.
func (s *Segmenter) collectNodes(nodes []models.DigestNode, bbox models.BBox) []models.DigestNode {
	var out []models.DigestNode
	for i := range nodes {
		if len(out) >= s.cfg.MaxNodesPerSection {
			break
		}
		if bbox.Overlap(nodes[i].BBox) >= minOverlapArea {
			out = append(out, nodes[i])
		}
	}
	return out
}

// extractContent pulls the minimal heading/body text for a section: the
// first heading node and the first paragraph node in document order.
func extractContent(sec *models.Section) models.Content {
	var c models.Content
	for i := range sec.Nodes {
		n := &sec.Nodes[i]
		switch n.Tag {
		case "h1", "h2", "h3":
			if c.Heading == "" && n.Text != "" {
				c.Heading = n.Text
			}
		case "p":
			if c.Text == "" && n.Text != "" {
				c.Text = n.Text
			}
		}
		if c.Heading != "" && c.Text != "" {
			break
		}
	}
	return c
}
