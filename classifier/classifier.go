// Package classifier maps a section's structural feature vector to a
// semantic layout type with a confidence score. It is a pure function: no
// I/O, no randomness, fully deterministic.
package classifier

import "github.com/shopmorph/shopmorph/models"

// normalization divides the winning score to produce a confidence. A type
// whose rubric saturates at 10 can therefore reach the ceiling.
const normalization = 10.0

// scoreTable is the per-type scoring rubric. The SHAPE of the rubric
// (which features matter per type, the header/footer short-circuit, the
// confidence floor/ceiling, and the first-declared tie-break) is the
// contract. The numeric weights are tunable parameters.
var scoreTable = map[models.SectionType]func(f models.Features) int{
	models.SectionHeroBanner: func(f models.Features) int {
		score := 0
		if f.HeadingCount >= 1 {
			score += 4
		}
		if f.CTACount >= 1 {
			score += 2
		}
		if f.LargeImageCount >= 1 {
			score += 2
		}
		if f.BoxHeight >= 480 {
			score += 2
		}
		return score
	},
	models.SectionFeaturesGrid: func(f models.Features) int {
		score := 0
		if f.CardCount >= 3 {
			score += 3
		}
		if f.SmallImageCount+f.SVGCount >= 3 {
			score += 2
		}
		if f.HeadingCount >= 1 {
			score++
		}
		if total := f.LargeImageCount + f.SmallImageCount; total >= 3 && total <= 5 {
			score += 2
		}
		return score
	},
	models.SectionGallery: func(f models.Features) int {
		total := f.LargeImageCount + f.SmallImageCount
		score := 0
		if total >= 3 {
			score += 3
		}
		if total >= 6 {
			score += 3
		}
		if f.CarouselLikely {
			score++
		}
		if f.HeadingCount == 0 {
			score++
		}
		return score
	},
	models.SectionSlideshow: func(f models.Features) int {
		score := 0
		if f.CarouselLikely {
			score += 4
		}
		if f.LargeImageCount >= 2 {
			score += 2
		}
		if f.CardCount >= 2 {
			score++
		}
		return score
	},
	models.SectionReviews: func(f models.Features) int {
		// Hard requirement: both the repeated-card pattern AND star
		// glyphs. Either alone is not a reviews section.
		if f.CardCount < 2 || f.StarGlyphCount < 3 {
			return 0
		}
		score := 6
		if f.AvatarCount >= 2 {
			score++
		}
		return score
	},
	models.SectionFAQ: func(f models.Features) int {
		score := 0
		if f.DisclosureCount >= 2 {
			score += 6
		}
		if f.DisclosureCount >= 4 {
			score++
		}
		if f.HeadingCount >= 1 {
			score++
		}
		return score
	},
	models.SectionRichText: func(f models.Features) int {
		score := 0
		if f.ParagraphCount >= 1 {
			score += 2
		}
		if f.HeadingCount >= 1 && f.LargeImageCount+f.SmallImageCount == 0 {
			score += 2
		}
		if f.ParagraphCount >= 3 {
			score++
		}
		return score
	},
	models.SectionUnknown: func(models.Features) int { return 0 },
}

// Classify scores the feature vector against every type in the rubric and
// returns the best label with a confidence in [ConfidenceFloor,
// ConfidenceCeiling].
//
// Rules, in order:
//   - header/footer tag identity short-circuits to those types with maximal
//     confidence, regardless of features
//   - all rubric scores are computed; the maximum wins; ties break by the
//     declaration order of models.ClassifiableTypes (first-declared wins —
//     an explicit deterministic rule, not an accident of map iteration)
//   - a zero best score yields unknown at the confidence floor
func Classify(tag string, f models.Features) (models.SectionType, float64) {
	switch tag {
	case "header":
		return models.SectionHeader, models.ConfidenceCeiling
	case "footer":
		return models.SectionFooter, models.ConfidenceCeiling
	}

	best := models.SectionUnknown
	bestScore := 0
	for _, t := range models.ClassifiableTypes {
		score := scoreTable[t](f)
		if score > bestScore {
			best = t
			bestScore = score
		}
	}
	if bestScore == 0 {
		return models.SectionUnknown, models.ConfidenceFloor
	}
	return best, confidence(bestScore)
}

// PolicyFor returns the default inclusion policy for a section type:
// header/footer are global chrome handled by the target theme and are
// always excluded from the clone plan; everything else defaults to
// included.
func PolicyFor(t models.SectionType) models.Policy {
	switch t {
	case models.SectionHeader, models.SectionFooter:
		return models.Policy{IncludeInClone: false, Reason: "global chrome: " + string(t)}
	default:
		return models.Policy{IncludeInClone: true}
	}
}

func confidence(score int) float64 {
	c := float64(score) / normalization
	if c < models.ConfidenceFloor {
		return models.ConfidenceFloor
	}
	if c > models.ConfidenceCeiling {
		return models.ConfidenceCeiling
	}
	return c
}
