// Package planner compiles a passport into the target-agnostic clone plan.
// The compiler is a pure function of the passport: no I/O, no randomness,
// byte-identical output on re-runs (the generatedAt envelope field is
// stamped by the caller, not here).
package planner

import (
	"github.com/shopmorph/shopmorph/models"
)

// archetypeFor maps donor section types to target archetypes. Reviews and
// unknown fall back to rich-text: a native reviews widget needs app
// infrastructure the builder does not control.
var archetypeFor = map[models.SectionType]models.Archetype{
	models.SectionHeroBanner:   models.ArchetypeImageBanner,
	models.SectionFeaturesGrid: models.ArchetypeMulticolumn,
	models.SectionRichText:     models.ArchetypeRichText,
	models.SectionFAQ:          models.ArchetypeCollapsible,
	models.SectionSlideshow:    models.ArchetypeSlideshow,
	models.SectionGallery:      models.ArchetypeSlideshow,
	models.SectionReviews:      models.ArchetypeRichText,
	models.SectionUnknown:      models.ArchetypeRichText,
}

// Escape-valve thresholds: a section the rubric was unsure about that still
// carries a dense node subset is judged too complex for a native structural
// match and compiles to custom markup instead. A fallback, not a failure.
const (
	customMarkupMaxConfidence = 0.45
	customMarkupMinNodes      = 40
)

// Compiler compiles passports into plans.
type Compiler struct{}

// New creates a Compiler.
func New() *Compiler {
	return &Compiler{}
}

// Compile maps every included section to a plan section. Header/footer
// sections carry IncludeInClone=false from classification and are counted
// as excluded, never compiled.
func (c *Compiler) Compile(p *models.Passport) *models.Plan {
	plan := &models.Plan{
		PlanVersion: models.PlanVersion,
		Source: models.PlanSource{
			URL:             p.URL,
			PassportVersion: p.Version,
		},
		Sections: []models.PlanSection{},
	}

	for _, sec := range p.SectionTree.Children {
		if !sec.Policy.IncludeInClone {
			plan.Diagnostics.ExcludedSections++
			continue
		}

		archetype, intent := c.compileSection(sec, p)

		refs := make([]models.AssetRef, 0, len(sec.Assets))
		for _, u := range sec.Assets {
			refs = append(refs, models.AssetRef{AssetID: u.AssetID, Role: u.Role})
		}

		plan.Sections = append(plan.Sections, models.PlanSection{
			SourceSectionID: sec.ID,
			SourceType:      sec.Type,
			Confidence:      sec.Confidence,
			TargetArchetype: archetype,
			Intent:          intent,
			Assets:          refs,
		})
	}

	plan.Diagnostics.IncludedSections = len(plan.Sections)
	plan.Diagnostics.Notes = []string{
		"intent-level plan; the template builder adapts intents to the live theme schemas",
	}
	return plan
}

// compileSection builds the intent variant for one section, routing overly
// complex low-confidence sections through the custom-markup escape valve.
func (c *Compiler) compileSection(sec *models.Section, p *models.Passport) (models.Archetype, models.Intent) {
	if tooComplexForNative(sec) {
		return models.ArchetypeCustomMarkup, buildCustomMarkup(sec)
	}

	switch sec.Type {
	case models.SectionHeroBanner:
		return models.ArchetypeImageBanner, buildHero(sec, p)
	case models.SectionFeaturesGrid:
		return models.ArchetypeMulticolumn, buildFeatures(sec)
	case models.SectionGallery, models.SectionSlideshow:
		return models.ArchetypeSlideshow, buildSlideshow(sec)
	case models.SectionFAQ:
		return models.ArchetypeCollapsible, buildFAQ(sec)
	case models.SectionReviews:
		return models.ArchetypeRichText, buildReviews(sec)
	default:
		return models.ArchetypeRichText, buildRichText(sec, p)
	}
}

func tooComplexForNative(sec *models.Section) bool {
	// Header/footer never reach here, and hero sections are structurally
	// forgiving enough that the native banner is always preferred.
	if sec.Type == models.SectionHeroBanner {
		return false
	}
	return sec.Confidence < customMarkupMaxConfidence && sec.Features.NodeCount >= customMarkupMinNodes
}
