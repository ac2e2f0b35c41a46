package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlanVersion is the contract version of the persisted plan document.
const PlanVersion = "1.0"

// Archetype is a target rendering construct a section's intent compiles
// into. The names match the native template vocabulary of the downstream
// builder.
type Archetype string

const (
	ArchetypeImageBanner  Archetype = "image-banner"
	ArchetypeMulticolumn  Archetype = "multicolumn"
	ArchetypeRichText     Archetype = "rich-text"
	ArchetypeCollapsible  Archetype = "collapsible-content"
	ArchetypeSlideshow    Archetype = "slideshow"
	ArchetypeCustomMarkup Archetype = "custom-markup"
)

// Intent is the tagged union of renderer-agnostic build instructions, one
// variant per archetype, discriminated by the "kind" field on the wire.
type Intent interface {
	IntentKind() string
}

// HeroIntent describes a full-width banner with heading, supporting text,
// and an optional background asset.
type HeroIntent struct {
	Kind          string `json:"kind"` // "hero"
	Heading       string `json:"heading"`
	Text          string `json:"text,omitempty"`
	CTALabel      string `json:"ctaLabel,omitempty"`
	CTAHref       string `json:"ctaHref,omitempty"`
	HeroBgAssetID string `json:"heroBgAssetId,omitempty"`
}

func (HeroIntent) IntentKind() string { return "hero" }

// FeatureItem is one column of a features grid.
type FeatureItem struct {
	IconAssetID string `json:"iconAssetId,omitempty"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Order       int    `json:"order"`
}

// FeaturesIntent describes a multi-column icon/text grid.
type FeaturesIntent struct {
	Kind    string        `json:"kind"` // "features"
	Title   string        `json:"title"`
	Columns int           `json:"columns"`
	Items   []FeatureItem `json:"items"`
}

func (FeaturesIntent) IntentKind() string { return "features" }

// Slide is one ordered slide of a slideshow or gallery.
type Slide struct {
	ImageAssetID string `json:"imageAssetId"`
	Heading      string `json:"heading,omitempty"`
	Text         string `json:"text,omitempty"`
	Order        int    `json:"order"`
}

// SlideshowIntent describes an ordered image sequence.
type SlideshowIntent struct {
	Kind   string  `json:"kind"` // "slideshow"
	Title  string  `json:"title,omitempty"`
	Slides []Slide `json:"slides"`
}

func (SlideshowIntent) IntentKind() string { return "slideshow" }

// FAQItem is one question/answer pair.
type FAQItem struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// FAQIntent describes a collapsible question/answer list. Items may be
// empty; the builder supports empty FAQ blocks to be enriched later.
type FAQIntent struct {
	Kind  string    `json:"kind"` // "faq"
	Title string    `json:"title"`
	Items []FAQItem `json:"items"`
}

func (FAQIntent) IntentKind() string { return "faq" }

// RichTextIntent describes a heading plus free-form body content.
type RichTextIntent struct {
	Kind     string `json:"kind"` // "rich_text"
	Heading  string `json:"heading,omitempty"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown,omitempty"`
}

func (RichTextIntent) IntentKind() string { return "rich_text" }

// CustomMarkupIntent is the escape valve for sections too complex for a
// native structural match. It is a fallback, not a failure.
type CustomMarkupIntent struct {
	Kind string `json:"kind"` // "custom_markup"
	HTML string `json:"html"`
	CSS  string `json:"css,omitempty"`
}

func (CustomMarkupIntent) IntentKind() string { return "custom_markup" }

// UnmarshalIntent decodes an intent object by its "kind" discriminator.
func UnmarshalIntent(data []byte) (Intent, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("intent: %w", err)
	}
	switch probe.Kind {
	case "hero":
		var v HeroIntent
		return &v, json.Unmarshal(data, &v)
	case "features":
		var v FeaturesIntent
		return &v, json.Unmarshal(data, &v)
	case "slideshow":
		var v SlideshowIntent
		return &v, json.Unmarshal(data, &v)
	case "faq":
		var v FAQIntent
		return &v, json.Unmarshal(data, &v)
	case "rich_text":
		var v RichTextIntent
		return &v, json.Unmarshal(data, &v)
	case "custom_markup":
		var v CustomMarkupIntent
		return &v, json.Unmarshal(data, &v)
	default:
		return nil, fmt.Errorf("intent: unknown kind %q", probe.Kind)
	}
}

// AssetRef is the (assetId, role) pair a plan section carries for upload
// resolution.
type AssetRef struct {
	AssetID string    `json:"assetId"`
	Role    AssetRole `json:"role"`
}

// PlanSection is one compiled section of the plan.
type PlanSection struct {
	SourceSectionID string      `json:"sourceSectionId"`
	SourceType      SectionType `json:"sourceType"`
	Confidence      float64     `json:"confidence"`
	TargetArchetype Archetype   `json:"targetArchetype"`
	Intent          Intent      `json:"intent"`
	Assets          []AssetRef  `json:"assets"`
}

// UnmarshalJSON dispatches the intent field through the tagged union.
func (ps *PlanSection) UnmarshalJSON(data []byte) error {
	type alias PlanSection
	aux := struct {
		Intent json.RawMessage `json:"intent"`
		*alias
	}{alias: (*alias)(ps)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Intent) > 0 {
		intent, err := UnmarshalIntent(aux.Intent)
		if err != nil {
			return err
		}
		ps.Intent = intent
	}
	return nil
}

// PlanSource identifies the passport a plan was derived from.
type PlanSource struct {
	URL             string `json:"url"`
	PassportVersion string `json:"passportVersion"`
}

// PlanDiagnostics summarizes compilation decisions.
type PlanDiagnostics struct {
	IncludedSections int      `json:"includedSections"`
	ExcludedSections int      `json:"excludedSections"`
	Notes            []string `json:"notes,omitempty"`
}

// Plan is the compiled, target-agnostic rendering intent derived from a
// passport. It is disposable: regenerable from the passport at any time.
type Plan struct {
	PlanVersion string          `json:"planVersion"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Source      PlanSource      `json:"source"`
	Sections    []PlanSection   `json:"sections"`
	Diagnostics PlanDiagnostics `json:"diagnostics"`
}
