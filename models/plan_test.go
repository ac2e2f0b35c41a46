package models

import (
	"encoding/json"
	"testing"
)

func TestIntentRoundTrip(t *testing.T) {
	intents := []Intent{
		&HeroIntent{Kind: "hero", Heading: "Big Lamp", CTALabel: "Buy", CTAHref: "/buy", HeroBgAssetID: "a_image_0011223344556677"},
		&FeaturesIntent{Kind: "features", Title: "Why us", Columns: 3, Items: []FeatureItem{
			{IconAssetID: "a_svg_aabbccddeeff0011", Title: "Fast", Order: 1},
		}},
		&SlideshowIntent{Kind: "slideshow", Slides: []Slide{{ImageAssetID: "a_image_1122334455667788", Order: 1}}},
		&FAQIntent{Kind: "faq", Title: "FAQ", Items: []FAQItem{{Question: "Ships when?", Answer: "Tomorrow."}}},
		&RichTextIntent{Kind: "rich_text", Heading: "About", HTML: "<p>hi</p>", Markdown: "hi"},
		&CustomMarkupIntent{Kind: "custom_markup", HTML: "<div>x</div>", CSS: ".x{}"},
	}

	for _, in := range intents {
		t.Run(in.IntentKind(), func(t *testing.T) {
			data, err := json.Marshal(in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			out, err := UnmarshalIntent(data)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out.IntentKind() != in.IntentKind() {
				t.Errorf("kind = %s, want %s", out.IntentKind(), in.IntentKind())
			}
			back, err := json.Marshal(out)
			if err != nil {
				t.Fatalf("remarshal: %v", err)
			}
			if string(back) != string(data) {
				t.Errorf("round trip drifted:\n in: %s\nout: %s", data, back)
			}
		})
	}
}

func TestUnmarshalIntentUnknownKind(t *testing.T) {
	if _, err := UnmarshalIntent([]byte(`{"kind":"marquee"}`)); err == nil {
		t.Error("unknown kind must fail")
	}
}

func TestFAQItemWireNames(t *testing.T) {
	data, err := json.Marshal(FAQItem{Question: "Q", Answer: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"q":"Q","a":"A"}` {
		t.Errorf("FAQ item wire form = %s, want short q/a keys", data)
	}
}

func TestPlanSectionUnmarshalDispatchesIntent(t *testing.T) {
	raw := `{
		"sourceSectionId": "s_abcdef012345",
		"sourceType": "faq",
		"confidence": 0.7,
		"targetArchetype": "collapsible-content",
		"intent": {"kind": "faq", "title": "FAQ", "items": [{"q": "?", "a": "!"}]},
		"assets": []
	}`
	var ps PlanSection
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	faq, ok := ps.Intent.(*FAQIntent)
	if !ok {
		t.Fatalf("intent type = %T, want *FAQIntent", ps.Intent)
	}
	if len(faq.Items) != 1 || faq.Items[0].Answer != "!" {
		t.Errorf("items not carried through: %+v", faq.Items)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	plan := &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanSource{URL: "https://shop.example.com", PassportVersion: PassportVersion},
		Sections: []PlanSection{
			{
				SourceSectionID: "s_abcdef012345",
				SourceType:      SectionHeroBanner,
				Confidence:      0.99,
				TargetArchetype: ArchetypeImageBanner,
				Intent:          &HeroIntent{Kind: "hero", Heading: "Hi"},
				Assets:          []AssetRef{{AssetID: "a_image_0011223344556677", Role: RoleHeroBg}},
			},
		},
		Diagnostics: PlanDiagnostics{IncludedSections: 1, ExcludedSections: 2},
	}

	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatal(err)
	}
	var out Plan
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.PlanVersion != PlanVersion {
		t.Errorf("planVersion = %s", out.PlanVersion)
	}
	hero, ok := out.Sections[0].Intent.(*HeroIntent)
	if !ok || hero.Heading != "Hi" {
		t.Errorf("hero intent not restored: %#v", out.Sections[0].Intent)
	}
}
