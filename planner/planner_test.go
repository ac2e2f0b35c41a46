package planner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopmorph/shopmorph/models"
)

func heroSection() *models.Section {
	return &models.Section{
		ID:         "s_hero00000001",
		Type:       models.SectionHeroBanner,
		Confidence: 0.99,
		Policy:     models.Policy{IncludeInClone: true},
		Content:    models.Content{Heading: "Light up your room", Text: "Handmade lamps."},
		Assets: []models.AssetUsage{
			{AssetID: "a_image_0011223344556677", SectionID: "s_hero00000001", Role: models.RoleHeroBg},
		},
		Nodes: []models.DigestNode{
			{Tag: "h1", Text: "Light up your room"},
			{Tag: "a", Text: "Shop now", Href: "/collections/all"},
		},
	}
}

func testPassport(children ...*models.Section) *models.Passport {
	return &models.Passport{
		Version:  models.PassportVersion,
		URL:      "https://shop.example.com/products/lamp",
		PageInfo: models.PageInfo{Title: "Lamp", DescriptionHTML: "<p>A fine lamp.</p>", DescriptionMD: "A fine lamp."},
		SectionTree: models.SectionTree{
			Root:     &models.Section{ID: "s_page00000000", Type: models.SectionPage},
			Children: children,
		},
	}
}

func TestCompileSkipsExcludedSections(t *testing.T) {
	header := &models.Section{
		ID:     "s_head00000001",
		Type:   models.SectionHeader,
		Policy: models.Policy{IncludeInClone: false, Reason: "global chrome: header"},
	}
	footer := &models.Section{
		ID:     "s_foot00000001",
		Type:   models.SectionFooter,
		Policy: models.Policy{IncludeInClone: false, Reason: "global chrome: footer"},
	}

	plan := New().Compile(testPassport(header, heroSection(), footer))

	if len(plan.Sections) != 1 {
		t.Fatalf("got %d plan sections, want 1", len(plan.Sections))
	}
	if plan.Sections[0].SourceSectionID != "s_hero00000001" {
		t.Errorf("kept section = %s", plan.Sections[0].SourceSectionID)
	}
	if plan.Diagnostics.IncludedSections != 1 || plan.Diagnostics.ExcludedSections != 2 {
		t.Errorf("diagnostics = %+v", plan.Diagnostics)
	}
}

func TestCompileIdempotent(t *testing.T) {
	p := testPassport(heroSection())
	c := New()

	first, err := json.Marshal(c.Compile(p))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(c.Compile(p))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("plans differ across compilations:\n%s\n%s", first, second)
	}
}

func TestCompileHeroIntent(t *testing.T) {
	plan := New().Compile(testPassport(heroSection()))
	sec := plan.Sections[0]

	if sec.TargetArchetype != models.ArchetypeImageBanner {
		t.Errorf("archetype = %s, want image-banner", sec.TargetArchetype)
	}
	hero, ok := sec.Intent.(*models.HeroIntent)
	if !ok {
		t.Fatalf("intent type = %T", sec.Intent)
	}
	if hero.Heading != "Light up your room" {
		t.Errorf("heading = %q", hero.Heading)
	}
	if hero.CTALabel != "Shop now" || hero.CTAHref != "/collections/all" {
		t.Errorf("cta = %q %q", hero.CTALabel, hero.CTAHref)
	}
	if hero.HeroBgAssetID != "a_image_0011223344556677" {
		t.Errorf("heroBg = %q", hero.HeroBgAssetID)
	}
	if len(sec.Assets) != 1 || sec.Assets[0].Role != models.RoleHeroBg {
		t.Errorf("asset refs = %+v", sec.Assets)
	}
}

func TestCompileHeroFallsBackToPageTitle(t *testing.T) {
	sec := heroSection()
	sec.Content.Heading = ""
	sec.Nodes = nil

	plan := New().Compile(testPassport(sec))
	hero := plan.Sections[0].Intent.(*models.HeroIntent)
	if hero.Heading != "Lamp" {
		t.Errorf("heading = %q, want the page title fallback", hero.Heading)
	}
}

func TestCompileFAQPairs(t *testing.T) {
	faq := &models.Section{
		ID:         "s_faq000000001",
		Type:       models.SectionFAQ,
		Confidence: 0.7,
		Policy:     models.Policy{IncludeInClone: true},
		Content:    models.Content{Heading: "Questions"},
		Nodes: []models.DigestNode{
			{Tag: "details", Text: "Ships when? Within 2 days.", BBox: models.BBox{X: 0, Y: 0, W: 800, H: 80}},
			{Tag: "summary", Text: "Ships when?", BBox: models.BBox{X: 0, Y: 0, W: 800, H: 30}},
			{Tag: "details", Text: "Returns? 30 days, free.", BBox: models.BBox{X: 0, Y: 100, W: 800, H: 80}},
			{Tag: "summary", Text: "Returns?", BBox: models.BBox{X: 0, Y: 100, W: 800, H: 30}},
		},
	}

	plan := New().Compile(testPassport(faq))
	sec := plan.Sections[0]
	if sec.TargetArchetype != models.ArchetypeCollapsible {
		t.Fatalf("archetype = %s", sec.TargetArchetype)
	}
	intent := sec.Intent.(*models.FAQIntent)
	if intent.Title != "Questions" {
		t.Errorf("title = %q", intent.Title)
	}
	if len(intent.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(intent.Items))
	}
	if intent.Items[0].Question != "Ships when?" {
		t.Errorf("q[0] = %q", intent.Items[0].Question)
	}
	if intent.Items[0].Answer != "Within 2 days." {
		t.Errorf("a[0] = %q", intent.Items[0].Answer)
	}
}

func TestCompileFAQEmptyItemsAllowed(t *testing.T) {
	faq := &models.Section{
		ID:         "s_faq000000002",
		Type:       models.SectionFAQ,
		Confidence: 0.7,
		Policy:     models.Policy{IncludeInClone: true},
	}
	plan := New().Compile(testPassport(faq))
	intent := plan.Sections[0].Intent.(*models.FAQIntent)
	if intent.Items == nil {
		// Empty is fine; the wire shape still carries an items key via the
		// struct field, and downstream enrichment can fill it.
		t.Log("no FAQ items extracted, block kept for enrichment")
	}
	if intent.Title != "FAQ" {
		t.Errorf("title fallback = %q, want FAQ", intent.Title)
	}
}

func TestCompileArchetypeTable(t *testing.T) {
	tests := []struct {
		secType models.SectionType
		want    models.Archetype
	}{
		{models.SectionHeroBanner, models.ArchetypeImageBanner},
		{models.SectionFeaturesGrid, models.ArchetypeMulticolumn},
		{models.SectionGallery, models.ArchetypeSlideshow},
		{models.SectionSlideshow, models.ArchetypeSlideshow},
		{models.SectionFAQ, models.ArchetypeCollapsible},
		{models.SectionReviews, models.ArchetypeRichText},
		{models.SectionRichText, models.ArchetypeRichText},
		{models.SectionUnknown, models.ArchetypeRichText},
	}

	for _, tt := range tests {
		t.Run(string(tt.secType), func(t *testing.T) {
			sec := &models.Section{
				ID:         "s_abc000000001",
				Type:       tt.secType,
				Confidence: 0.9,
				Policy:     models.Policy{IncludeInClone: true},
			}
			plan := New().Compile(testPassport(sec))
			if got := plan.Sections[0].TargetArchetype; got != tt.want {
				t.Errorf("archetype = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompileCustomMarkupEscapeValve(t *testing.T) {
	dense := &models.Section{
		ID:         "s_dense0000001",
		Type:       models.SectionUnknown,
		Confidence: models.ConfidenceFloor,
		Policy:     models.Policy{IncludeInClone: true},
		Features:   models.Features{NodeCount: 80},
		Nodes: []models.DigestNode{
			{Tag: "h2", Text: "Complex widget"},
			{Tag: "p", Text: "Unmappable layout <script>alert(1)</script>"},
		},
	}

	plan := New().Compile(testPassport(dense))
	sec := plan.Sections[0]
	if sec.TargetArchetype != models.ArchetypeCustomMarkup {
		t.Fatalf("archetype = %s, want custom-markup", sec.TargetArchetype)
	}
	cm := sec.Intent.(*models.CustomMarkupIntent)
	if !strings.Contains(cm.HTML, "Complex widget") {
		t.Errorf("markup missing heading: %s", cm.HTML)
	}
	if strings.Contains(cm.HTML, "<script>") {
		t.Errorf("script survived sanitization: %s", cm.HTML)
	}
}

func TestCompileConfidentSectionsAvoidEscapeValve(t *testing.T) {
	sec := heroSection()
	sec.Features.NodeCount = 500 // density alone must not trigger the valve

	plan := New().Compile(testPassport(sec))
	if got := plan.Sections[0].TargetArchetype; got != models.ArchetypeImageBanner {
		t.Errorf("archetype = %s, want image-banner", got)
	}
}

func TestSanitizeMarkup(t *testing.T) {
	in := `<div class="cs-hero" onclick="evil()"><h2 style="color:red">Hi</h2><script>x()</script><iframe src="//evil"></iframe><p>ok</p></div>`
	out := SanitizeMarkup(in)

	for _, banned := range []string{"<script", "<iframe", "onclick"} {
		if strings.Contains(out, banned) {
			t.Errorf("%s survived sanitization: %s", banned, out)
		}
	}
	for _, kept := range []string{"cs-hero", "<h2", "<p>ok</p>"} {
		if !strings.Contains(out, kept) {
			t.Errorf("%s lost in sanitization: %s", kept, out)
		}
	}
}
