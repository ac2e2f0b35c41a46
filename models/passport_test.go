package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSectionIDDeterministic(t *testing.T) {
	b := BBox{X: 0, Y: 120, W: 1440, H: 600}
	a := SectionID("https://shop.example.com", "body>main>section.hero", b)
	c := SectionID("https://shop.example.com", "body>main>section.hero", b)
	if a != c {
		t.Errorf("IDs differ for identical input: %s vs %s", a, c)
	}
	if !strings.HasPrefix(a, "s_") || len(a) != 14 {
		t.Errorf("ID %q must be s_ plus 12 hex chars", a)
	}

	moved := SectionID("https://shop.example.com", "body>main>section.hero", BBox{X: 0, Y: 121, W: 1440, H: 600})
	if moved == a {
		t.Error("a moved box must change the ID")
	}
}

func TestAssetIDDeterministic(t *testing.T) {
	a := AssetID(AssetImage, "https://cdn.example.com/img.png")
	b := AssetID(AssetImage, "https://cdn.example.com/img.png")
	if a != b {
		t.Errorf("IDs differ: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "a_image_") || len(a) != len("a_image_")+16 {
		t.Errorf("ID %q must be a_image_ plus 16 hex chars", a)
	}
	if AssetID(AssetSVG, "https://cdn.example.com/img.png") == a {
		t.Error("kind must participate in the ID")
	}
}

func validPassport() *Passport {
	return &Passport{
		Version:   PassportVersion,
		URL:       "https://shop.example.com/products/mug",
		ScannedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Viewport:  Viewport{Width: 1440, Height: 900, DeviceScaleFactor: 1},
		Assets:    AssetRegistryDoc{Items: map[string]*Asset{}, Usages: []AssetUsage{}},
		SectionTree: SectionTree{
			Root: &Section{ID: "s_000000000000", Type: SectionPage},
			Children: []*Section{
				{ID: "s_abcdef012345", Type: SectionHeroBanner, Confidence: 0.8,
					Policy: Policy{IncludeInClone: true}},
			},
		},
	}
}

func TestPassportValidate(t *testing.T) {
	if errs := validPassport().Validate(); len(errs) != 0 {
		t.Fatalf("valid passport rejected: %v", errs)
	}

	t.Run("wrong version", func(t *testing.T) {
		p := validPassport()
		p.Version = "4.0"
		if errs := p.Validate(); len(errs) == 0 {
			t.Error("stale version must be flagged")
		}
	})

	t.Run("missing root", func(t *testing.T) {
		p := validPassport()
		p.SectionTree.Root = nil
		if errs := p.Validate(); len(errs) == 0 {
			t.Error("missing root must be flagged")
		}
	})

	t.Run("confidence out of range", func(t *testing.T) {
		p := validPassport()
		p.SectionTree.Children[0].Confidence = 1.5
		if errs := p.Validate(); len(errs) == 0 {
			t.Error("out-of-range confidence must be flagged")
		}
	})

	t.Run("nil asset maps", func(t *testing.T) {
		p := validPassport()
		p.Assets = AssetRegistryDoc{}
		if errs := p.Validate(); len(errs) == 0 {
			t.Error("nil assets containers must be flagged")
		}
	})
}

func TestPassportJSONContract(t *testing.T) {
	data, err := json.Marshal(validPassport())
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		`"version"`, `"url"`, `"scannedAt"`, `"viewport"`, `"designTokens"`,
		`"pageInfo"`, `"assets"`, `"sectionTree"`, `"diagnostics"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized passport missing %s", key)
		}
	}

	var out Passport
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.SectionTree.Children[0].Type != SectionHeroBanner {
		t.Errorf("child type = %s after round trip", out.SectionTree.Children[0].Type)
	}
	if !out.ScannedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("scannedAt drifted: %s", out.ScannedAt)
	}
}
