package models

import "time"

// PassportVersion is the contract version of the persisted passport
// document. Field names and nesting below must be preserved for interop
// with the downstream template builder.
const PassportVersion = "5.0"

// Viewport records the browser viewport the page was rendered in.
type Viewport struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor"`
}

// DesignTokens is the sampled brand DNA of the donor page.
type DesignTokens struct {
	PrimaryButtonColor string `json:"primaryButtonColor,omitempty"`
	BackgroundColor    string `json:"backgroundColor,omitempty"`
	BodyFont           string `json:"bodyFont,omitempty"`
	HeadingFont        string `json:"headingFont,omitempty"`
}

// PageInfo is the page-level content summary (product pages carry a title,
// price and description; other pages degrade gracefully to title only).
type PageInfo struct {
	Title           string `json:"title,omitempty"`
	Lang            string `json:"lang,omitempty"`
	Price           string `json:"price,omitempty"`
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
	DescriptionMD   string `json:"descriptionMarkdown,omitempty"`
}

// AssetRegistryDoc is the persisted asset registry: deduplicated items
// keyed by asset ID plus the flat usage list.
type AssetRegistryDoc struct {
	Items  map[string]*Asset `json:"items"`
	Usages []AssetUsage      `json:"usages"`
}

// SectionTree is the ordered section list under a synthetic page root.
type SectionTree struct {
	Root     *Section   `json:"root"`
	Children []*Section `json:"children"`
}

// Diagnostics summarizes what the pipeline saw and any degradations it
// worked through. Callers must treat EmittedSections == 0 as a pipeline
// failure signal; an empty passport is never a silent success.
type Diagnostics struct {
	TotalDigestNodes       int      `json:"totalDigestNodes"`
	TotalSectionCandidates int      `json:"totalSectionCandidates"`
	EmittedSections        int      `json:"emittedSections"`
	FingerprintedSections  int      `json:"fingerprintedSections"`
	FingerprintedAssets    int      `json:"fingerprintedAssets"`
	Warnings               []string `json:"warnings,omitempty"`
	Notes                  []string `json:"notes,omitempty"`
}

// Passport is the full structured extraction of one donor page. It is the
// single source of truth for a run; the Plan is a derived, disposable view
// regenerable from it at any time.
type Passport struct {
	Version      string           `json:"version"`
	URL          string           `json:"url"`
	ScannedAt    time.Time        `json:"scannedAt"`
	Viewport     Viewport         `json:"viewport"`
	DesignTokens DesignTokens     `json:"designTokens"`
	PageInfo     PageInfo         `json:"pageInfo"`
	Assets       AssetRegistryDoc `json:"assets"`
	SectionTree  SectionTree      `json:"sectionTree"`
	Diagnostics  Diagnostics      `json:"diagnostics"`
}

// Validate applies the structural guardrails a consumer relies on.
func (p *Passport) Validate() []string {
	var errs []string
	if p.Version != PassportVersion {
		errs = append(errs, "version must be \""+PassportVersion+"\"")
	}
	if p.URL == "" {
		errs = append(errs, "url is required")
	}
	if p.Assets.Items == nil {
		errs = append(errs, "assets.items is required")
	}
	if p.Assets.Usages == nil {
		errs = append(errs, "assets.usages must be an array")
	}
	if p.SectionTree.Root == nil {
		errs = append(errs, "sectionTree.root is required")
	}
	for _, s := range p.SectionTree.Children {
		if s.Confidence < ConfidenceFloor || s.Confidence > ConfidenceCeiling {
			errs = append(errs, "section "+s.ID+" confidence out of range")
		}
	}
	return errs
}
