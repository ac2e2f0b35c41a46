// Package pipeline wires the stages together: render, segment, classify,
// register assets, fingerprint, page info, then plan compilation. Data
// flows strictly downstream; no stage reaches back into an earlier one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopmorph/shopmorph/assets"
	"github.com/shopmorph/shopmorph/classifier"
	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/fingerprint"
	"github.com/shopmorph/shopmorph/llm"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/pageinfo"
	"github.com/shopmorph/shopmorph/planner"
	"github.com/shopmorph/shopmorph/renderer"
	"github.com/shopmorph/shopmorph/segmenter"
	"github.com/shopmorph/shopmorph/workspace"
)

// fingerprintRoles are the usage roles worth the screenshot cost.
var fingerprintRoles = map[models.AssetRole]bool{
	models.RoleHeroBg:  true,
	models.RoleIcon:    true,
	models.RoleGallery: true,
}

// Pipeline runs donor page captures end to end.
type Pipeline struct {
	cfg      *config.Config
	renderer *renderer.Renderer
	seg      *segmenter.Segmenter
	pageInfo *pageinfo.Extractor
	ws       *workspace.Workspace
	compiler *planner.Compiler
	vision   *llm.Client // nil when the capability is not configured
}

// New assembles a pipeline. The renderer owns the shared browser; call
// Close when done.
func New(cfg *config.Config) (*Pipeline, error) {
	r, err := renderer.New(cfg.Browser, cfg.Capture)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.New(cfg.Workspace.Dir)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		renderer: r,
		seg:      segmenter.New(cfg.Capture),
		pageInfo: pageinfo.New(),
		ws:       ws,
		compiler: planner.New(),
		vision:   llm.NewClient(cfg.LLM),
	}, nil
}

// NewPlanOnly assembles a pipeline without a browser. It can compile plans
// from persisted or inline passports; Capture is unavailable.
func NewPlanOnly(cfg *config.Config) (*Pipeline, error) {
	ws, err := workspace.New(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		ws:       ws,
		compiler: planner.New(),
		vision:   llm.NewClient(cfg.LLM),
	}, nil
}

// Close releases the browser, if one was launched.
func (p *Pipeline) Close() {
	if p.renderer != nil {
		p.renderer.Close()
	}
}

// Workspace exposes the artifact store for callers that serve or inspect
// persisted documents.
func (p *Pipeline) Workspace() *workspace.Workspace { return p.ws }

// Capture runs the full extraction for one donor URL and persists the
// passport. A page that yields zero sections is a failure, not an empty
// success; the partial passport is persisted first either way.
func (p *Pipeline) Capture(ctx context.Context, pageURL string) (*models.Passport, error) {
	start := time.Now()

	if p.renderer == nil {
		return nil, models.NewPipelineError(models.ErrCodeInternal,
			"capture requires a browser-backed pipeline", nil)
	}
	if _, err := p.ws.RunDir(pageURL); err != nil {
		return nil, err
	}

	session, err := p.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer session.Close()
	capt := session.Capture

	sections := p.seg.Segment(capt, pageURL)
	for _, sec := range sections {
		sec.Type, sec.Confidence = classifier.Classify(sec.Tag, sec.Features)
		sec.Policy = classifier.PolicyFor(sec.Type)
	}

	registry := assets.NewRegistry(p.cfg.Capture.IconMaxDim)
	for _, sec := range sections {
		registry.ProcessSection(sec, pageURL)
	}

	warnings := append([]string{}, capt.Warnings...)
	fpSections, fpAssets := p.fingerprint(ctx, session, sections, registry, pageURL, &warnings)

	info, tokens := p.pageInfo.Extract(capt.HTML, pageURL, capt.Title, capt.Lang, capt.Nodes)

	passport := &models.Passport{
		Version:      models.PassportVersion,
		URL:          pageURL,
		ScannedAt:    start.UTC(),
		Viewport:     capt.Viewport,
		DesignTokens: tokens,
		PageInfo:     info,
		Assets:       registry.Doc(),
		SectionTree: models.SectionTree{
			Root:     pageRoot(pageURL, capt),
			Children: sections,
		},
		Diagnostics: models.Diagnostics{
			TotalDigestNodes:       len(capt.Nodes),
			TotalSectionCandidates: len(capt.Candidates),
			EmittedSections:        len(sections),
			FingerprintedSections:  fpSections,
			FingerprintedAssets:    fpAssets,
			Warnings:               warnings,
		},
	}

	if len(capt.FullPNG) > 0 {
		if err := p.ws.SaveFullShot(pageURL, capt.FullPNG); err != nil {
			slog.Warn("full-page screenshot not persisted", "url", pageURL, "error", err)
		}
	}

	// Persist before judging emptiness so a failed run still leaves its
	// evidence on disk.
	if err := p.ws.SavePassport(passport); err != nil {
		return nil, err
	}

	if len(sections) == 0 {
		return passport, models.NewPipelineError(models.ErrCodeNoSections,
			fmt.Sprintf("no usable sections found at %s", pageURL), nil)
	}

	if errs := passport.Validate(); len(errs) > 0 {
		slog.Warn("passport validation findings", "url", pageURL, "findings", errs)
	}

	slog.Info("capture complete",
		"url", pageURL,
		"sections", len(sections),
		"assets", len(passport.Assets.Items),
		"duration", time.Since(start).Round(time.Millisecond))
	return passport, nil
}

// Plan loads the persisted passport for a URL, compiles it, optionally
// enriches custom-markup sections through the vision capability, and
// persists the result.
func (p *Pipeline) Plan(ctx context.Context, pageURL string) (*models.Plan, error) {
	passport, err := p.ws.LoadPassport(pageURL)
	if err != nil {
		return nil, err
	}
	return p.CompilePlan(ctx, passport)
}

// CompilePlan compiles an in-memory passport and persists the plan.
func (p *Pipeline) CompilePlan(ctx context.Context, passport *models.Passport) (*models.Plan, error) {
	plan := p.compiler.Compile(passport)
	plan.GeneratedAt = time.Now().UTC()

	if p.vision != nil {
		p.enrichCustomMarkup(ctx, plan, passport.URL)
	}

	if err := p.ws.SavePlan(passport.URL, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// CaptureAndPlan is the one-shot path the CLI and API use when no passport
// exists yet.
func (p *Pipeline) CaptureAndPlan(ctx context.Context, pageURL string) (*models.Passport, *models.Plan, error) {
	passport, err := p.Capture(ctx, pageURL)
	if err != nil {
		return passport, nil, err
	}
	plan, err := p.CompilePlan(ctx, passport)
	return passport, plan, err
}

// fingerprint crops and hashes sections and high-value asset usages within
// the configured budgets. Every failure is a warning; the passport fields
// stay nil and the run continues.
func (p *Pipeline) fingerprint(ctx context.Context, session *renderer.Session, sections []*models.Section, registry *assets.Registry, pageURL string, warnings *[]string) (fpSections, fpAssets int) {
	for _, sec := range sections {
		if fpSections >= p.cfg.Capture.MaxFingerprintSections {
			break
		}
		if ctx.Err() != nil {
			*warnings = append(*warnings, "fingerprinting canceled: "+ctx.Err().Error())
			return
		}
		png, err := session.CropPNG(sec.BBox)
		if err != nil {
			*warnings = append(*warnings, "section crop failed: "+sec.ID)
			continue
		}
		fp, err := fingerprint.FromPNG(png)
		if err != nil {
			*warnings = append(*warnings, "section fingerprint failed: "+sec.ID)
			continue
		}
		sec.Fingerprint = fp
		fpSections++
		if err := p.ws.SaveSectionShot(pageURL, sec.ID, png); err != nil {
			slog.Warn("section crop not persisted", "section", sec.ID, "error", err)
		}
	}

	items := registry.Items()
	for _, usage := range registry.Doc().Usages {
		if fpAssets >= p.cfg.Capture.MaxFingerprintAssets {
			break
		}
		if ctx.Err() != nil {
			*warnings = append(*warnings, "fingerprinting canceled: "+ctx.Err().Error())
			return
		}
		if !fingerprintRoles[usage.Role] {
			continue
		}
		asset := items[usage.AssetID]
		if asset == nil || asset.Fingerprint != nil {
			continue
		}
		png, err := session.CropPNG(usage.BBox)
		if err != nil {
			*warnings = append(*warnings, "asset crop failed: "+usage.AssetID)
			continue
		}
		fp, err := fingerprint.FromPNG(png)
		if err != nil {
			*warnings = append(*warnings, "asset fingerprint failed: "+usage.AssetID)
			continue
		}
		asset.Fingerprint = fp
		fpAssets++
	}
	return
}

// enrichCustomMarkup replaces synthesized custom-markup intents with
// model-generated renditions where a section crop is on disk. Best effort:
// any failure keeps the deterministic fallback.
func (p *Pipeline) enrichCustomMarkup(ctx context.Context, plan *models.Plan, pageURL string) {
	for i := range plan.Sections {
		ps := &plan.Sections[i]
		if ps.TargetArchetype != models.ArchetypeCustomMarkup {
			continue
		}
		png, err := os.ReadFile(p.ws.SectionShotPath(pageURL, ps.SourceSectionID))
		if err != nil {
			continue
		}
		hints := fmt.Sprintf("section type %s, confidence %.2f", ps.SourceType, ps.Confidence)
		html, css, err := p.vision.GenerateMarkup(ctx, png, hints)
		if err != nil {
			slog.Warn("markup generation failed, keeping fallback",
				"section", ps.SourceSectionID, "error", err)
			continue
		}
		ps.Intent = &models.CustomMarkupIntent{
			Kind: "custom_markup",
			HTML: planner.SanitizeMarkup(html),
			CSS:  css,
		}
	}
}

// pageRoot builds the synthetic page-level root section.
func pageRoot(pageURL string, capt *renderer.Capture) *models.Section {
	b := models.BBox{X: 0, Y: 0, W: capt.Viewport.Width, H: capt.PageHeight}
	return &models.Section{
		ID:         models.SectionID(pageURL, "page", b),
		Tag:        "body",
		DomPath:    "page",
		BBox:       b,
		Type:       models.SectionPage,
		Confidence: models.ConfidenceCeiling,
		Policy:     models.Policy{IncludeInClone: false, Reason: "synthetic root"},
		Assets:     []models.AssetUsage{},
	}
}
