// Package assets deduplicates discovered media resources and assigns each
// usage site a semantic role. Assets are created on first encounter and
// never deleted within a run; the many AssetUsage → one Asset fan-out is
// the only fan-out the data model permits.
package assets

import (
	"strings"

	"github.com/shopmorph/shopmorph/models"
)

// Registry is the per-run asset store. It is not safe for concurrent use;
// the pipeline processes sections sequentially by contract.
type Registry struct {
	iconMaxDim int
	items      map[string]*models.Asset
	usages     []models.AssetUsage
}

// NewRegistry creates an empty registry. iconMaxDim is the max dimension
// below which an asset counts as icon-sized for role resolution.
func NewRegistry(iconMaxDim int) *Registry {
	return &Registry{
		iconMaxDim: iconMaxDim,
		items:      make(map[string]*models.Asset),
		usages:     []models.AssetUsage{},
	}
}

// ProcessSection walks a classified section's digest subset, registers
// every asset it finds, resolves a role per usage, and attaches the usage
// list to the section. Must run after classification: roles depend on the
// section type.
func (r *Registry) ProcessSection(sec *models.Section, pageURL string) {
	for i := range sec.Nodes {
		n := &sec.Nodes[i]
		if !n.HasAsset() {
			continue
		}

		key, source := r.dedupKey(n, pageURL)
		if key == "" {
			continue
		}
		kind := kindOf(n, key)

		asset, ok := r.items[models.AssetID(kind, key)]
		if !ok {
			asset = &models.Asset{
				ID:            models.AssetID(kind, key),
				Kind:          kind,
				SourceURL:     source,
				NormalizedURL: normalizedFor(kind, key),
				Width:         n.BBox.W,
				Height:        n.BBox.H,
				NoUpload:      IsDataURI(source),
			}
			r.items[asset.ID] = asset
		}

		isBackground := n.BgURL != "" && n.Tag != "img" && n.Tag != "video"
		usage := models.AssetUsage{
			AssetID:   asset.ID,
			SectionID: sec.ID,
			Role:      r.resolveRole(sec.Type, kind, n.BBox, isBackground),
			BBox:      n.BBox,
		}
		r.usages = append(r.usages, usage)
		sec.Assets = append(sec.Assets, usage)
	}
}

// Doc returns the persisted registry document.
func (r *Registry) Doc() models.AssetRegistryDoc {
	return models.AssetRegistryDoc{Items: r.items, Usages: r.usages}
}

// Items exposes the deduplicated asset map.
func (r *Registry) Items() map[string]*models.Asset {
	return r.items
}

// UploadEligible returns the assets that can be re-hosted: data-URI-backed
// entries are skipped (no stable source identity) but remain in Items for
// layout purposes.
func (r *Registry) UploadEligible() []*models.Asset {
	var out []*models.Asset
	for _, a := range r.items {
		if !a.NoUpload {
			out = append(out, a)
		}
	}
	return out
}

// resolveRole applies the fixed priority order:
//
//  1. any asset inside a header section        → logo
//  2. background/cover image in a hero_banner  → hero_bg
//  3. icon-sized in a features_grid, or any
//     icon-sized inline vector                 → icon
//  4. any asset in a gallery or slideshow      → gallery
//  5. background image elsewhere               → background
//  6. default                                  → illustration
//
// The order is the contract, edge cases included (a large logo placed in a
// non-header hero will resolve as hero_bg or illustration, accepted).
func (r *Registry) resolveRole(secType models.SectionType, kind models.AssetKind, b models.BBox, isBackground bool) models.AssetRole {
	small := b.MaxDim() <= r.iconMaxDim

	switch {
	case secType == models.SectionHeader:
		return models.RoleLogo
	case secType == models.SectionHeroBanner && isBackground:
		return models.RoleHeroBg
	case small && (secType == models.SectionFeaturesGrid || kind == models.AssetSVG):
		return models.RoleIcon
	case secType == models.SectionGallery || secType == models.SectionSlideshow:
		return models.RoleGallery
	case isBackground:
		return models.RoleBackground
	default:
		return models.RoleIllustration
	}
}

// dedupKey picks the normalized identity for one asset-bearing node:
// URL-backed assets normalize their URL; inline vectors hash their
// canonicalized markup.
func (r *Registry) dedupKey(n *models.DigestNode, pageURL string) (key, source string) {
	switch {
	case n.Tag == "svg" && n.SVGMarkup != "":
		return NormalizeSVG(n.SVGMarkup), ""
	case n.Src != "":
		return NormalizeURL(n.Src, pageURL), n.Src
	case n.BgURL != "":
		return NormalizeURL(n.BgURL, pageURL), n.BgURL
	default:
		return "", ""
	}
}

func normalizedFor(kind models.AssetKind, key string) string {
	// Inline vectors have no URL; their key is canonical markup, which is
	// already captured by the ID hash.
	if kind == models.AssetSVG && !strings.Contains(key, "://") {
		return ""
	}
	return key
}

// kindOf derives the asset kind from the node tag and the normalized dedup
// key. The key already has query and fragment stripped, so extension checks
// stay stable across ?v= cache-buster variants of the same resource.
func kindOf(n *models.DigestNode, key string) models.AssetKind {
	k := strings.ToLower(key)
	switch {
	case n.Tag == "video" || strings.HasSuffix(k, ".mp4") || strings.HasSuffix(k, ".webm"):
		return models.AssetVideo
	case n.Tag == "svg" || strings.HasSuffix(k, ".svg") || strings.HasPrefix(k, "data:image/svg"):
		return models.AssetSVG
	default:
		return models.AssetImage
	}
}
