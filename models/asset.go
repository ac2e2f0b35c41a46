package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// AssetKind classifies the media resource.
type AssetKind string

const (
	AssetImage AssetKind = "image" // raster images (png/jpg/webp/gif)
	AssetSVG   AssetKind = "svg"   // inline or external vector graphics
	AssetVideo AssetKind = "video"
)

// AssetRole is the semantic role of an asset at one usage site. The same
// asset can play different roles in different sections.
type AssetRole string

const (
	RoleHeroBg       AssetRole = "hero_bg"
	RoleIcon         AssetRole = "icon"
	RoleGallery      AssetRole = "gallery"
	RoleLogo         AssetRole = "logo"
	RoleBackground   AssetRole = "background"
	RoleIllustration AssetRole = "illustration"
)

// Asset is a deduplicated media resource. Created on first encounter,
// never deleted within a run.
type Asset struct {
	ID            string       `json:"id"`
	Kind          AssetKind    `json:"kind"`
	SourceURL     string       `json:"sourceUrl,omitempty"`
	NormalizedURL string       `json:"normalizedUrl,omitempty"`
	Width         int          `json:"width,omitempty"`
	Height        int          `json:"height,omitempty"`
	Fingerprint   *Fingerprint `json:"fingerprint,omitempty"`

	// NoUpload marks data-URI-embedded assets: they carry no stable source
	// identity, so they are excluded from upload-eligible output while still
	// counting for layout purposes.
	NoUpload bool `json:"noUpload,omitempty"`
}

// AssetUsage is one placement of an Asset inside a Section. It references
// the asset by ID; it never owns it. This many-to-one fan-out is the only
// fan-out the data model permits.
type AssetUsage struct {
	AssetID   string    `json:"assetId"`
	SectionID string    `json:"sectionId"`
	Role      AssetRole `json:"role"`
	BBox      BBox      `json:"bbox"`
}

// AssetID derives the stable asset identifier from the kind and the
// normalized dedup key. Identical inputs across runs yield identical IDs;
// collisions are only possible via the declared hash space (16 hex chars,
// birthday risk accepted).
func AssetID(kind AssetKind, dedupKey string) string {
	sum := sha1.Sum([]byte(dedupKey))
	return fmt.Sprintf("a_%s_%s", kind, hex.EncodeToString(sum[:])[:16])
}
