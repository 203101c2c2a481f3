// Package classify infers item taxonomy and target-avatar
// compatibility from the free text and filenames a marketplace page
// exposes. All passes are deterministic for the same input, the
// classifier keeps no state between items.
package classify

import "regexp"

// ItemType is the semantic taxonomy bucket for an item.
type ItemType string

const (
	TypeAvatar    ItemType = "avatar"
	TypeCostume   ItemType = "costume"
	TypeAccessory ItemType = "accessory"
	TypeTool      ItemType = "tool"
	TypeGimmick   ItemType = "gimmick"
	TypeWorld     ItemType = "world"
	TypeTexture   ItemType = "texture"
	TypeScenario  ItemType = "scenario"
	TypeBundle    ItemType = "bundle"
	TypeOther     ItemType = "other"
)

// AvatarRef points at one compatible base character model. Code is
// the stable canonical key, Name the display name.
type AvatarRef struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

type FileAsset struct {
	Filename string `json:"filename" yaml:"filename"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Item is the normalized output record handed to exporters.
type Item struct {
	ItemID             int         `json:"item_id" yaml:"item_id"`
	Type               ItemType    `json:"type" yaml:"type"`
	Name               string      `json:"name" yaml:"name"`
	ShopName           string      `json:"shop_name,omitempty" yaml:"shop_name,omitempty"`
	CreatorID          string      `json:"creator_id,omitempty" yaml:"creator_id,omitempty"`
	ImageURL           string      `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	URL                string      `json:"url,omitempty" yaml:"url,omitempty"`
	Price              *int        `json:"current_price,omitempty" yaml:"current_price,omitempty"`
	DescriptionExcerpt string      `json:"description_excerpt,omitempty" yaml:"description_excerpt,omitempty"`
	Files              []FileAsset `json:"files" yaml:"files"`
	Targets            []AvatarRef `json:"targets" yaml:"targets"`
	Tags               []string    `json:"tags" yaml:"tags"`
	UpdatedAt          string      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Variants           []Variant   `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// Variant is a synthesized, non-authoritative sub-record representing
// one avatar-specific slice of a multi-target set item. It has no
// identity in the source system: it is re-derived on every
// classification pass and its id doubles as the dedup key.
type Variant struct {
	VariantID    string      `json:"variant_id" yaml:"variant_id"`
	ParentItemID int         `json:"parent_item_id" yaml:"parent_item_id"`
	Name         string      `json:"name" yaml:"name"`
	Targets      []AvatarRef `json:"targets" yaml:"targets"`
	Files        []FileAsset `json:"files" yaml:"files"`
	Notes        string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Hints are the optional free-text clues the input side already knows
// about an item, used to supplement whatever the page exposed.
type Hints struct {
	Name      string
	Category  string
	Variation string
	Files     []string
	Notes     string
	URL       string
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[vV]er\.?(\d+(?:\.\d+)*)`),
	regexp.MustCompile(`[vV](\d+(?:\.\d+)+)`),
	regexp.MustCompile(`_(\d+\.\d+)(?:\.|_|$)`),
}

// NewFileAsset extracts an embedded version marker from the filename
// if one exists.
func NewFileAsset(filename string) FileAsset {
	for _, pattern := range versionPatterns {
		match := pattern.FindStringSubmatch(filename)
		if match != nil {
			return FileAsset{Filename: filename, Version: match[1]}
		}
	}
	return FileAsset{Filename: filename}
}
