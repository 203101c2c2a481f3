// Package input loads raw purchase records from the local formats
// people actually keep them in (yaml, markdown link dumps, csv
// exports, a browser history database) and validates them down to a
// deduplicated id list with optional per-item hints.
package input

import (
	"boothlist-backend/lib/scrapers/booth"
	"boothlist-backend/lib/telemetry"

	"boothlist-backend/services/catalog/classify"
)

var tracer = telemetry.Tracer("boothlist.services.catalog.input")

// RawItem is one purchase record before any scraping or
// classification. ItemID is the only required field, everything else
// is a hint carried through to the classifier or exporters.
type RawItem struct {
	ItemID    int      `yaml:"id" json:"id"`
	Name      string   `yaml:"name,omitempty" json:"name,omitempty"`
	Author    string   `yaml:"author,omitempty" json:"author,omitempty"`
	Category  string   `yaml:"category,omitempty" json:"category,omitempty"`
	Variation string   `yaml:"variation,omitempty" json:"variation,omitempty"`
	Files     []string `yaml:"files,omitempty" json:"files,omitempty"`
	Notes     string   `yaml:"notes,omitempty" json:"notes,omitempty"`
	WishPrice *int     `yaml:"wish_price,omitempty" json:"wish_price,omitempty"`
	URL       string   `yaml:"url,omitempty" json:"url,omitempty"`
}

// Hints projects the record onto the clue set the classifier accepts.
func (r RawItem) Hints() classify.Hints {
	return classify.Hints{
		Name:      r.Name,
		Category:  r.Category,
		Variation: r.Variation,
		Files:     r.Files,
		Notes:     r.Notes,
		URL:       r.URL,
	}
}

func withURL(item RawItem) RawItem {
	if item.URL == "" {
		item.URL = booth.ItemURL(item.ItemID)
	}
	return item
}

// Dedup keeps the first record per item id, preserving order.
func Dedup(items []RawItem) []RawItem {
	seen := map[int]bool{}
	out := make([]RawItem, 0, len(items))
	for _, item := range items {
		if seen[item.ItemID] {
			continue
		}
		seen[item.ItemID] = true
		out = append(out, item)
	}
	return out
}

// Validate drops records whose id falls outside the marketplace's
// numeric id range and backfills missing urls. The dropped count is
// reported so callers can surface it, a bad record is never fatal.
func Validate(items []RawItem) (valid []RawItem, dropped int) {
	for _, item := range items {
		if !booth.ValidID(item.ItemID) {
			dropped++
			continue
		}
		valid = append(valid, withURL(item))
	}
	return valid, dropped
}
