package booth

import "time"

// ItemMetadata is the result of one fetch attempt against an item
// page. Either the content fields or Error is meaningful, an empty
// Error is the success discriminant. A record with no content fields
// and no Error is still a success, it just means the page exposed
// nothing we could extract.
//
// The json tags define the on-disk cache entry shape, they must stay
// readable across schema changes (see migrateEntry).
type ItemMetadata struct {
	ItemID             int      `json:"item_id"`
	Name               string   `json:"name,omitempty"`
	ShopName           string   `json:"shop_name,omitempty"`
	CreatorID          string   `json:"creator_id,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	Price              *int     `json:"current_price,omitempty"`
	DescriptionExcerpt string   `json:"description_excerpt,omitempty"`
	CanonicalPath      string   `json:"canonical_path"`
	Files              []string `json:"files"`
	ScrapedAt          string   `json:"scraped_at"`
	PageUpdatedAt      string   `json:"page_updated_at,omitempty"`
	RelatedItemIDs     []int    `json:"related_item_ids"`
	Error              string   `json:"error,omitempty"`
}

func (m ItemMetadata) Ok() bool {
	return m.Error == ""
}

// ScrapedTime parses ScrapedAt, tolerating both RFC3339 and the
// zone-less timestamps older cache files carry. The zero time is
// returned for anything unparseable, which makes the entry look
// maximally stale.
func (m ItemMetadata) ScrapedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		t, err := time.Parse(layout, m.ScrapedAt)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func newMetadata(itemID int, now time.Time) ItemMetadata {
	return ItemMetadata{
		ItemID:         itemID,
		CanonicalPath:  CanonicalPath(itemID),
		Files:          []string{},
		RelatedItemIDs: []int{},
		ScrapedAt:      now.UTC().Format(time.RFC3339Nano),
	}
}

func errorMetadata(itemID int, now time.Time, message string) ItemMetadata {
	m := newMetadata(itemID, now)
	m.Error = message
	return m
}
