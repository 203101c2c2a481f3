package booth

import (
	"fmt"
	"regexp"
	"strconv"
)

// the closed interval of ids the marketplace actually allocates.
// anything outside it is skipped without ever hitting the network.
const (
	MinItemID = 1_000_000
	MaxItemID = 99_999_999
)

func ValidID(id int) bool {
	return id >= MinItemID && id <= MaxItemID
}

func CanonicalPath(itemID int) string {
	return fmt.Sprintf("/ja/items/%d", itemID)
}

func ItemURL(itemID int) string {
	return "https://booth.pm" + CanonicalPath(itemID)
}

// ordered from most to least specific, the first capture group is the
// candidate id.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://booth\.pm/(?:ja/|en/)?items/(\d+)`),
	regexp.MustCompile(`(?i)https?://[\w-]+\.booth\.pm/items/(\d+)`),
	regexp.MustCompile(`(?i)booth\.pm/(?:ja/|en/)?items/(\d+)`),
	regexp.MustCompile(`(?i)items/(\d+)(?:[/?#]|$)`),
	regexp.MustCompile(`(?i)booth\.pm/(\d+)`),
	regexp.MustCompile(`(?i)/items/(\d+)`),
	regexp.MustCompile(`(?i)item[_-]?id[=:](\d+)`),
	regexp.MustCompile(`(?i)(?:item|product)[_-]?(\d+)`),
	regexp.MustCompile(`(\d{7,8})(?:[^\d]|$)`),
}

// ExtractItemID pulls an item id out of a url or free text. Returns 0
// when nothing id-shaped and in-range is found.
func ExtractItemID(text string) int {
	if text == "" {
		return 0
	}
	for _, pattern := range idPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil || !ValidID(id) {
			continue
		}
		return id
	}
	return 0
}

// ExtractItemIDs collects every in-range id mentioned anywhere in the
// text, deduplicated in first-seen order.
func ExtractItemIDs(text string) []int {
	if text == "" {
		return nil
	}
	var ids []int
	seen := map[int]bool{}
	for _, pattern := range idPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			id, err := strconv.Atoi(match[1])
			if err != nil || !ValidID(id) || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
