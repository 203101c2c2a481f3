package classify

import (
	"fmt"
	"regexp"
	"strings"

	"boothlist-backend/lib/scrapers/booth"

	"github.com/antzucaro/matchr"
)

// Classifier turns scraped listing metadata plus per-item hints into
// a normalized catalog record.
type Classifier struct {
	dict *Dictionary
}

func NewClassifier(dict *Dictionary) *Classifier {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Classifier{dict: dict}
}

func (c *Classifier) Dictionary() *Dictionary {
	return c.dict
}

// Classify builds the catalog record for one item. The scraped name
// wins over the curated hint, a synthetic placeholder covers items
// where neither side knows one.
func (c *Classifier) Classify(meta booth.ItemMetadata, hints Hints) Item {
	name := meta.Name
	if name == "" {
		name = hints.Name
	}
	if name == "" {
		name = fmt.Sprintf("Item %d", meta.ItemID)
	}

	files := make([]FileAsset, 0, len(meta.Files)+len(hints.Files))
	seen := map[string]bool{}
	for _, filename := range append(append([]string{}, meta.Files...), hints.Files...) {
		if filename == "" || seen[filename] {
			continue
		}
		seen[filename] = true
		files = append(files, NewFileAsset(filename))
	}

	corpus := c.corpus(name, meta, hints, files)
	folded := c.dict.Fold(corpus)

	itemType, fromCategory := categoryType(c.dict, hints.Category)
	if !fromCategory {
		itemType = classifyType(folded)
	}

	targets := c.extractTargets(corpus, files)
	if itemType == TypeAvatar && len(targets) == 0 {
		if ref, ok := c.autoAssign(name); ok {
			targets = []AvatarRef{ref}
		}
	}

	tags := keywordTags(folded)

	updatedAt := meta.PageUpdatedAt
	if updatedAt == "" {
		updatedAt = meta.ScrapedAt
	}

	item := Item{
		ItemID:             meta.ItemID,
		Type:               itemType,
		Name:               name,
		ShopName:           meta.ShopName,
		CreatorID:          meta.CreatorID,
		ImageURL:           meta.ImageURL,
		URL:                hints.URL,
		Price:              meta.Price,
		DescriptionExcerpt: meta.DescriptionExcerpt,
		Files:              files,
		Targets:            targets,
		Tags:               tags,
		UpdatedAt:          updatedAt,
	}
	item.Variants = c.buildVariants(item, corpus, hints)
	return item
}

// corpus joins every text field that may carry type or target signal.
// The scraped name is skipped when it already is the item name so
// name keywords score once.
func (c *Classifier) corpus(name string, meta booth.ItemMetadata, hints Hints, files []FileAsset) string {
	parts := []string{name}
	if meta.Name != name {
		parts = append(parts, meta.Name)
	}
	parts = append(parts, meta.DescriptionExcerpt, hints.Category, hints.Variation, hints.Notes)
	for _, f := range files {
		parts = append(parts, f.Filename)
	}
	return strings.Join(parts, "\n")
}

var targetPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`対応アバター[:：]\s*([^。\n]+)`),
	regexp.MustCompile(`(?i)compatible\s+with[:：]?\s*([^.。\n]+)`),
	regexp.MustCompile(`([^\s、。,.!?！？:：「」『』【】()（）]{1,30}?)(?:ちゃん|くん|さん)?(?:対応|用|向け)`),
}

var bracketedSpanRegex = regexp.MustCompile(`[「『【(（]([^」』】)）]{1,30})[」』】)）]`)

var targetSplitRegex = regexp.MustCompile(`[、,/・･&＆\s]+|and\s`)

// extractTargets unions avatar mentions from compatibility phrases,
// bracketed name mentions and file name conventions, emitted in
// dictionary declaration order. Every source contributes, a hit in
// one never suppresses the others.
func (c *Classifier) extractTargets(corpus string, files []FileAsset) []AvatarRef {
	hit := map[string]bool{}

	for _, pattern := range targetPhrasePatterns {
		for _, m := range pattern.FindAllStringSubmatch(corpus, -1) {
			for _, token := range targetSplitRegex.Split(m[1], -1) {
				if code, ok := c.dict.Normalize(token); ok {
					hit[code] = true
				}
			}
		}
	}

	// bracketed spans like 「セレスティア」 carry the avatar name even
	// without a compatibility phrase around them.
	for _, m := range bracketedSpanRegex.FindAllStringSubmatch(corpus, -1) {
		for _, token := range targetSplitRegex.Split(m[1], -1) {
			if code, ok := c.dict.Normalize(token); ok {
				hit[code] = true
			}
		}
	}

	// file name conventions: an avatar name segmented off by _ or -
	// at either end marks a per-avatar asset.
	for _, f := range files {
		for _, segment := range splitFilename(f.Filename) {
			if code, ok := c.dict.Normalize(segment); ok {
				hit[code] = true
			}
		}
	}

	var out []AvatarRef
	for _, avatar := range c.dict.Avatars() {
		if hit[avatar.Code] {
			out = append(out, AvatarRef{Code: avatar.Code, Name: avatar.Name})
		}
	}
	return out
}

var filenameSplitRegex = regexp.MustCompile(`[_\-.\s]+`)

func splitFilename(filename string) []string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return filenameSplitRegex.Split(base, -1)
}

// autoAssign resolves an avatar item onto its own dictionary entry by
// name, first by substring, then by Jaro-Winkler similarity so minor
// spelling drift (romanization, trailing version markers) still lands.
func (c *Classifier) autoAssign(name string) (AvatarRef, bool) {
	folded := c.dict.Fold(name)
	if folded == "" {
		return AvatarRef{}, false
	}
	for _, avatar := range c.dict.Avatars() {
		if strings.Contains(folded, c.dict.Fold(avatar.Name)) || strings.Contains(folded, c.dict.Fold(avatar.Code)) {
			return AvatarRef{Code: avatar.Code, Name: avatar.Name}, true
		}
	}

	best := -1
	bestScore := 0.0
	for i, avatar := range c.dict.Avatars() {
		score := matchr.JaroWinkler(folded, c.dict.Fold(avatar.Code), true)
		if jp := matchr.JaroWinkler(folded, c.dict.Fold(avatar.Name), true); jp > score {
			score = jp
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 || bestScore < 0.92 {
		return AvatarRef{}, false
	}
	return AvatarRef{Code: c.dict.avatars[best].Code, Name: c.dict.avatars[best].Name}, true
}

// tagRules give the record a small searchable facet set on top of the
// single type.
var tagRules = []struct {
	tag      string
	keywords []string
}{
	{"vrchat", []string{"vrchat", "vrc"}},
	{"quest", []string{"quest対応", "questcompatible"}},
	{"physbone", []string{"physbone", "physbones"}},
	{"modular-avatar", []string{"modularavatar", "モジュラーアバター"}},
	{"free", []string{"無料", "フリー配布"}},
}

func keywordTags(folded string) []string {
	var tags []string
	for _, rule := range tagRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(folded, keyword) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}
