package classify

import (
	"fmt"
	"regexp"
	"strings"

	"boothlist-backend/lib/textutil"
)

var setKeywords = []string{"セット", "フルセット", "詰め合わせ", "パック", "バンドル", "コレクション", "set", "bundle", "pack", "collection"}

// isPotentialSet reports whether an item looks like it bundles
// several per-avatar or per-variation deliverables.
func (c *Classifier) isPotentialSet(item Item, folded string) bool {
	for _, keyword := range setKeywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	if len(item.Targets) > 1 {
		return true
	}
	return len(c.fileGroups(item)) > 1
}

// fileGroups buckets the item's files by the avatar their name
// resolves to. Files with no recognizable avatar segment stay out.
func (c *Classifier) fileGroups(item Item) map[string][]FileAsset {
	groups := map[string][]FileAsset{}
	for _, f := range item.Files {
		for _, segment := range splitFilename(f.Filename) {
			if code, ok := c.dict.Normalize(segment); ok {
				groups[code] = append(groups[code], f)
				break
			}
		}
	}
	return groups
}

// VariantID derives the stable child id. The parent id plus the
// avatar code plus a slug of the variant label survives re-runs
// unchanged, so exports diff cleanly.
func VariantID(parentItemID int, code string, label string) string {
	return fmt.Sprintf("%d#variant:%s:%s", parentItemID, code, textutil.Slug(label))
}

// buildVariants expands a set item into per-avatar children. Non-set
// items never get variants.
func (c *Classifier) buildVariants(item Item, corpus string, hints Hints) []Variant {
	folded := c.dict.Fold(corpus)
	if !c.isPotentialSet(item, folded) {
		return nil
	}

	groups := c.fileGroups(item)
	seen := map[string]bool{}
	var variants []Variant

	add := func(v Variant) {
		if seen[v.VariantID] {
			return
		}
		seen[v.VariantID] = true
		variants = append(variants, v)
	}

	// one child per target avatar, in dictionary order. Files whose
	// name resolves to the avatar travel with the child.
	for _, avatar := range c.dict.Avatars() {
		ref, covered := AvatarRef{Code: avatar.Code, Name: avatar.Name}, false
		for _, t := range item.Targets {
			if t.Code == avatar.Code {
				covered = true
			}
		}
		if _, grouped := groups[avatar.Code]; !covered && !grouped {
			continue
		}
		add(Variant{
			VariantID:    VariantID(item.ItemID, ref.Code, ref.Code+" edition"),
			ParentItemID: item.ItemID,
			Name:         fmt.Sprintf("%s (%s)", item.Name, ref.Name),
			Targets:      []AvatarRef{ref},
			Files:        groups[ref.Code],
		})
	}

	for _, v := range c.variantsFromText(item, hints) {
		add(v)
	}
	return variants
}

var variationLineRegex = regexp.MustCompile(`(?m)^\s*[・•\-*]\s*(.{1,60})$`)

// variantsFromText mines explicitly listed variations (a hint field
// or bulleted lines) that the file names did not surface.
func (c *Classifier) variantsFromText(item Item, hints Hints) []Variant {
	var names []string
	if hints.Variation != "" {
		for _, token := range targetSplitRegex.Split(hints.Variation, -1) {
			if token != "" {
				names = append(names, token)
			}
		}
	}
	for _, m := range variationLineRegex.FindAllStringSubmatch(hints.Notes, -1) {
		line := textutil.CollapseWhitespace(m[1])
		if line != "" {
			names = append(names, line)
		}
	}

	var out []Variant
	for _, name := range names {
		v := Variant{
			ParentItemID: item.ItemID,
			Name:         fmt.Sprintf("%s (%s)", item.Name, name),
			Notes:        name,
		}
		if code, ok := c.dict.Normalize(name); ok {
			ref, _ := c.dict.Ref(code)
			v.VariantID = VariantID(item.ItemID, code, code+" edition")
			v.Targets = []AvatarRef{ref}
		} else {
			v.VariantID = VariantID(item.ItemID, "var", name)
		}
		out = append(out, v)
	}
	return out
}
