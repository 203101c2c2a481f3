package booth

import (
	"boothlist-backend/lib/htmlutil"
	"boothlist-backend/lib/textutil"
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// each field below follows an explicit priority chain: machine
// readable structured data first, dom heuristics last, first
// non-empty result wins. every picker is total, malformed markup
// yields an absent field, never a failure.

const descriptionLimit = 200

// ExtractMetadata parses a fetched item page into a typed record.
func ExtractMetadata(ctx context.Context, html []byte, itemID int, resolvedURL string) ItemMetadata {
	m := newMetadata(itemID, time.Now())

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return m
	}

	og := parseOgTags(doc)
	ld := parseJsonLD(doc)
	base, _ := url.Parse(resolvedURL)

	m.Name = pickName(doc, og)
	m.ShopName = pickShopName(doc, og)
	m.CreatorID = pickCreatorID(doc, base)
	m.Price = pickPrice(doc, og, ld)
	m.ImageURL = pickImage(doc, og, base)
	m.DescriptionExcerpt = pickDescription(doc, og)
	m.Files = pickFiles(doc)
	m.RelatedItemIDs = pickRelatedIDs(ctx, doc)
	m.PageUpdatedAt = pickUpdatedAt(ld)

	return m
}

func parseOgTags(doc *goquery.Document) map[string]string {
	og := map[string]string{}
	doc.Find("meta").Each(func(_ int, meta *goquery.Selection) {
		property := meta.AttrOr("property", "")
		content := meta.AttrOr("content", "")
		if strings.HasPrefix(property, "og:") && content != "" {
			og[property[3:]] = content
		}
	})
	return og
}

// parseJsonLD returns the first json-ld object on the page that
// declares a @type, unwrapping a top-level array if needed.
func parseJsonLD(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var data any
		err := json.Unmarshal([]byte(script.Text()), &data)
		if err != nil {
			return true
		}
		switch v := data.(type) {
		case map[string]any:
			if _, ok := v["@type"]; ok {
				found = v
				return false
			}
		case []any:
			if len(v) > 0 {
				if first, ok := v[0].(map[string]any); ok {
					found = first
					return false
				}
			}
		}
		return true
	})
	return found
}

var nameSelectors = []string{
	"h1.item-name",
	"h1.u-tpg-title1",
	`h1[itemprop="name"]`,
	".item-name h1",
	".item-header h1",
	`h1[data-tracking-label="item_name"]`,
}

func pickName(doc *goquery.Document, og map[string]string) string {
	if title := strings.TrimSpace(og["title"]); title != "" {
		return title
	}
	for _, selector := range nameSelectors {
		name := strings.TrimSpace(doc.Find(selector).First().Text())
		if name != "" {
			return name
		}
	}
	return ""
}

var shopSelectors = []string{
	"a.shop-name",
	"div.u-text-ellipsis > a",
	`a[itemprop="author"]`,
	".shop-name",
	".booth-user-name a",
	".user-name a",
}

func pickShopName(doc *goquery.Document, og map[string]string) string {
	for _, selector := range shopSelectors {
		name := strings.TrimSpace(doc.Find(selector).First().Text())
		if name != "" {
			return name
		}
	}
	return og["site_name"]
}

var subdomainPattern = regexp.MustCompile(`https://([^.]+)\.booth\.pm`)
var shopPathPattern = regexp.MustCompile(`/shop/([^/?]+)`)

// the creator's storefront is usually a subdomain, so the id can be
// read off shop links in the page or off the resolved url itself.
func pickCreatorID(doc *goquery.Document, resolved *url.URL) string {
	for _, selector := range shopSelectors {
		href := doc.Find(selector).First().AttrOr("href", "")
		if href == "" {
			continue
		}
		if match := subdomainPattern.FindStringSubmatch(href); match != nil {
			return match[1]
		}
		if match := shopPathPattern.FindStringSubmatch(href); match != nil {
			return match[1]
		}
	}

	if resolved != nil && strings.HasSuffix(resolved.Hostname(), ".booth.pm") {
		subdomain := strings.SplitN(resolved.Hostname(), ".", 2)[0]
		if subdomain != "booth" && subdomain != "www" {
			return subdomain
		}
	}
	return ""
}

var yenPricePattern = regexp.MustCompile(`¥\s*([\d,]+)`)
var numericPattern = regexp.MustCompile(`[\d,]+`)

// markers that make a literal zero mean "this item is free". a bare
// zero without one is "no price found", never silently coerced.
var freeMarkerPattern = regexp.MustCompile(`(?i)無料|フリー|0円|free`)

var priceSelectors = []string{
	"div.price",
	`span[itemprop="price"]`,
	".price .yen",
	".item-price .yen",
	".current-price .yen",
	".price-tag .yen",
}

var freeDetectionSelectors = []string{
	".item-description",
	".item-detail",
	".item-header",
}

func pickPrice(doc *goquery.Document, og map[string]string, ld map[string]any) *int {
	if price := priceFromJsonLD(ld); price != nil {
		return price
	}

	if ogPrice := og["price:amount"]; ogPrice != "" {
		if price := parsePriceText(ogPrice, numericPattern); price != nil {
			return price
		}
	}

	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price := parsePriceText(text, yenPricePattern); price != nil {
			return price
		}
	}

	// last resort: any short element mentioning the currency symbol
	var scanned *int
	doc.Find("div,span,p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 50 || !strings.Contains(text, "¥") {
			return true
		}
		if price := parsePriceText(text, yenPricePattern); price != nil {
			scanned = price
			return false
		}
		return true
	})
	if scanned != nil {
		return scanned
	}

	// explicit free marker in the description area with no price tag
	// anywhere counts as free
	for _, selector := range freeDetectionSelectors {
		text := doc.Find(selector).First().Text()
		if text != "" && freeMarkerPattern.MatchString(text) {
			zero := 0
			return &zero
		}
	}

	return nil
}

func priceFromJsonLD(ld map[string]any) *int {
	if ld == nil {
		return nil
	}
	switch offers := ld["offers"].(type) {
	case map[string]any:
		if price := structuredPrice(offers["price"]); price != nil {
			return price
		}
		// price ranges expose the low bound
		return structuredPrice(offers["lowPrice"])
	case []any:
		if len(offers) > 0 {
			if first, ok := offers[0].(map[string]any); ok {
				return structuredPrice(first["price"])
			}
		}
	}
	return nil
}

// structuredPrice accepts json numbers and numeric strings. a
// structured zero carries no free marker, so it falls through the
// chain like any other absent price.
func structuredPrice(value any) *int {
	var parsed float64
	switch v := value.(type) {
	case float64:
		parsed = v
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return nil
		}
		parsed = f
	default:
		return nil
	}
	if parsed <= 0 {
		return nil
	}
	price := int(parsed)
	return &price
}

func parsePriceText(text string, pattern *regexp.Regexp) *int {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	digits := match[len(match)-1]
	value, err := strconv.Atoi(strings.ReplaceAll(digits, ",", ""))
	if err != nil {
		return nil
	}
	if value == 0 {
		if freeMarkerPattern.MatchString(text) {
			return &value
		}
		return nil
	}
	return &value
}

var resizeSegmentPattern = regexp.MustCompile(`/c/\d+x\d+/`)

// NormalizeImageURL strips resize/transform path segments so the same
// logical image reached through different sizing paths stores as one
// canonical url.
func NormalizeImageURL(imageURL string) string {
	return resizeSegmentPattern.ReplaceAllString(imageURL, "/")
}

var imageSelectors = []string{
	"img.market-item-detail-image",
	"div.item-image img",
	"div.main-image img",
	".image-container img",
	`img[itemprop="image"]`,
	".item-detail img",
	"main img",
}

func pickImage(doc *goquery.Document, og map[string]string, base *url.URL) string {
	if ogImage := og["image"]; ogImage != "" {
		return NormalizeImageURL(resolveURL(base, ogImage))
	}

	for _, selector := range imageSelectors {
		img := doc.Find(selector).First()
		if img.Length() == 0 {
			continue
		}
		src := img.AttrOr("data-original", "")
		if src == "" {
			src = img.AttrOr("src", "")
		}
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src != "" {
			return NormalizeImageURL(resolveURL(base, src))
		}
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

var descriptionSelectors = []string{
	".item-description .markdown",
	".item-description",
	".description .markdown",
	".item-detail-description",
	".booth-description",
	".item-body",
}

func pickDescription(doc *goquery.Document, og map[string]string) string {
	if desc := strings.TrimSpace(og["description"]); desc != "" {
		return textutil.Excerpt(textutil.CollapseWhitespace(desc), descriptionLimit)
	}

	for _, selector := range descriptionSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		clone := sel.Clone()
		clone.Find("script,style").Remove()
		text := textutil.CollapseWhitespace(clone.Text())
		if text != "" {
			return textutil.Excerpt(text, descriptionLimit)
		}
	}
	return ""
}

var fileSelectors = []string{
	".download-list .file-name",
	".file-list .file-name",
	".attachment-list .file-name",
	".download-item .filename",
	".file-item .name",
}

// filenames are only exposed on some pages, an empty list is the norm.
func pickFiles(doc *goquery.Document) []string {
	files := []string{}
	for _, selector := range fileSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			filename := strings.TrimSpace(sel.Text())
			if filename != "" {
				files = append(files, filename)
			}
		})
	}
	return files
}

var relatedContentSelectors = []string{
	".item-description",
	".item-detail-description",
	".booth-description",
	".item-body",
	".markdown",
	".related-items",
}

var relatedIDPattern = regexp.MustCompile(`items/(\d+)`)

// pickRelatedIDs scans description-like blocks (both their text and
// their link targets) for id-shaped substrings within the valid id
// range. one list, insertion order, deduplicated.
func pickRelatedIDs(ctx context.Context, doc *goquery.Document) []int {
	ids := []int{}
	seen := map[int]bool{}

	collect := func(text string) {
		for _, match := range relatedIDPattern.FindAllStringSubmatch(text, -1) {
			id, err := strconv.Atoi(match[1])
			if err != nil || !ValidID(id) || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, selector := range relatedContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		collect(sel.Text())
		for _, anchor := range htmlutil.GetAnchors(ctx, sel.Find("a")) {
			collect(anchor.Href)
		}
	}
	return ids
}

func pickUpdatedAt(ld map[string]any) string {
	if ld == nil {
		return ""
	}
	if modified, ok := ld["dateModified"].(string); ok && modified != "" {
		return modified
	}
	if published, ok := ld["datePublished"].(string); ok && published != "" {
		return published
	}
	return ""
}
