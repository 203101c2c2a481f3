package booth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const itemPageFixture = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="お出かけ衣装セット">
<meta property="og:site_name" content="すてきなお店">
<meta property="og:image" content="https://booth.pximg.net/c/1200x1200/12345/foo.jpg">
<meta property="og:description" content="桔梗・セレスティア対応のお出かけ衣装です。">
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "お出かけ衣装セット",
  "offers": {"@type": "Offer", "price": "1500", "priceCurrency": "JPY"},
  "dateModified": "2024-05-01T12:00:00+09:00"
}
</script>
</head>
<body>
<h1 class="item-name">お出かけ衣装セット</h1>
<a class="shop-name" href="https://shopname.booth.pm/">すてきなお店</a>
<div class="price">¥1,500</div>
<div class="item-description">
  桔梗・セレスティア対応のお出かけ衣装です。
  <a href="https://booth.pm/ja/items/1234567">アバター本体はこちら</a>
  関連: items/7654321 もどうぞ
</div>
<div class="download-list">
  <span class="file-name">Kikyo_Outfit_Set.zip</span>
  <span class="file-name">Selestia_Outfit_Set.zip</span>
</div>
</body>
</html>`

func TestExtractMetadataFullPage(t *testing.T) {
	m := ExtractMetadata(context.Background(), []byte(itemPageFixture), 4294967, "https://shopname.booth.pm/items/4294967")

	require.Empty(t, m.Error)
	require.Equal(t, 4294967, m.ItemID)
	require.Equal(t, "お出かけ衣装セット", m.Name)
	require.Equal(t, "すてきなお店", m.ShopName)
	require.Equal(t, "shopname", m.CreatorID)
	require.NotNil(t, m.Price)
	require.Equal(t, 1500, *m.Price)
	// the resize segment is stripped
	require.Equal(t, "https://booth.pximg.net/12345/foo.jpg", m.ImageURL)
	require.Contains(t, m.DescriptionExcerpt, "お出かけ衣装")
	require.Equal(t, []string{"Kikyo_Outfit_Set.zip", "Selestia_Outfit_Set.zip"}, m.Files)
	// description text is scanned before link targets
	require.Equal(t, []int{7654321, 1234567}, m.RelatedItemIDs)
	require.Equal(t, "2024-05-01T12:00:00+09:00", m.PageUpdatedAt)
}

func pricePage(priceHTML string) []byte {
	return []byte(fmt.Sprintf(`<html><body>
<h1 class="item-name">item</h1>
<div class="item-description">%s</div>
</body></html>`, priceHTML))
}

func TestExtractPriceFreeMarker(t *testing.T) {
	// an explicit free marker makes zero a real price
	m := ExtractMetadata(context.Background(), pricePage(`<div class="price">¥0（無料）</div>`), 1000000, "")
	require.NotNil(t, m.Price)
	require.Equal(t, 0, *m.Price)

	// a bare zero is ambiguous and stays absent
	m = ExtractMetadata(context.Background(), pricePage(`<div class="price">¥0</div>`), 1000000, "")
	require.Nil(t, m.Price)
}

func TestExtractPricePriorityChain(t *testing.T) {
	// json-ld wins over the dom price tag
	page := []byte(`<html><head>
<script type="application/ld+json">{"@type":"Product","offers":{"price":2000}}</script>
</head><body><div class="price">¥9,999</div></body></html>`)
	m := ExtractMetadata(context.Background(), page, 1000000, "")
	require.NotNil(t, m.Price)
	require.Equal(t, 2000, *m.Price)

	// generic scan picks up prices outside known selectors
	page = []byte(`<html><body><span>価格: ¥3,000</span></body></html>`)
	m = ExtractMetadata(context.Background(), page, 1000000, "")
	require.NotNil(t, m.Price)
	require.Equal(t, 3000, *m.Price)
}

func TestExtractCreatorIDFromResolvedURL(t *testing.T) {
	page := []byte(`<html><body><h1 class="item-name">item</h1></body></html>`)

	m := ExtractMetadata(context.Background(), page, 1000000, "https://shopname.booth.pm/items/1000000")
	require.Equal(t, "shopname", m.CreatorID)

	// the bare marketplace host carries no creator
	m = ExtractMetadata(context.Background(), page, 1000000, "https://booth.pm/ja/items/1000000")
	require.Empty(t, m.CreatorID)
}

func TestNormalizeImageURL(t *testing.T) {
	require.Equal(t,
		"https://cdn.example/foo.jpg",
		NormalizeImageURL("https://cdn.example/c/1200x1200/foo.jpg"))
	require.Equal(t,
		"https://cdn.example/foo.jpg",
		NormalizeImageURL("https://cdn.example/foo.jpg"))
}

func TestExtractMetadataMalformedPage(t *testing.T) {
	m := ExtractMetadata(context.Background(), []byte("<<<<not html at all"), 1000000, "")
	require.Empty(t, m.Error)
	require.Equal(t, 1000000, m.ItemID)
	require.Equal(t, "/ja/items/1000000", m.CanonicalPath)
	require.Empty(t, m.Name)
}
