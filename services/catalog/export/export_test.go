package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"boothlist-backend/services/catalog/classify"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func intPtr(v int) *int { return &v }

func sampleItems() []classify.Item {
	return []classify.Item{
		{
			ItemID:   4294967,
			Type:     classify.TypeCostume,
			Name:     "お出かけ衣装セット",
			ShopName: "shop-a",
			Price:    intPtr(1500),
			Targets: []classify.AvatarRef{
				{Code: "Selestia", Name: "セレスティア"},
				{Code: "Kikyo", Name: "桔梗"},
			},
			Variants: []classify.Variant{
				{VariantID: "4294967#variant:Selestia:selestia-edition", ParentItemID: 4294967,
					Targets: []classify.AvatarRef{{Code: "Selestia", Name: "セレスティア"}}},
				{VariantID: "4294967#variant:Kikyo:kikyo-edition", ParentItemID: 4294967,
					Targets: []classify.AvatarRef{{Code: "Kikyo", Name: "桔梗"}}},
			},
		},
		{
			ItemID:   1234567,
			Type:     classify.TypeAvatar,
			Name:     "セレスティア",
			ShopName: "shop-b",
			Price:    intPtr(6000),
			Targets:  []classify.AvatarRef{{Code: "Selestia", Name: "セレスティア"}},
		},
		{
			ItemID:   7654321,
			Type:     classify.TypeCostume,
			Name:     "free costume",
			ShopName: "shop-a",
			Price:    intPtr(0),
		},
	}
}

func TestBuildMetrics(t *testing.T) {
	m := BuildMetrics(sampleItems())

	require.Equal(t, 3, m.Summary.ItemsTotal)
	require.Equal(t, 2, m.Summary.VariantsTotal)
	require.Equal(t, 2, m.Summary.ShopsTotal)
	require.Equal(t, 2, m.Summary.AvatarsSupported)

	// the ¥0 item is excluded from price stats
	require.Equal(t, 2, m.Summary.PriceStats.PricedItems)
	require.Equal(t, 7500, m.Summary.PriceStats.TotalValue)
	require.Equal(t, 3750, m.Summary.PriceStats.AveragePrice)
	require.Equal(t, 1500, m.Summary.PriceStats.MinPrice)
	require.Equal(t, 6000, m.Summary.PriceStats.MaxPrice)

	require.Equal(t, []TypeCount{
		{Type: classify.TypeCostume, Count: 2},
		{Type: classify.TypeAvatar, Count: 1},
	}, m.Rankings.TypeDistribution)
	require.Equal(t, []ShopCount{
		{ShopName: "shop-a", Count: 2},
		{ShopName: "shop-b", Count: 1},
	}, m.Rankings.PopularShops)
	// Selestia: item target ×2 + variant target ×1, Kikyo: ×1 + ×1
	require.Equal(t, []AvatarCount{
		{AvatarCode: "Selestia", Count: 3},
		{AvatarCode: "Kikyo", Count: 2},
	}, m.Rankings.PopularAvatars)
}

func TestWriteCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "catalog.yml")

	items := sampleItems()
	require.NoError(t, WriteCatalog(context.Background(), items, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded catalogFile
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Items, 3)
	require.Equal(t, items[0].ItemID, decoded.Items[0].ItemID)
	require.Equal(t, items[0].Name, decoded.Items[0].Name)
	require.Equal(t, items[0].Variants[1].VariantID, decoded.Items[0].Variants[1].VariantID)
}

func TestWriteMetricsAndDashboard(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteMetrics(context.Background(), sampleItems(), filepath.Join(dir, "metrics.yml")))
	require.NoError(t, WriteDashboard(context.Background(), filepath.Join(dir, "index.html")))

	raw, err := os.ReadFile(filepath.Join(dir, "metrics.yml"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "items_total: 3")

	html, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "catalog.yml")
}
