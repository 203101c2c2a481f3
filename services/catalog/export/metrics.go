package export

import (
	"context"
	"log/slog"
	"sort"

	"boothlist-backend/services/catalog/classify"

	"go.opentelemetry.io/otel/codes"
)

type PriceStats struct {
	TotalValue   int `yaml:"total_value"`
	AveragePrice int `yaml:"average_price"`
	MedianPrice  int `yaml:"median_price"`
	MinPrice     int `yaml:"min_price"`
	MaxPrice     int `yaml:"max_price"`
	PricedItems  int `yaml:"priced_items"`
}

type Summary struct {
	ItemsTotal       int        `yaml:"items_total"`
	VariantsTotal    int        `yaml:"variants_total"`
	ShopsTotal       int        `yaml:"shops_total"`
	AvatarsSupported int        `yaml:"avatars_supported"`
	PriceStats       PriceStats `yaml:"price_stats"`
}

type TypeCount struct {
	Type  classify.ItemType `yaml:"type"`
	Count int               `yaml:"count"`
}

type ShopCount struct {
	ShopName string `yaml:"shop_name"`
	Count    int    `yaml:"count"`
}

type AvatarCount struct {
	AvatarCode string `yaml:"avatar_code"`
	Count      int    `yaml:"count"`
}

type Rankings struct {
	TypeDistribution []TypeCount   `yaml:"type_distribution"`
	PopularShops     []ShopCount   `yaml:"popular_shops"`
	PopularAvatars   []AvatarCount `yaml:"popular_avatars"`
}

type Metrics struct {
	Summary  Summary  `yaml:"summary"`
	Rankings Rankings `yaml:"rankings"`
}

// BuildMetrics aggregates the record list. All rankings break count
// ties lexically so repeated runs emit identical files.
func BuildMetrics(items []classify.Item) Metrics {
	typeCounts := map[classify.ItemType]int{}
	shopCounts := map[string]int{}
	avatarCounts := map[string]int{}
	variantsTotal := 0
	var prices []int

	for _, item := range items {
		typeCounts[item.Type]++
		if item.ShopName != "" {
			shopCounts[item.ShopName]++
		}
		for _, target := range item.Targets {
			avatarCounts[target.Code]++
		}
		for _, variant := range item.Variants {
			variantsTotal++
			for _, target := range variant.Targets {
				avatarCounts[target.Code]++
			}
		}
		if item.Price != nil && *item.Price > 0 {
			prices = append(prices, *item.Price)
		}
	}

	m := Metrics{
		Summary: Summary{
			ItemsTotal:       len(items),
			VariantsTotal:    variantsTotal,
			ShopsTotal:       len(shopCounts),
			AvatarsSupported: len(avatarCounts),
			PriceStats:       priceStats(prices),
		},
	}

	for t, count := range typeCounts {
		m.Rankings.TypeDistribution = append(m.Rankings.TypeDistribution, TypeCount{Type: t, Count: count})
	}
	sort.Slice(m.Rankings.TypeDistribution, func(i, j int) bool {
		a, b := m.Rankings.TypeDistribution[i], m.Rankings.TypeDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Type < b.Type
	})

	for shop, count := range shopCounts {
		m.Rankings.PopularShops = append(m.Rankings.PopularShops, ShopCount{ShopName: shop, Count: count})
	}
	sort.Slice(m.Rankings.PopularShops, func(i, j int) bool {
		a, b := m.Rankings.PopularShops[i], m.Rankings.PopularShops[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ShopName < b.ShopName
	})
	if len(m.Rankings.PopularShops) > 10 {
		m.Rankings.PopularShops = m.Rankings.PopularShops[:10]
	}

	for code, count := range avatarCounts {
		m.Rankings.PopularAvatars = append(m.Rankings.PopularAvatars, AvatarCount{AvatarCode: code, Count: count})
	}
	sort.Slice(m.Rankings.PopularAvatars, func(i, j int) bool {
		a, b := m.Rankings.PopularAvatars[i], m.Rankings.PopularAvatars[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.AvatarCode < b.AvatarCode
	})

	return m
}

func priceStats(prices []int) PriceStats {
	if len(prices) == 0 {
		return PriceStats{}
	}
	sorted := append([]int{}, prices...)
	sort.Ints(sorted)

	total := 0
	for _, p := range sorted {
		total += p
	}
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2] + 1) / 2
	}
	return PriceStats{
		TotalValue:   total,
		AveragePrice: (total + len(sorted)/2) / len(sorted),
		MedianPrice:  median,
		MinPrice:     sorted[0],
		MaxPrice:     sorted[len(sorted)-1],
		PricedItems:  len(sorted),
	}
}

// WriteMetrics aggregates and writes metrics.yml.
func WriteMetrics(ctx context.Context, items []classify.Item, path string) error {
	ctx, span := tracer.Start(ctx, "WriteMetrics")
	defer span.End()

	err := writeYAML(path, BuildMetrics(items))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write metrics")
		return err
	}
	slog.InfoContext(ctx, "exported metrics", "path", path)
	return nil
}
