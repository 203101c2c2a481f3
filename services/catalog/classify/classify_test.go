package classify

import (
	"testing"

	"boothlist-backend/lib/scrapers/booth"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestClassifyOutfitSet(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID:             4294967,
		Name:               "お出かけ衣装 Outfit Set",
		ShopName:           "example shop",
		Price:              intPtr(1500),
		DescriptionExcerpt: "対応アバター：桔梗、セレスティア",
		Files:              []string{"Kikyo_Outfit_Set.zip", "Selestia_Outfit_Set.zip"},
	}

	item := c.Classify(meta, Hints{})
	require.Equal(t, TypeCostume, item.Type)
	require.Equal(t, []AvatarRef{
		{Code: "Selestia", Name: "セレスティア"},
		{Code: "Kikyo", Name: "桔梗"},
	}, item.Targets)

	require.Len(t, item.Variants, 2)
	byCode := map[string]Variant{}
	for _, v := range item.Variants {
		require.Len(t, v.Targets, 1)
		byCode[v.Targets[0].Code] = v
	}
	require.Equal(t, []FileAsset{{Filename: "Selestia_Outfit_Set.zip"}}, byCode["Selestia"].Files)
	require.Equal(t, []FileAsset{{Filename: "Kikyo_Outfit_Set.zip"}}, byCode["Kikyo"].Files)
	require.Equal(t, "4294967#variant:Kikyo:kikyo-edition", byCode["Kikyo"].VariantID)
}

func TestClassifyDeterminism(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID:             1234567,
		Name:               "マヌカ・しなの対応 ヘアアクセサリー セット",
		DescriptionExcerpt: "対応アバター：マヌカ、しなの",
		Files:              []string{"Manuka_hair.unitypackage", "Shinano_hair.unitypackage"},
	}

	first := c.Classify(meta, Hints{})
	second := c.Classify(meta, Hints{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classification is not deterministic:\n%s", diff)
	}

	require.Equal(t, TypeAccessory, first.Type)
	require.NotEmpty(t, first.Variants)
}

func TestClassifyCategoryHintWins(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{ItemID: 2222222, Name: "謎のなにか"}

	item := c.Classify(meta, Hints{Category: "3D環境・ワールド"})
	require.Equal(t, TypeWorld, item.Type)

	item = c.Classify(meta, Hints{Category: "3D Tools & Systems"})
	require.Equal(t, TypeTool, item.Type)
}

func TestClassifyAvatarAutoAssign(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID: 3333333,
		Name:   "オリジナル3Dモデル「セレスティア」",
	}

	item := c.Classify(meta, Hints{})
	require.Equal(t, TypeAvatar, item.Type)
	require.Equal(t, []AvatarRef{{Code: "Selestia", Name: "セレスティア"}}, item.Targets)
}

func TestClassifySingleTargetNoSet(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID:             4444444,
		Name:               "桔梗用ワンピース",
		DescriptionExcerpt: "桔梗ちゃん対応のワンピースです",
		Files:              []string{"Kikyo_onepiece_v1.2.zip"},
	}

	item := c.Classify(meta, Hints{})
	require.Equal(t, TypeCostume, item.Type)
	require.Equal(t, []AvatarRef{{Code: "Kikyo", Name: "桔梗"}}, item.Targets)
	require.Empty(t, item.Variants)
}

func TestClassifyTargetSourcesUnion(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID: 7777777,
		Name:   "お洋服セット「セレスティア」",
		Files:  []string{"Kikyo_dress.zip"},
	}

	item := c.Classify(meta, Hints{})
	require.Equal(t, []AvatarRef{
		{Code: "Selestia", Name: "セレスティア"},
		{Code: "Kikyo", Name: "桔梗"},
	}, item.Targets)
	require.Len(t, item.Variants, 2)
}

func TestClassifyNamePrecedence(t *testing.T) {
	c := NewClassifier(nil)

	item := c.Classify(booth.ItemMetadata{ItemID: 5555555, Name: "scraped name"}, Hints{Name: "curated name"})
	require.Equal(t, "scraped name", item.Name)

	item = c.Classify(booth.ItemMetadata{ItemID: 5555555}, Hints{Name: "curated name"})
	require.Equal(t, "curated name", item.Name)

	item = c.Classify(booth.ItemMetadata{ItemID: 5555555}, Hints{})
	require.Equal(t, "Item 5555555", item.Name)
}

func TestClassifyUpdatedAtFallback(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID:    8888888,
		Name:      "なにかの衣装",
		ScrapedAt: "2026-08-30T12:00:00Z",
	}

	item := c.Classify(meta, Hints{})
	require.Equal(t, "2026-08-30T12:00:00Z", item.UpdatedAt)

	meta.PageUpdatedAt = "2026-08-01T00:00:00Z"
	item = c.Classify(meta, Hints{})
	require.Equal(t, "2026-08-01T00:00:00Z", item.UpdatedAt)
}

func TestClassifyKatakanaPackIsSet(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID: 9999999,
		Name:   "セレスティア衣装パック",
		Files:  []string{"Selestia_dress.zip"},
	}

	item := c.Classify(meta, Hints{})
	require.Len(t, item.Variants, 1)
	require.Equal(t, "9999999#variant:Selestia:selestia-edition", item.Variants[0].VariantID)
}

func TestClassifyNameKeywordsScoreOnce(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID:             1212121,
		Name:               "アバターグッズ",
		DescriptionExcerpt: "衣装です",
	}

	// one costume keyword in the description must outscore one avatar
	// keyword in the name even though the name feeds the corpus first.
	item := c.Classify(meta, Hints{})
	require.Equal(t, TypeCostume, item.Type)
}

func TestVariantsFromHintVariation(t *testing.T) {
	c := NewClassifier(nil)
	meta := booth.ItemMetadata{
		ItemID: 6666666,
		Name:   "テクスチャ詰め合わせ",
	}

	item := c.Classify(meta, Hints{Variation: "薄荷、瑞希"})
	require.Equal(t, TypeTexture, item.Type)
	require.Len(t, item.Variants, 2)
	require.Equal(t, "6666666#variant:Hakka:hakka-edition", item.Variants[0].VariantID)
	require.Equal(t, "6666666#variant:Mizuki:mizuki-edition", item.Variants[1].VariantID)
}

func TestDictionaryNormalize(t *testing.T) {
	d := DefaultDictionary()
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"セレスティア", "Selestia"},
		{"selestia", "Selestia"},
		{"SELESTIA", "Selestia"},
		{" 桔 梗 ", "Kikyo"},
		{"ｾﾚｽﾃｨｱ", "Selestia"},
	} {
		code, ok := d.Normalize(tc.in)
		require.True(t, ok, tc.in)
		require.Equal(t, tc.want, code)
	}

	_, ok := d.Normalize("unknown avatar")
	require.False(t, ok)
}

func TestNewFileAssetVersion(t *testing.T) {
	for _, tc := range []struct {
		filename string
		version  string
	}{
		{"Kikyo_onepiece_v1.2.zip", "1.2"},
		{"outfit_ver3.unitypackage", "3"},
		{"plain.zip", ""},
	} {
		require.Equal(t, tc.version, NewFileAsset(tc.filename).Version, tc.filename)
	}
}
