package classify

import "strings"

// TypeRule scores an item type from keyword hits. score = Weight ×
// match count, highest score wins, ties resolve to the earlier rule.
type TypeRule struct {
	Type     ItemType
	Weight   int
	Keywords []string
}

// typeRules is ordered: earlier rows win ties. Weights keep concrete
// product words (costume, texture, ...) ahead of the avatar words
// that most listings mention in passing, and set/bundle words at the
// bottom so they only win when nothing else matched.
var typeRules = []TypeRule{
	{Type: TypeCostume, Weight: 3, Keywords: []string{
		"衣装", "服", "ワンピース", "ドレス", "コスチューム", "セーラー", "制服",
		"outfit", "costume", "dress", "clothing", "wear", "uniform",
	}},
	{Type: TypeAccessory, Weight: 3, Keywords: []string{
		"アクセサリー", "アクセサリ", "髪飾り", "ヘアピン", "リボン", "ネックレス", "イヤリング", "ピアス", "メガネ", "眼鏡", "帽子",
		"accessory", "accessories", "hairpin", "ribbon", "necklace", "earring", "glasses", "hat",
	}},
	{Type: TypeTexture, Weight: 3, Keywords: []string{
		"テクスチャ", "テクスチャー", "スキン", "マテリアル", "リテクスチャ",
		"texture", "skin", "material", "retexture",
	}},
	{Type: TypeGimmick, Weight: 3, Keywords: []string{
		"ギミック", "アニメーション", "エモート", "表情", "パーティクル", "シェーダー", "シェーダ",
		"gimmick", "animation", "emote", "particle", "shader",
	}},
	{Type: TypeWorld, Weight: 3, Keywords: []string{
		"ワールド", "マップ", "背景", "スカイボックス",
		"world", "map", "skybox",
	}},
	{Type: TypeTool, Weight: 3, Keywords: []string{
		"ツール", "スクリプト", "エディタ拡張", "プラグイン", "unityパッケージ",
		"tool", "script", "editorextension", "plugin",
	}},
	{Type: TypeScenario, Weight: 3, Keywords: []string{
		"シナリオ", "台本", "ボイス", "音声", "朗読",
		"scenario", "voice", "audio",
	}},
	{Type: TypeAvatar, Weight: 2, Keywords: []string{
		"アバター", "オリジナル3dモデル", "素体",
		"avatar", "3dmodel", "charactermodel",
	}},
	{Type: TypeBundle, Weight: 1, Keywords: []string{
		"セット", "フルセット", "詰め合わせ",
		"set", "bundle", "pack", "collection",
	}},
}

// categoryTypes maps listing category labels straight onto a type,
// bypassing keyword scoring. Keys are in folded form (no whitespace,
// separator symbols stripped).
var categoryTypes = map[string]ItemType{
	"3dキャラクター":          TypeAvatar,
	"3dcharacters":        TypeAvatar,
	"3d衣装":                TypeCostume,
	"3dcostumes":          TypeCostume,
	"3d装飾品":               TypeAccessory,
	"3daccessories":       TypeAccessory,
	"3d小道具":               TypeAccessory,
	"3dprops":             TypeAccessory,
	"3dテクスチャ":            TypeTexture,
	"3dtextures":          TypeTexture,
	"3dモーションアニメーション":     TypeGimmick,
	"3dmotion&animation":  TypeGimmick,
	"3d環境ワールド":           TypeWorld,
	"3denvironments&worlds": TypeWorld,
	"3dツールシステム":          TypeTool,
	"3dtools&systems":     TypeTool,
	"ボイス音声素材":            TypeScenario,
	"voice&audio":         TypeScenario,
}

// avatarCostumeCues is the second scoring tier. "3D model" listings
// match avatar and costume keywords alike, so when both score, a
// smaller cue set settles which one the listing actually is: dressing
// phrases point at costume, base-body phrases at avatar.
var costumeCues = []string{"対応", "向け", "着せ替え", "衣装のみ", "foravatar", "dressup"}
var avatarCues = []string{"オリジナル", "素体", "フルセット", "originalcharacter", "basebody"}

func cueHits(folded string, cues []string) int {
	hits := 0
	for _, cue := range cues {
		hits += strings.Count(folded, cue)
	}
	return hits
}

// classifyType scores folded text against the rule table. An empty
// result set yields TypeOther.
func classifyType(folded string) ItemType {
	best := TypeOther
	bestScore := 0
	scores := map[ItemType]int{}
	for _, rule := range typeRules {
		score := 0
		for _, keyword := range rule.Keywords {
			score += rule.Weight * strings.Count(folded, keyword)
		}
		scores[rule.Type] = score
		if score > bestScore {
			best = rule.Type
			bestScore = score
		}
	}

	if (best == TypeAvatar || best == TypeCostume) && scores[TypeAvatar] > 0 && scores[TypeCostume] > 0 {
		c, a := cueHits(folded, costumeCues), cueHits(folded, avatarCues)
		if c > a {
			return TypeCostume
		}
		if a > c {
			return TypeAvatar
		}
	}
	return best
}

// categoryType resolves a category hint. The hint is trusted over
// keyword scoring when it maps, unknown labels fall through.
func categoryType(d *Dictionary, hint string) (ItemType, bool) {
	if hint == "" {
		return TypeOther, false
	}
	t, ok := categoryTypes[d.Fold(hint)]
	return t, ok
}
