package classify

import (
	"boothlist-backend/lib/configutil"
	"boothlist-backend/lib/textutil"
	"log/slog"
	"os"
)

// Avatar is one base character model plus the free-text aliases that
// should collapse onto it.
type Avatar struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// DictionaryConfig is the external classification dictionary shape.
// The file is optional, classification falls back to the built-in
// table when it is missing.
type DictionaryConfig struct {
	Avatars      []Avatar `json:"avatars"`
	StripSymbols string   `json:"strip_symbols"`
}

// Dictionary resolves free text onto canonical avatar codes. Lookup
// keys are folded (compatibility + case folding, whitespace collapse,
// symbol stripping) so visually equivalent spellings hit one entry.
type Dictionary struct {
	avatars []Avatar
	index   map[string]int
	strip   string
}

func NewDictionary(config DictionaryConfig) *Dictionary {
	strip := config.StripSymbols
	if strip == "" {
		strip = textutil.DefaultStripSymbols
	}
	d := &Dictionary{
		avatars: config.Avatars,
		index:   map[string]int{},
		strip:   strip,
	}
	for i, avatar := range config.Avatars {
		d.index[d.Fold(avatar.Code)] = i
		d.index[d.Fold(avatar.Name)] = i
		for _, alias := range avatar.Aliases {
			d.index[d.Fold(alias)] = i
		}
	}
	return d
}

// LoadDictionary reads an external dictionary file, falling back to
// the built-in table when the file does not exist. Only a present but
// malformed file is an error.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	config, err := configutil.ReadConfig[DictionaryConfig](path)
	if os.IsNotExist(err) {
		slog.Info("no classification dictionary found, using built-in table", "path", path)
		return DefaultDictionary(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(config.Avatars) == 0 {
		config.Avatars = defaultAvatars
	}
	return NewDictionary(config), nil
}

func (d *Dictionary) Fold(s string) string {
	return textutil.Fold(s, d.strip)
}

// Avatars returns the table in declaration order. Declaration order
// is the output order everywhere, which keeps classification runs
// byte-identical for identical input.
func (d *Dictionary) Avatars() []Avatar {
	return d.avatars
}

func (d *Dictionary) Ref(code string) (AvatarRef, bool) {
	i, ok := d.index[d.Fold(code)]
	if !ok {
		return AvatarRef{}, false
	}
	return AvatarRef{Code: d.avatars[i].Code, Name: d.avatars[i].Name}, true
}

// Normalize maps any alias spelling onto its canonical code.
func (d *Dictionary) Normalize(text string) (string, bool) {
	i, ok := d.index[d.Fold(text)]
	if !ok {
		return "", false
	}
	return d.avatars[i].Code, true
}

var defaultAvatars = []Avatar{
	{Code: "Selestia", Name: "セレスティア", Aliases: []string{"selestia", "celestia"}},
	{Code: "Kikyo", Name: "桔梗", Aliases: []string{"kikyo", "kikyou"}},
	{Code: "Kanae", Name: "かなえ", Aliases: []string{"kanae", "カナエ"}},
	{Code: "Shinano", Name: "しなの", Aliases: []string{"shinano", "シナノ"}},
	{Code: "Manuka", Name: "マヌカ", Aliases: []string{"manuka"}},
	{Code: "Moe", Name: "萌", Aliases: []string{"moe"}},
	{Code: "Rurune", Name: "ルルネ", Aliases: []string{"rurune"}},
	{Code: "Hakka", Name: "薄荷", Aliases: []string{"hakka"}},
	{Code: "Mizuki", Name: "瑞希", Aliases: []string{"mizuki"}},
}

func DefaultDictionary() *Dictionary {
	return NewDictionary(DictionaryConfig{Avatars: defaultAvatars})
}
