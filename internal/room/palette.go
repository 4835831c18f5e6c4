package room

import "github.com/BurntSushi/toml"

// Palette is the operator-editable set of emoji/color values new players
// are assigned from (§9: "emoji and color are assigned from small fixed
// palettes uniformly at random and may collide; this design does not
// deduplicate"). It is backed by a small TOML file, following the
// teacher's own use of TOML for small declarative data files, with a
// compiled-in default so the room runs with zero configuration.
type Palette struct {
	Emojis []string `toml:"emojis"`
	Colors []string `toml:"colors"`
}

// DefaultPalette is used when no palette file is configured.
func DefaultPalette() Palette {
	return Palette{
		Emojis: []string{"🐙", "🦊", "🐸", "🦉", "🐺", "🐝", "🦔", "🐢", "🦅", "🐳"},
		Colors: []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6", "#1abc9c", "#e67e22", "#34495e"},
	}
}

// LoadPalette decodes a TOML palette file, backfilling any empty field
// with DefaultPalette's values (the same zero-value-backfill pattern used
// for the room's own static config).
func LoadPalette(path string) (Palette, error) {
	p := Palette{}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Palette{}, err
	}
	def := DefaultPalette()
	if len(p.Emojis) == 0 {
		p.Emojis = def.Emojis
	}
	if len(p.Colors) == 0 {
		p.Colors = def.Colors
	}
	return p, nil
}
