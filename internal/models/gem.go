package models

import "fmt"

// GemType orders reward tiers from most to least common.
type GemType uint8

const (
	GemGarnet GemType = iota
	GemAmethyst
	GemTopaz
	GemSapphire
	GemEmerald
	GemRuby
	GemDiamond
)

var gemNames = [...]string{"garnet", "amethyst", "topaz", "sapphire", "emerald", "ruby", "diamond"}

func (g GemType) String() string {
	if int(g) < len(gemNames) {
		return gemNames[g]
	}
	return fmt.Sprintf("gem(%d)", uint8(g))
}

func (g GemType) MarshalText() ([]byte, error) {
	if int(g) >= len(gemNames) {
		return nil, fmt.Errorf("unknown gem type %d", uint8(g))
	}
	return []byte(gemNames[g]), nil
}

func (g *GemType) UnmarshalText(text []byte) error {
	for i, name := range gemNames {
		if name == string(text) {
			*g = GemType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown gem type %q", text)
}
