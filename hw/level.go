package hw

import "fmt"

// GfxLevel is a GPU graphics IP generation. Values are ordered, so
// comparisons such as level >= GFX9 follow hardware breakpoints.
type GfxLevel uint8

// Graphics IP generations.
const (
	GFX6 GfxLevel = iota + 1
	GFX7
	GFX8
	GFX9
	GFX10
	GFX10_3
	GFX11
)

// String returns the generation name.
func (l GfxLevel) String() string {
	switch l {
	case GFX6:
		return "GFX6"
	case GFX7:
		return "GFX7"
	case GFX8:
		return "GFX8"
	case GFX9:
		return "GFX9"
	case GFX10:
		return "GFX10"
	case GFX10_3:
		return "GFX10_3"
	case GFX11:
		return "GFX11"
	default:
		return fmt.Sprintf("GfxLevel(%d)", uint8(l))
	}
}

// ParseGfxLevel parses a generation name as printed by String.
func ParseGfxLevel(s string) (GfxLevel, error) {
	for l := GFX6; l <= GFX11; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("hw: unknown gfx level %q", s)
}

// Family identifies a chip within a generation. Some capabilities (RB+)
// are per chip rather than per generation.
type Family string

// Known chip families.
const (
	FamilyTahiti    Family = "TAHITI"
	FamilyHawaii    Family = "HAWAII"
	FamilyStoney    Family = "STONEY"
	FamilyPolaris12 Family = "POLARIS12"
	FamilyVega12    Family = "VEGA12"
	FamilyRaven     Family = "RAVEN"
	FamilyRaven2    Family = "RAVEN2"
	FamilyRenoir    Family = "RENOIR"
	FamilyNavi10    Family = "NAVI10"
	FamilyVanGogh   Family = "VANGOGH"
	FamilyRaphael   Family = "RAPHAEL_MENDOCINO"
	FamilyGFX1100   Family = "GFX1100"
)
