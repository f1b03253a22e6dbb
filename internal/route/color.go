package route

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor parses "#RGB" and "#RRGGBB" hex notation, as used for the
// path color in waypoint files and on the command line.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		var expanded strings.Builder
		for _, r := range hex {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		hex = expanded.String()
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RGB or #RRGGBB", s)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xFF,
	}, nil
}
