package catalog

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit display colour.
type RGB struct {
	R, G, B uint8
}

// Hex formats the colour as "#rrggbb".
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return c.Hex()
}

// ParseHex parses "#rrggbb" (or the 3-digit short form).
func ParseHex(s string) (RGB, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Dye names one of the sixteen dye colours an ingredient can contribute.
type Dye string

const (
	DyeWhite     Dye = "WHITE"
	DyeOrange    Dye = "ORANGE"
	DyeMagenta   Dye = "MAGENTA"
	DyeLightBlue Dye = "LIGHT_BLUE"
	DyeYellow    Dye = "YELLOW"
	DyeLime      Dye = "LIME"
	DyePink      Dye = "PINK"
	DyeGray      Dye = "GRAY"
	DyeLightGray Dye = "LIGHT_GRAY"
	DyeCyan      Dye = "CYAN"
	DyePurple    Dye = "PURPLE"
	DyeBlue      Dye = "BLUE"
	DyeBrown     Dye = "BROWN"
	DyeGreen     Dye = "GREEN"
	DyeRed       Dye = "RED"
	DyeBlack     Dye = "BLACK"
)

var palette = map[Dye]RGB{
	DyeWhite:     {0xF9, 0xFF, 0xFE},
	DyeOrange:    {0xF9, 0x80, 0x1D},
	DyeMagenta:   {0xC7, 0x4E, 0xBD},
	DyeLightBlue: {0x3A, 0xB3, 0xDA},
	DyeYellow:    {0xFE, 0xD8, 0x3D},
	DyeLime:      {0x80, 0xC7, 0x1F},
	DyePink:      {0xF3, 0x8B, 0xAA},
	DyeGray:      {0x47, 0x4F, 0x52},
	DyeLightGray: {0x9D, 0x9D, 0x97},
	DyeCyan:      {0x16, 0x9C, 0x9C},
	DyePurple:    {0x89, 0x32, 0xB8},
	DyeBlue:      {0x3C, 0x44, 0xAA},
	DyeBrown:     {0x83, 0x54, 0x32},
	DyeGreen:     {0x5E, 0x7C, 0x16},
	DyeRed:       {0xB0, 0x2E, 0x26},
	DyeBlack:     {0x1D, 0x1D, 0x21},
}

// Water is the colour of a brew with no coloured ingredients.
var Water = palette[DyeBlue]

// RGB returns the dye's colour. ok is false for unknown dyes.
func (d Dye) RGB() (RGB, bool) {
	c, ok := palette[d]
	return c, ok
}

// Valid reports whether d is one of the sixteen dyes.
func (d Dye) Valid() bool {
	_, ok := palette[d]
	return ok
}

// Dyes returns every dye name in sorted order.
func Dyes() []Dye {
	out := make([]Dye, 0, len(palette))
	for d := range palette {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Mix blends base with colors using average-with-gain mixing: channels are
// averaged, then scaled so the brightest channel matches the average of each
// input's brightest channel. This keeps mixes from going muddy.
//
// Mix is a function of the multiset {base, colors...}, so the result does not
// depend on argument order. Integer arithmetic keeps it exact.
func Mix(base RGB, colors ...RGB) RGB {
	totalR, totalG, totalB := int(base.R), int(base.G), int(base.B)
	totalMax := maxChannel(base)
	for _, c := range colors {
		totalR += int(c.R)
		totalG += int(c.G)
		totalB += int(c.B)
		totalMax += maxChannel(c)
	}

	n := len(colors) + 1
	avgR, avgG, avgB := totalR/n, totalG/n, totalB/n
	avgMax := totalMax / n

	maxAvg := max(avgR, avgG, avgB)
	if maxAvg == 0 {
		return RGB{}
	}

	return RGB{
		R: uint8(avgR * avgMax / maxAvg),
		G: uint8(avgG * avgMax / maxAvg),
		B: uint8(avgB * avgMax / maxAvg),
	}
}

func maxChannel(c RGB) int {
	return max(int(c.R), int(c.G), int(c.B))
}
