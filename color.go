// Package glyphterm provides the core of a GPU-rendered terminal: the
// session that owns the shell process, the cell grid with its scrollback
// ring, selection and scroll state, and the decode events that connect
// them.
//
// This package contains:
//   - Color and cell types
//   - The VT parser that turns output bytes into decode events
//   - The terminal buffer (grid, scrollback, cursor, captured output log)
//   - Scroll and selection controllers
//   - The byte channel, PTY interfaces and session lifecycle
//
// Geometry generation lives in the geometry package and the per-frame
// application context in the app package.
package glyphterm

import (
	"fmt"
	"strings"
)

// ColorType indicates how a color was specified
type ColorType uint8

const (
	ColorTypeDefault   ColorType = iota // Use terminal default fg/bg (SGR 39/49)
	ColorTypeStandard                   // Standard 16 ANSI colors (0-15)
	ColorTypePalette                    // 256-color palette (0-255)
	ColorTypeTrueColor                  // 24-bit RGB
)

// Color is a terminal color. The RGB components always hold the resolved
// value so a cell can be drawn without consulting a palette; Type and Index
// record how the color was requested so a scheme can override it.
type Color struct {
	Type    ColorType
	Index   uint8
	R, G, B uint8
}

// Predefined colors
var (
	DefaultForeground = Color{Type: ColorTypeDefault, R: 204, G: 204, B: 204}
	DefaultBackground = Color{Type: ColorTypeDefault, R: 18, G: 18, B: 18}
)

// RGB holds just the red, green, blue components
type RGB struct {
	R, G, B uint8
}

// ANSIColorsRGB is the 16-color palette in ANSI order.
var ANSIColorsRGB = [16]RGB{
	{0, 0, 0},       // black
	{204, 0, 0},     // red
	{78, 154, 6},    // green
	{196, 160, 0},   // yellow
	{52, 101, 164},  // blue
	{117, 80, 123},  // magenta
	{6, 152, 154},   // cyan
	{211, 215, 207}, // white
	{85, 87, 83},    // bright black
	{239, 41, 41},   // bright red
	{138, 226, 52},  // bright green
	{252, 233, 79},  // bright yellow
	{114, 159, 207}, // bright blue
	{173, 127, 168}, // bright magenta
	{52, 226, 226},  // bright cyan
	{238, 238, 236}, // bright white
}

// StandardColor creates a standard 16-color ANSI color (index 0-15)
func StandardColor(index int) Color {
	if index < 0 || index > 15 {
		index = 7
	}
	rgb := ANSIColorsRGB[index]
	return Color{Type: ColorTypeStandard, Index: uint8(index), R: rgb.R, G: rgb.G, B: rgb.B}
}

// PaletteColor creates a 256-color palette color (index 0-255)
func PaletteColor(index int) Color {
	if index < 0 || index > 255 {
		index = 7
	}
	rgb := Get256ColorRGB(index)
	return Color{Type: ColorTypePalette, Index: uint8(index), R: rgb.R, G: rgb.G, B: rgb.B}
}

// TrueColor creates a 24-bit true color
func TrueColor(r, g, b uint8) Color {
	return Color{Type: ColorTypeTrueColor, R: r, G: g, B: b}
}

// IsDefault returns true if this is the default fg/bg color
func (c Color) IsDefault() bool {
	return c.Type == ColorTypeDefault
}

// RGB returns the resolved components.
func (c Color) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Float returns the color as normalized RGBA with full opacity.
func (c Color) Float() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
}

// Get256ColorRGB returns the RGB values for a 256-color palette index
func Get256ColorRGB(idx int) RGB {
	if idx < 0 {
		idx = 0
	} else if idx > 255 {
		idx = 255
	}
	switch {
	case idx < 16:
		return ANSIColorsRGB[idx]
	case idx < 232:
		idx -= 16
		return RGB{R: cubeLevel(idx / 36), G: cubeLevel((idx / 6) % 6), B: cubeLevel(idx % 6)}
	default:
		gray := uint8((idx-232)*10 + 8)
		return RGB{R: gray, G: gray, B: gray}
	}
}

func cubeLevel(v int) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(55 + 40*v)
}

// ToHex returns the color as a hex string like "#RRGGBB"
func (c Color) ToHex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHexColor parses a hex color string in "#RRGGBB" or "#RGB" format
// Returns a TrueColor type
func ParseHexColor(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || s[0] != '#' {
		return Color{}, false
	}
	s = s[1:]
	var r, g, b uint8
	switch len(s) {
	case 3:
		r = parseHexNibble(s[0]) * 17
		g = parseHexNibble(s[1]) * 17
		b = parseHexNibble(s[2]) * 17
	case 6:
		r = parseHexNibble(s[0])<<4 | parseHexNibble(s[1])
		g = parseHexNibble(s[2])<<4 | parseHexNibble(s[3])
		b = parseHexNibble(s[4])<<4 | parseHexNibble(s[5])
	default:
		return Color{}, false
	}
	for _, ch := range s {
		if !isHexDigit(byte(ch)) {
			return Color{}, false
		}
	}
	return TrueColor(r, g, b), true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseHexNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ColorScheme defines the colors the renderer uses for defaults and overlays.
type ColorScheme struct {
	Foreground Color
	Background Color
	Palette    [16]Color

	Cursor              Color
	Selection           Color
	SelectionForeground Color
}

// ResolveColor resolves a color through the scheme.
// ColorTypeDefault maps to the scheme foreground (isFg) or background, and
// the low 16 palette entries map through the scheme palette.
func (s ColorScheme) ResolveColor(c Color, isFg bool) Color {
	switch c.Type {
	case ColorTypeDefault:
		if isFg {
			return s.Foreground
		}
		return s.Background
	case ColorTypeStandard, ColorTypePalette:
		if c.Index < 16 {
			return s.Palette[c.Index]
		}
	}
	return c
}

// DefaultColorScheme returns the built-in dark scheme.
func DefaultColorScheme() ColorScheme {
	s := ColorScheme{
		Foreground:          TrueColor(204, 204, 204),
		Background:          TrueColor(18, 18, 18),
		Cursor:              TrueColor(204, 204, 204),
		Selection:           TrueColor(180, 180, 180),
		SelectionForeground: TrueColor(18, 18, 18),
	}
	for i := range s.Palette {
		s.Palette[i] = StandardColor(i)
	}
	return s
}
