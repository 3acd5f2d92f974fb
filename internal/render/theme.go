package render

import (
	"fmt"
	"hash/fnv"
)

// ThemeName selects a colour theme
type ThemeName string

const (
	ThemeLight ThemeName = "light"
	ThemeDark  ThemeName = "dark"
)

// Theme holds the colours used to draw a frame
type Theme struct {
	Name       ThemeName
	Background Color
	Grid       Color
	Axis       Color
	Text       Color
	Line       Color
	Palette    []Color

	// Heat map cells are shaded from HeatLow to HeatHigh lightness
	HeatHue   float64
	HeatLow   float64
	HeatHigh  float64
	HeatEmpty Color
}

var (
	lightTheme = Theme{
		Name:       ThemeLight,
		Background: "#fafafa",
		Grid:       "#e1e1e1",
		Axis:       "#afafaf",
		Text:       "#333333",
		Line:       HSL(217, 91, 45),
		Palette: []Color{
			HSL(217, 91, 45),
			HSL(173, 80, 40),
			HSL(43, 96, 56),
			HSL(27, 87, 67),
		},
		HeatHue:   217,
		HeatLow:   80,
		HeatHigh:  40,
		HeatEmpty: "#eeeeee",
	}

	darkTheme = Theme{
		Name:       ThemeDark,
		Background: "#171717",
		Grid:       "#2e2e2e",
		Axis:       "#5d5d5d",
		Text:       "#d1d1d1",
		Line:       HSL(217, 91, 70),
		Palette: []Color{
			HSL(217, 91, 70),
			HSL(173, 80, 65),
			HSL(43, 96, 70),
			HSL(27, 87, 75),
		},
		HeatHue:   217,
		HeatLow:   40,
		HeatHigh:  80,
		HeatEmpty: "#222222",
	}
)

// LightTheme returns the light theme
func LightTheme() Theme { return lightTheme }

// DarkTheme returns the dark theme
func DarkTheme() Theme { return darkTheme }

// ThemeByName returns the theme with the given name
func ThemeByName(name ThemeName) (Theme, error) {
	switch name {
	case ThemeLight:
		return lightTheme, nil
	case ThemeDark:
		return darkTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// Toggle returns the other theme
func (t Theme) Toggle() Theme {
	if t.Name == ThemeDark {
		return lightTheme
	}
	return darkTheme
}

// HeatColor shades a normalized value in [0, 1]
func (t Theme) HeatColor(normalized float64) Color {
	normalized = min(max(normalized, 0), 1)
	return HSL(t.HeatHue, 91, t.HeatLow+(t.HeatHigh-t.HeatLow)*normalized)
}

// CategoryIndex maps a category label to a palette slot. The same label
// always gets the same slot; unlabelled points fall back to their index.
func CategoryIndex(category string, fallback, paletteLen int) int {
	if paletteLen <= 0 {
		return 0
	}
	if category == "" {
		return ((fallback % paletteLen) + paletteLen) % paletteLen
	}

	h := fnv.New32a()
	h.Write([]byte(category))
	return int(h.Sum32() % uint32(paletteLen))
}

// CategoryColor returns the palette colour for a category
func (t Theme) CategoryColor(category string, fallback int) Color {
	if len(t.Palette) == 0 {
		return t.Line
	}
	return t.Palette[CategoryIndex(category, fallback, len(t.Palette))]
}
