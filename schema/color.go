package schema

import "strings"

// Color is a tab group color from the fixed host palette.
type Color string

const (
	ColorGrey   Color = "grey"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorCyan   Color = "cyan"
	ColorOrange Color = "orange"
)

// Palette lists every color a group may take.
var Palette = []Color{
	ColorBlue,
	ColorCyan,
	ColorGreen,
	ColorGrey,
	ColorOrange,
	ColorPink,
	ColorPurple,
	ColorRed,
	ColorYellow,
}

// NormalizeColor validates a color name (case-insensitive, "gray" accepted).
func NormalizeColor(value string) (Color, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "gray" {
		trimmed = string(ColorGrey)
	}
	for _, c := range Palette {
		if string(c) == trimmed {
			return c, nil
		}
	}
	return "", ErrInvalidColor
}
