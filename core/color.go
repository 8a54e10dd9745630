package core

import (
	"math/rand/v2"

	"pkt.systems/tabgrouper/schema"
)

// ColorPicker chooses the color for a newly created group.
type ColorPicker func() schema.Color

// RandomColor picks a palette color uniformly at random.
func RandomColor() schema.Color {
	return schema.Palette[rand.IntN(len(schema.Palette))]
}
