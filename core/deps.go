package core

import "pkt.systems/pslog"

// EngineDeps captures dependencies for the grouping engine.
type EngineDeps struct {
	Surface TabSurface
	Colors  ColorPicker
	Logger  pslog.Logger
}
