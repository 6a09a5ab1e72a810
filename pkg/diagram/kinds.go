package diagram

import (
	"strings"

	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// Line kinds. Everything else is a shape.
const (
	KindHLine = "hline"
	KindVLine = "vline"
)

// Minimum sizes enforced by resize.
const (
	MinLineLength = 10.0
	MinShapeSize  = 20.0
)

// Shape anchor indices for the default edge-midpoint anchors.
const (
	AnchorTop = iota
	AnchorLeft
	AnchorRight
	AnchorBottom
)

// IsLine reports whether kind is one of the line kinds.
func IsLine(kind string) bool {
	return kind == KindHLine || kind == KindVLine
}

// defaults returns the initial size and anchors for kind.
func defaults(kind string) (w, h float64, anchors []geom.Point) {
	switch kind {
	case KindHLine:
		return 100, 2, []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}
	case KindVLine:
		return 2, 100, []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}}
	}
	return 50, 50, []geom.Point{
		{X: 0.5, Y: 0}, // top
		{X: 0, Y: 0.5}, // left
		{X: 1, Y: 0.5}, // right
		{X: 0.5, Y: 1}, // bottom
	}
}

// toggleVariants infers on/off state from the naming convention
// name_OFF.ext / name_ON.ext. ok is false for passive kinds.
func toggleVariants(kind string) (on bool, kindOn, kindOff string, ok bool) {
	upper := strings.ToUpper(kind)
	if i := strings.LastIndex(upper, "_OFF"); i >= 0 {
		return false, kind[:i] + "_ON" + kind[i+4:], kind, true
	}
	if i := strings.LastIndex(upper, "_ON"); i >= 0 {
		return true, kind, kind[:i] + "_OFF" + kind[i+3:], true
	}
	return false, "", "", false
}

// GridOption names a background/grid color pairing.
type GridOption string

const (
	GridWhite GridOption = "white"
	GridGrey  GridOption = "grey"
	GridBlack GridOption = "black"
)

// GridColors is a background and grid-line color pair.
type GridColors struct {
	Background string
	Grid       string
}

// GridOptions maps each option to its colors.
var GridOptions = map[GridOption]GridColors{
	GridWhite: {Background: "white", Grid: "#555"},
	GridGrey:  {Background: "#ccc", Grid: "white"},
	GridBlack: {Background: "black", Grid: "white"},
}
