package main

import (
	"math"

	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// Zoom levels in canvas units per terminal column. Rows are twice as
// tall as columns.
var zoomLevels = []float64{5, 10, 20, 40}

// viewport maps canvas coordinates to terminal cells.
type viewport struct {
	offX, offY float64 // canvas point shown in the top-left cell
	zoom       int     // index into zoomLevels
}

func (v viewport) cellW() float64 { return zoomLevels[v.zoom] }
func (v viewport) cellH() float64 { return 2 * zoomLevels[v.zoom] }

// toCanvas returns the canvas point at the centre of a cell.
func (v viewport) toCanvas(col, row int) geom.Point {
	return geom.Point{
		X: v.offX + (float64(col)+0.5)*v.cellW(),
		Y: v.offY + (float64(row)+0.5)*v.cellH(),
	}
}

// toScreen returns the cell containing a canvas point.
func (v viewport) toScreen(p geom.Point) (col, row int) {
	return int(math.Floor((p.X - v.offX) / v.cellW())),
		int(math.Floor((p.Y - v.offY) / v.cellH()))
}

// tolerance is the pick radius in canvas units: one cell.
func (v viewport) tolerance() float64 {
	return v.cellW()
}

func (v *viewport) pan(cols, rows int) {
	v.offX += float64(cols) * v.cellW()
	v.offY += float64(rows) * v.cellH()
}

// setZoom changes zoom level keeping the canvas point under (col, row)
// fixed.
func (v *viewport) setZoom(level, col, row int) {
	if level < 0 || level >= len(zoomLevels) {
		return
	}
	anchor := v.toCanvas(col, row)
	v.zoom = level
	v.offX = anchor.X - (float64(col)+0.5)*v.cellW()
	v.offY = anchor.Y - (float64(row)+0.5)*v.cellH()
}
