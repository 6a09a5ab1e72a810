package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// twoLamps places a switch and a lamp 200 units apart and wires them.
func twoLamps(t *testing.T) (*diagram.Model, diagram.Connection) {
	t.Helper()
	m := diagram.New()
	_, err := m.PlaceComponent("switch_OFF.png", 0, 0, "sw")
	require.NoError(t, err)
	_, err = m.PlaceComponent("lamp_OFF.png", 200, 0, "lamp")
	require.NoError(t, err)
	conn, err := m.Connect(
		diagram.AnchorRef{ComponentID: "sw", Index: diagram.AnchorRight},
		diagram.AnchorRef{ComponentID: "lamp", Index: diagram.AnchorLeft},
		diagram.ConnSingle, nil)
	require.NoError(t, err)
	return m, conn
}

func TestAnchorAt(t *testing.T) {
	m, _ := twoLamps(t)
	ref, ok := anchorAt(m.State(), geom.Point{X: 52, Y: 24}, 5)
	require.True(t, ok)
	assert.Equal(t, diagram.AnchorRef{ComponentID: "sw", Index: diagram.AnchorRight}, ref)

	_, ok = anchorAt(m.State(), geom.Point{X: 120, Y: 120}, 5)
	assert.False(t, ok)
}

func TestAnchorAtPrefersTopmost(t *testing.T) {
	m := diagram.New()
	_, err := m.PlaceComponent("a.png", 0, 0, "below")
	require.NoError(t, err)
	_, err = m.PlaceComponent("b.png", 0, 0, "above")
	require.NoError(t, err)
	ref, ok := anchorAt(m.State(), geom.Point{X: 25, Y: 0}, 5)
	require.True(t, ok)
	assert.Equal(t, "above", ref.ComponentID)
}

func TestComponentAt(t *testing.T) {
	m, _ := twoLamps(t)
	assert.Equal(t, "lamp", componentAt(m.State(), geom.Point{X: 225, Y: 25}))
	assert.Equal(t, "", componentAt(m.State(), geom.Point{X: 125, Y: 25}))
}

func TestConnectionAt(t *testing.T) {
	m, conn := twoLamps(t)
	c := m.State().Connection(conn.ID)
	require.NotNil(t, c)
	// The jog between the two bends runs clear of both components.
	require.Len(t, c.Bends, 2)
	mid := c.Bends[0].Add(c.Bends[1]).Scale(0.5)
	assert.Equal(t, conn.ID, connectionAt(m.State(), mid.Add(geom.Point{X: 0, Y: 2}), 5))
	assert.Equal(t, "", connectionAt(m.State(), geom.Point{X: 125, Y: 400}, 5))
}

func TestBendAt(t *testing.T) {
	c := &diagram.Connection{
		Kind:  diagram.ConnSingle,
		Bends: []geom.Point{{X: 100, Y: 0}, {X: 100, Y: 100}},
	}
	assert.Equal(t, 1, bendAt(c, geom.Point{X: 102, Y: 98}, 5))
	assert.Equal(t, -1, bendAt(c, geom.Point{X: 50, Y: 50}, 5))

	c.Kind = diagram.ConnCurve
	assert.Equal(t, -1, bendAt(c, geom.Point{X: 100, Y: 0}, 5))
}

func TestCurveHandleAt(t *testing.T) {
	c := &diagram.Connection{
		Kind:  diagram.ConnCurve,
		Start: diagram.Endpoint{X: 0, Y: 0},
		End:   diagram.Endpoint{X: 100, Y: 0},
		Bends: []geom.Point{{X: 0, Y: 50}, {X: 100, Y: 50}},
	}
	// The curve is symmetric, so its arc-length midpoint is at x=50.
	assert.True(t, curveHandleAt(c, geom.Point{X: 50, Y: 37.5}, 3))
	assert.False(t, curveHandleAt(c, geom.Point{X: 0, Y: 0}, 3))

	c.Kind = diagram.ConnPlain
	assert.False(t, curveHandleAt(c, geom.Point{X: 50, Y: 37.5}, 3))
}

func TestResizeHandleAt(t *testing.T) {
	c := &diagram.Component{X: 10, Y: 10, Width: 50, Height: 50}
	assert.True(t, resizeHandleAt(c, geom.Point{X: 60, Y: 60}, 2))
	assert.False(t, resizeHandleAt(c, geom.Point{X: 10, Y: 10}, 2))
}
