package diagramfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// sampleState builds a small plant: a switch feeding a lamp over a wire,
// a passive label, a curve and one free-hand stroke.
func sampleState(t *testing.T) *diagram.State {
	t.Helper()
	m := diagram.New()

	sw, err := m.PlaceComponent("switch_OFF.png", 50, 100, "")
	require.NoError(t, err)
	lamp, err := m.PlaceComponent("lamp_OFF.png", 250, 100, "")
	require.NoError(t, err)
	label, err := m.PlaceComponent("label.png", 150, 250, "")
	require.NoError(t, err)
	require.NoError(t, m.SetText(label.ID, `Pump "A" & <B>`))
	require.NoError(t, m.RotateComponent(label.ID, 90))

	_, err = m.Connect(diagram.AnchorRef{ComponentID: sw.ID, Index: diagram.AnchorRight},
		diagram.AnchorRef{ComponentID: lamp.ID, Index: diagram.AnchorLeft}, diagram.ConnSingle, nil)
	require.NoError(t, err)
	_, err = m.Connect(diagram.AnchorRef{ComponentID: lamp.ID, Index: diagram.AnchorBottom},
		diagram.AnchorRef{ComponentID: label.ID, Index: diagram.AnchorTop}, diagram.ConnCurve, nil)
	require.NoError(t, err)

	require.NoError(t, m.BeginStroke(geom.Point{X: 10, Y: 10}))
	require.NoError(t, m.Update(geom.Point{X: 20, Y: 15}))
	require.NoError(t, m.Update(geom.Point{X: 30, Y: 30}))
	require.NoError(t, m.End())

	_, err = m.Toggle(sw.ID)
	require.NoError(t, err)
	return m.Snapshot()
}
