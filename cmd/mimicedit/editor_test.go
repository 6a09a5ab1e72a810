package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/relay"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	ed := newEditor(filepath.Join(t.TempDir(), "mimicedit.toml"))
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(120, 40)
	t.Cleanup(screen.Fini)
	ed.screen = screen
	return ed
}

func place(t *testing.T, ed *Editor, kind string, x, y float64, id string) {
	t.Helper()
	_, err := ed.model.PlaceComponent(kind, x, y, id)
	require.NoError(t, err)
}

func mouse(ed *Editor, col, row int, buttons tcell.ButtonMask) {
	ed.handleMouse(tcell.NewEventMouse(col, row, buttons, tcell.ModNone))
}

func TestPlaceAndToggleAtCursor(t *testing.T) {
	ed := newTestEditor(t)
	ed.cursorCol, ed.cursorRow = 4, 2
	ed.placeAtCursor("switch_OFF.png")

	s := ed.model.State()
	require.Len(t, s.Components, 1)
	c := s.Components[0]
	assert.Equal(t, []string{c.ID}, ed.selected)
	assert.Equal(t, 20.0, c.X) // cursor cell centre (22.5, 25) snapped
	assert.Equal(t, 30.0, c.Y)
	assert.True(t, ed.modified)

	ed.toggleAt(geom.Point{X: c.X + 5, Y: c.Y + 5})
	assert.True(t, ed.model.State().Components[0].On())
	assert.Equal(t, MsgSuccess, ed.messageType)
}

func TestTogglePassiveWarns(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "busbar.png", 0, 0, "bus")
	ed.toggleAt(geom.Point{X: 10, Y: 10})
	assert.Equal(t, MsgWarning, ed.messageType)
	assert.False(t, ed.model.State().Components[0].Toggleable())
}

func TestConnectByAnchorClicks(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	place(t, ed, "lamp_OFF.png", 200, 0, "lamp")

	ed.press(geom.Point{X: 50, Y: 25}, false, false)
	sess, ok := ed.model.Session()
	require.True(t, ok)
	assert.Equal(t, diagram.SessionConnect, sess.Kind)

	ed.press(geom.Point{X: 201, Y: 24}, false, false)
	_, ok = ed.model.Session()
	assert.False(t, ok)

	s := ed.model.State()
	require.Len(t, s.Connections, 1)
	assert.Equal(t, s.Connections[0].ID, ed.selectedConn)
	assert.Equal(t, "sw", s.Connections[0].Start.ComponentID)
	assert.Equal(t, "lamp", s.Connections[0].End.ComponentID)
}

func TestPendingConnectionCollectsBends(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	place(t, ed, "lamp_OFF.png", 200, 200, "lamp")

	ed.press(geom.Point{X: 50, Y: 25}, false, false)
	ed.press(geom.Point{X: 121, Y: 29}, false, false)
	sess, ok := ed.model.Session()
	require.True(t, ok)
	assert.Equal(t, []geom.Point{{X: 120, Y: 30}}, sess.PendingBends)

	ed.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	_, ok = ed.model.Session()
	assert.False(t, ok)
	assert.Empty(t, ed.model.State().Connections)
}

func TestMouseDragIsOneUndoStep(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	ed.modified = false

	// Zoom level 0: cells are 5 units wide and 10 tall.
	mouse(ed, 5, 2, tcell.Button1)
	mouse(ed, 7, 2, tcell.Button1)
	mouse(ed, 9, 2, tcell.Button1)
	mouse(ed, 9, 2, tcell.ButtonNone)

	assert.Equal(t, 20.0, ed.model.State().Component("sw").X)
	assert.Equal(t, []string{"sw"}, ed.selected)
	assert.True(t, ed.modified)

	require.True(t, ed.model.Undo())
	assert.Equal(t, 0.0, ed.model.State().Component("sw").X)
}

func TestClickWithoutMoveChangesNothing(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	before := ed.model.Snapshot()

	mouse(ed, 5, 2, tcell.Button1)
	mouse(ed, 5, 2, tcell.ButtonNone)

	assert.Equal(t, before, ed.model.Snapshot())
	assert.Equal(t, []string{"sw"}, ed.selected)
}

func TestPencilStroke(t *testing.T) {
	ed := newTestEditor(t)
	ed.togglePencil()
	assert.Equal(t, ToolPencil, ed.tool)

	mouse(ed, 20, 20, tcell.Button1)
	mouse(ed, 24, 21, tcell.Button1)
	mouse(ed, 28, 22, tcell.Button1)
	mouse(ed, 28, 22, tcell.ButtonNone)

	s := ed.model.State()
	require.Len(t, s.Strokes, 1)
	assert.Len(t, s.Strokes[0].Points, 3)
}

func TestRightClickToggles(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "lamp_OFF.png", 0, 0, "lamp")
	mouse(ed, 5, 2, tcell.Button2)
	assert.True(t, ed.model.State().Component("lamp").On())
}

func TestDeleteAndUndoPrunesSelection(t *testing.T) {
	ed := newTestEditor(t)
	ed.cursorCol, ed.cursorRow = 0, 0
	ed.placeAtCursor("lamp_OFF.png")
	id := ed.selected[0]

	ed.deleteSelected()
	assert.Empty(t, ed.model.State().Components)
	assert.Empty(t, ed.selected)

	ed.selected = []string{id}
	ed.undo()
	ed.undo()
	assert.Empty(t, ed.model.State().Components)
	assert.Empty(t, ed.selected)
}

func TestRotateAndResizeSelection(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "motor_OFF.png", 0, 0, "m")
	place(t, ed, "hline", 100, 0, "h")
	ed.selected = []string{"m", "h"}
	depth, _ := ed.model.HistoryDepth()

	ed.rotateSelected(90)
	assert.Equal(t, 90.0, ed.model.State().Component("m").Rotation)
	assert.Equal(t, 90.0, ed.model.State().Component("h").Rotation)
	after, _ := ed.model.HistoryDepth()
	assert.Equal(t, depth+1, after, "one rotate gesture")

	ed.resizeSelected(diagram.GridSize)
	assert.Equal(t, 60.0, ed.model.State().Component("m").Width)
	h := ed.model.State().Component("h")
	assert.Equal(t, 110.0, h.Width)
	assert.Equal(t, 2.0, h.Height)
	after, _ = ed.model.HistoryDepth()
	assert.Equal(t, depth+2, after, "one resize gesture")

	ed.undo()
	assert.Equal(t, 50.0, ed.model.State().Component("m").Width)
	assert.Equal(t, 100.0, ed.model.State().Component("h").Width)
	assert.Equal(t, 90.0, ed.model.State().Component("m").Rotation)
}

func TestDeleteSelectionIsOneUndoStep(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "tank", 0, 0, "a")
	place(t, ed, "tank", 100, 0, "b")
	place(t, ed, "tank", 200, 0, "c")
	ed.selected = []string{"a", "b", "c"}
	depth, _ := ed.model.HistoryDepth()

	ed.deleteSelected()
	assert.Empty(t, ed.model.State().Components)
	after, _ := ed.model.HistoryDepth()
	assert.Equal(t, depth+1, after)

	ed.undo()
	assert.Len(t, ed.model.State().Components, 3)
}

func TestAddAnchorAtCursor(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "lamp_OFF.png", 0, 0, "lamp")
	ed.selected = []string{"lamp"}
	ed.cursorCol, ed.cursorRow = 4, 2 // canvas (22.5, 25)

	ed.addAnchorAtCursor()
	c := ed.model.State().Component("lamp")
	require.Len(t, c.ConnectionPoints, 5)
	assert.InDelta(t, 0.45, c.ConnectionPoints[4].X, 1e-9)
	assert.InDelta(t, 0.5, c.ConnectionPoints[4].Y, 1e-9)
}

func TestCycleGridPersistsConfig(t *testing.T) {
	ed := newTestEditor(t)
	ed.cycleGrid()
	assert.Equal(t, "grey", ed.config.Grid)
	g := diagram.GridOptions[diagram.GridGrey]
	assert.Equal(t, g.Grid, ed.model.State().GridColor)
	assert.Equal(t, "grey", LoadConfig(ed.configPath).Grid)
}

func TestApplyRemoteToggle(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "lamp_OFF.png", 0, 0, "comp-sim1")
	ed.modified = false
	ed.applier = &relay.Applier{Model: ed.model}

	ed.applyRemote(relayMessage(`{"id":"data-id=comp-sim1","isOn":true}`))
	assert.True(t, ed.model.State().Component("comp-sim1").On())
	assert.False(t, ed.modified)

	ed.applyRemote(relayMessage(`{"id":"ghost","isOn":true}`))
	ed.applyRemote(relayMessage(`not json`))
}

func TestQuitAsksWhenModified(t *testing.T) {
	ed := newTestEditor(t)
	assert.True(t, ed.quit())

	place(t, ed, "lamp_OFF.png", 0, 0, "lamp")
	assert.False(t, ed.quit())
	assert.Equal(t, ModeInput, ed.mode)
	assert.True(t, strings.HasPrefix(ed.inputPrompt, "Unsaved changes"))
}

func TestSaveAndExport(t *testing.T) {
	ed := newTestEditor(t)
	dir := t.TempDir()
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	place(t, ed, "lamp_OFF.png", 200, 0, "lamp")
	_, err := ed.model.Connect(
		diagram.AnchorRef{ComponentID: "sw", Index: diagram.AnchorRight},
		diagram.AnchorRef{ComponentID: "lamp", Index: diagram.AnchorLeft},
		diagram.ConnDouble, nil)
	require.NoError(t, err)

	ed.filename = filepath.Join(dir, "plant.json")
	ed.save()
	assert.False(t, ed.modified)
	assert.FileExists(t, ed.filename)

	for _, format := range []string{"png", "svg", "dot"} {
		ed.config.ExportFormat = format
		ed.export()
		assert.Equal(t, MsgSuccess, ed.messageType, ed.message)
		assert.FileExists(t, filepath.Join(dir, "plant."+format))
	}
	dot, err := os.ReadFile(filepath.Join(dir, "plant.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(dot), "dir=both")

	other := newTestEditor(t)
	require.NoError(t, other.loadFile(ed.filename))
	assert.Len(t, other.model.State().Connections, 1)
	assert.False(t, other.model.CanUndo())
}

func TestDrawRendersSidebarAndComponents(t *testing.T) {
	ed := newTestEditor(t)
	place(t, ed, "switch_OFF.png", 0, 0, "sw")
	place(t, ed, "lamp_OFF.png", 200, 0, "lamp")
	_, err := ed.model.Connect(
		diagram.AnchorRef{ComponentID: "sw", Index: diagram.AnchorRight},
		diagram.AnchorRef{ComponentID: "lamp", Index: diagram.AnchorLeft},
		diagram.ConnCurve, nil)
	require.NoError(t, err)
	ed.selected = []string{"sw"}
	ed.selectedConn = ed.model.State().Connections[0].ID
	ed.model.BeginStroke(geom.Point{X: 10, Y: 300})
	ed.model.Update(geom.Point{X: 60, Y: 320})

	ed.draw()

	w, _ := ed.screen.Size()
	assert.Equal(t, "Diagram", readRow(ed, w-sidebarWidth+2, 0, 7))
	r, _, _, _ := ed.screen.GetContent(0, 0)
	assert.Equal(t, '┌', r)

	for _, mode := range []Mode{ModeHelp, ModePalette, ModeInput} {
		ed.mode = mode
		ed.draw()
	}
}

func readRow(ed *Editor, x, y, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		r, _, _, _ := ed.screen.GetContent(x+i, y)
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestTermColor(t *testing.T) {
	assert.Equal(t, tcell.NewRGBColor(0x55, 0x55, 0x55), termColor("#555", tcell.ColorDefault))
	assert.Equal(t, tcell.ColorWhite, termColor("white", tcell.ColorDefault))
	assert.Equal(t, tcell.ColorGray, termColor("grey", tcell.ColorDefault))
	assert.Equal(t, tcell.ColorTeal, termColor("", tcell.ColorTeal))
	assert.Equal(t, tcell.ColorTeal, termColor("#zzzzzz", tcell.ColorTeal))
}

func TestComponentLabel(t *testing.T) {
	assert.Equal(t, "lamp", componentLabel(&diagram.Component{Kind: "lamp_ON.png", IsOn: new(bool)}))
	assert.Equal(t, "busbar", componentLabel(&diagram.Component{Kind: "busbar.png"}))
	assert.Equal(t, "Pump A", componentLabel(&diagram.Component{Kind: "motor_OFF.png", Text: "Pump A"}))
}

func TestArrowGlyph(t *testing.T) {
	assert.Equal(t, '▶', arrowGlyph(geom.Point{X: 10, Y: 1}))
	assert.Equal(t, '◀', arrowGlyph(geom.Point{X: -10}))
	assert.Equal(t, '▼', arrowGlyph(geom.Point{Y: 3}))
	assert.Equal(t, '▲', arrowGlyph(geom.Point{X: 1, Y: -3}))
}
