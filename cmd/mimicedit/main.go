// Command mimicedit is a TUI editor for mimic diagrams.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/relay"
)

// Editor holds all editor state
type Editor struct {
	screen      tcell.Screen
	model       *diagram.Model
	filename    string
	modified    bool
	mode        Mode
	message     string
	messageType MessageType
	config      Config
	configPath  string
	log         *logging.Logger

	// Canvas state
	view      viewport
	cursorCol int
	cursorRow int
	tool      Tool
	connKind  diagram.ConnKind

	// Selection
	selected     []string // component ids
	selectedConn string

	// Mouse gesture in progress
	mouseDown bool

	// Palette state
	paletteSelected int

	// Input state
	inputBuffer string
	inputPrompt string
	inputAction func(string)

	// Help scroll state
	helpScrollOffset int

	// Relay connection, nil when editing offline
	relay   *relay.Client
	applier *relay.Applier
	cancel  context.CancelFunc

	// Message flash state, read by the refresh ticker
	messageFlashStart atomic.Int64 // Unix milliseconds when message was shown
}

// Mode represents editor mode
type Mode int

const (
	ModeCanvas Mode = iota
	ModeInput
	ModePalette
	ModeHelp
)

// Tool is what a left click on empty canvas does.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPencil
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

// Interrupt payloads posted from the relay goroutine. They are applied on
// the UI goroutine, which owns the model.
type (
	relayMessage []byte
	relayClosed  struct{ err error }
)

// Canvas layout
const (
	sidebarWidth = 30
	statusRows   = 2
)

var connKinds = []diagram.ConnKind{
	diagram.ConnSingle,
	diagram.ConnDouble,
	diagram.ConnPlain,
	diagram.ConnCurve,
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the editor; logs go to a file or nowhere.
	logging.Default().SetOutput(io.Discard)
	if path := os.Getenv("MIMIC_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log %s: %v\n", path, err)
			os.Exit(1)
		}
		defer f.Close()
		logging.Default().SetOutput(f)
		logging.SetLevel(logging.LevelDebug)
	}

	ed := newEditor(ConfigPath())

	// Check command line
	if len(os.Args) > 1 {
		ed.filename = os.Args[1]
		if err := ed.loadFile(ed.filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", ed.filename, err)
			os.Exit(1)
		}
	}

	url := ed.config.RelayURL
	if env := os.Getenv("MIMIC_RELAY"); env != "" {
		url = env
	}

	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	screen.Clear()
	ed.screen = screen

	if url != "" {
		ed.connectRelay(url)
	}

	// Main loop
	ed.run()

	ed.disconnectRelay()
	screen.Fini()
}

func newEditor(configPath string) *Editor {
	ed := &Editor{
		model:      diagram.New(),
		configPath: configPath,
		config:     LoadConfig(configPath),
		connKind:   diagram.ConnSingle,
		log:        logging.Named("mimicedit"),
	}
	ed.model.SetGridOption(diagram.GridOption(ed.config.Grid))
	ed.model.Load(ed.model.Snapshot()) // the grid choice is the baseline, not an undo step
	ed.model.Subscribe(func(ch diagram.Change) {
		if ch.Op != "load" && ch.Op != "remote-toggle" {
			ed.modified = true
		}
	})
	return ed
}

func (ed *Editor) run() {
	// Use a goroutine to send periodic refresh events during any flash animation
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond) // 20fps for smooth flash
		defer ticker.Stop()
		for range ticker.C {
			start := ed.messageFlashStart.Load()
			if start == 0 {
				continue
			}
			elapsed := time.Now().UnixMilli() - start
			if elapsed >= 0 && elapsed < 700 {
				ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			switch data := ev.Data().(type) {
			case relayMessage:
				ed.applyRemote(data)
			case relayClosed:
				ed.relay = nil
				ed.showMessage("Relay disconnected: "+data.err.Error(), MsgWarning)
			}
		case nil:
			return
		}
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	// Global shortcuts (Ctrl or Cmd on macOS)
	mod := ev.Modifiers()
	isCtrlOrCmd := func(key tcell.Key, r rune) bool {
		if ev.Key() == key {
			return true
		}
		// Cmd+key is reported as Meta+rune (or Alt+rune) by some terminals
		if mod&(tcell.ModMeta|tcell.ModAlt) != 0 && ev.Rune() == r {
			return true
		}
		return false
	}

	if ed.mode == ModeCanvas {
		if isCtrlOrCmd(tcell.KeyCtrlC, 'c') {
			ed.copyToClipboard()
			return false
		}
		if isCtrlOrCmd(tcell.KeyCtrlV, 'v') {
			ed.pasteFromClipboard()
			return false
		}
		if isCtrlOrCmd(tcell.KeyCtrlS, 's') {
			ed.save()
			return false
		}
		if isCtrlOrCmd(tcell.KeyCtrlZ, 'z') {
			ed.undo()
			return false
		}
		if isCtrlOrCmd(tcell.KeyCtrlY, 'y') {
			ed.redo()
			return false
		}
		if isCtrlOrCmd(tcell.KeyCtrlE, 'e') {
			ed.export()
			return false
		}
	}

	switch ed.mode {
	case ModeCanvas:
		return ed.handleCanvasKey(ev)
	case ModeInput:
		return ed.handleInputKey(ev)
	case ModePalette:
		return ed.handlePaletteKey(ev)
	case ModeHelp:
		return ed.handleHelpKey(ev)
	}
	return false
}

func (ed *Editor) handleCanvasKey(ev *tcell.EventKey) bool {
	shift := ev.Modifiers()&tcell.ModShift != 0
	switch ev.Key() {
	case tcell.KeyEscape:
		if _, ok := ed.model.Session(); ok {
			ed.model.Cancel()
			ed.mouseDown = false
			ed.showMessage("Cancelled", MsgInfo)
		} else {
			ed.clearSelection()
		}
		return false
	case tcell.KeyUp:
		ed.arrow(0, -1, shift)
		return false
	case tcell.KeyDown:
		ed.arrow(0, 1, shift)
		return false
	case tcell.KeyLeft:
		ed.arrow(-1, 0, shift)
		return false
	case tcell.KeyRight:
		ed.arrow(1, 0, shift)
		return false
	case tcell.KeyPgUp:
		ed.view.pan(0, -10)
		return false
	case tcell.KeyPgDn:
		ed.view.pan(0, 10)
		return false
	case tcell.KeyEnter:
		p := ed.cursorPoint()
		ed.press(p, false, false)
		ed.release()
		return false
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.deleteSelected()
		return false
	case tcell.KeyTab:
		ed.cycleSelection()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return ed.quit()
	case '?':
		ed.helpScrollOffset = 0
		ed.mode = ModeHelp
	case 'p', 'P':
		ed.mode = ModePalette
	case 'c', 'C':
		ed.anchorClick(ed.cursorPoint())
	case 'k', 'K':
		ed.cycleConnKind()
	case 't', 'T', ' ':
		ed.toggleAt(ed.cursorPoint())
	case 'r':
		ed.rotateSelected(90)
	case 'R':
		ed.rotateSelected(-90)
	case '+', '=':
		ed.resizeSelected(diagram.GridSize)
	case '-', '_':
		ed.resizeSelected(-diagram.GridSize)
	case 'e', 'E':
		ed.editText()
	case 'a', 'A':
		ed.addAnchorAtCursor()
	case 'd', 'D':
		ed.togglePencil()
	case 'g', 'G':
		ed.cycleGrid()
	case 'x', 'X':
		ed.toggleExportFormat()
	case 'b', 'B':
		ed.editBackground()
	case 'l', 'L':
		ed.model.Relayout()
		ed.showMessage("Re-routed all connections", MsgSuccess)
	case '[':
		ed.zoom(-1)
	case ']':
		ed.zoom(1)
	}
	return false
}

// arrow moves the cursor, or the selection when shift is held.
func (ed *Editor) arrow(dc, dr int, shift bool) {
	if shift && len(ed.selected) > 0 {
		dx := float64(dc) * diagram.GridSize
		dy := float64(dr) * diagram.GridSize
		if err := ed.model.MoveSelection(ed.selected, dx, dy); err != nil {
			ed.showMessage("Error: "+err.Error(), MsgError)
		}
		return
	}
	ed.cursorCol += dc
	ed.cursorRow += dr
	ed.keepCursorVisible()
}

func (ed *Editor) keepCursorVisible() {
	w, h := ed.canvasSize()
	switch {
	case ed.cursorCol < 0:
		ed.view.pan(ed.cursorCol, 0)
		ed.cursorCol = 0
	case ed.cursorCol >= w && w > 0:
		ed.view.pan(ed.cursorCol-w+1, 0)
		ed.cursorCol = w - 1
	}
	switch {
	case ed.cursorRow < 0:
		ed.view.pan(0, ed.cursorRow)
		ed.cursorRow = 0
	case ed.cursorRow >= h && h > 0:
		ed.view.pan(0, ed.cursorRow-h+1)
		ed.cursorRow = h - 1
	}
}

func (ed *Editor) canvasSize() (int, int) {
	if ed.screen == nil {
		return 0, 0
	}
	w, h := ed.screen.Size()
	return w - sidebarWidth, h - statusRows
}

func (ed *Editor) cursorPoint() geom.Point {
	return ed.view.toCanvas(ed.cursorCol, ed.cursorRow)
}

func (ed *Editor) zoom(delta int) {
	ed.view.setZoom(ed.view.zoom+delta, ed.cursorCol, ed.cursorRow)
	ed.showMessage(fmt.Sprintf("Zoom: %g units/col", ed.view.cellW()), MsgInfo)
}

func (ed *Editor) handleInputKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeCanvas
	case tcell.KeyEnter:
		ed.mode = ModeCanvas
		if ed.inputAction != nil {
			ed.inputAction(ed.inputBuffer)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(ed.inputBuffer) > 0 {
			r := []rune(ed.inputBuffer)
			ed.inputBuffer = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		ed.inputBuffer += string(ev.Rune())
	}
	return false
}

func (ed *Editor) prompt(label, initial string, action func(string)) {
	ed.inputPrompt = label
	ed.inputBuffer = initial
	ed.inputAction = action
	ed.mode = ModeInput
}

func (ed *Editor) handlePaletteKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeCanvas
	case tcell.KeyUp:
		if ed.paletteSelected > 0 {
			ed.paletteSelected--
		}
	case tcell.KeyDown:
		if ed.paletteSelected < len(ed.config.Palette)-1 {
			ed.paletteSelected++
		}
	case tcell.KeyEnter:
		ed.mode = ModeCanvas
		ed.placeAtCursor(ed.config.Palette[ed.paletteSelected])
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			ed.mode = ModeCanvas
		}
	}
	return false
}

func (ed *Editor) handleHelpKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyEnter:
		ed.mode = ModeCanvas
	case tcell.KeyUp:
		if ed.helpScrollOffset > 0 {
			ed.helpScrollOffset--
		}
	case tcell.KeyDown:
		if ed.helpScrollOffset < len(helpLines)-1 {
			ed.helpScrollOffset++
		}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q', '?':
			ed.mode = ModeCanvas
		case 'j':
			if ed.helpScrollOffset < len(helpLines)-1 {
				ed.helpScrollOffset++
			}
		case 'k':
			if ed.helpScrollOffset > 0 {
				ed.helpScrollOffset--
			}
		}
	}
	return false
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	if ed.mode != ModeCanvas {
		return
	}
	col, row := ev.Position()
	w, h := ed.canvasSize()
	inCanvas := col < w && row < h
	buttons := ev.Buttons()
	p := ed.view.toCanvas(col, row)

	switch {
	case buttons&tcell.WheelUp != 0:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			ed.view.setZoom(ed.view.zoom-1, col, row)
		} else {
			ed.view.pan(0, -3)
		}
	case buttons&tcell.WheelDown != 0:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			ed.view.setZoom(ed.view.zoom+1, col, row)
		} else {
			ed.view.pan(0, 3)
		}
	case buttons&tcell.Button1 != 0:
		if !ed.mouseDown {
			if !inCanvas {
				return
			}
			ed.cursorCol, ed.cursorRow = col, row
			mod := ev.Modifiers()
			ed.press(p, mod&tcell.ModShift != 0, mod&tcell.ModCtrl != 0)
			return
		}
		if _, ok := ed.model.Session(); ok {
			ed.model.Update(p)
		}
	case buttons&tcell.Button2 != 0:
		// Right click
		if inCanvas && !ed.mouseDown {
			ed.toggleAt(p)
		}
	case buttons == tcell.ButtonNone:
		if ed.mouseDown {
			ed.release()
		}
	}
}

// press starts whatever gesture p lands on. additive extends the
// selection; anchorMode drags anchors instead of connecting them.
func (ed *Editor) press(p geom.Point, additive, anchorMode bool) {
	s := ed.model.State()
	tol := ed.view.tolerance()

	if sess, ok := ed.model.Session(); ok && sess.Kind == diagram.SessionConnect {
		if _, ok := anchorAt(s, p, tol); ok {
			ed.anchorClick(p)
			return
		}
		ed.model.AddPendingBend(geom.SnapPoint(p, diagram.GridSize))
		return
	}

	ed.mouseDown = true
	if ed.tool == ToolPencil {
		ed.begin(ed.model.BeginStroke(p))
		return
	}

	if ref, ok := anchorAt(s, p, tol); ok {
		if anchorMode {
			ed.begin(ed.model.BeginAnchorDrag(ref.ComponentID, ref.Index, p))
			return
		}
		ed.mouseDown = false
		ed.anchorClick(p)
		return
	}

	if ed.selectedConn != "" {
		if c := s.Connection(ed.selectedConn); c != nil {
			if i := bendAt(c, p, tol); i >= 0 {
				ed.begin(ed.model.BeginBendDrag(c.ID, i, p))
				return
			}
			if curveHandleAt(c, p, tol) {
				ed.begin(ed.model.BeginCurveHandle(c.ID, p))
				return
			}
		}
	}

	if len(ed.selected) == 1 {
		if c := s.Component(ed.selected[0]); c != nil && resizeHandleAt(c, p, tol) {
			ed.begin(ed.model.BeginResize(c.ID, p))
			return
		}
	}

	if id := componentAt(s, p); id != "" {
		ed.selectedConn = ""
		switch {
		case additive && !ed.isSelected(id):
			ed.selected = append(ed.selected, id)
		case !ed.isSelected(id):
			ed.selected = []string{id}
		}
		ed.begin(ed.model.BeginDrag(ed.selected, p))
		return
	}

	ed.mouseDown = false
	if id := connectionAt(s, p, tol); id != "" {
		ed.selected = nil
		ed.selectedConn = id
		return
	}
	ed.clearSelection()
}

func (ed *Editor) begin(err error) {
	if err != nil {
		ed.mouseDown = false
		ed.showMessage("Error: "+err.Error(), MsgError)
	}
}

func (ed *Editor) release() {
	ed.mouseDown = false
	sess, ok := ed.model.Session()
	if !ok || sess.Kind == diagram.SessionConnect {
		return
	}
	if err := ed.model.End(); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
	}
}

func (ed *Editor) isSelected(id string) bool {
	for _, s := range ed.selected {
		if s == id {
			return true
		}
	}
	return false
}

func (ed *Editor) clearSelection() {
	ed.selected = nil
	ed.selectedConn = ""
}

func (ed *Editor) cycleSelection() {
	comps := ed.model.State().Components
	if len(comps) == 0 {
		return
	}
	next := 0
	if len(ed.selected) == 1 {
		for i, c := range comps {
			if c.ID == ed.selected[0] {
				next = (i + 1) % len(comps)
			}
		}
	}
	ed.selected = []string{comps[next].ID}
	ed.selectedConn = ""
}

// Editing actions

func (ed *Editor) placeAtCursor(kind string) {
	p := geom.SnapPoint(ed.cursorPoint(), diagram.GridSize)
	c, err := ed.model.PlaceComponent(kind, p.X, p.Y, "")
	if err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	ed.selected = []string{c.ID}
	ed.selectedConn = ""
	ed.showMessage("Placed "+c.ID, MsgSuccess)
}

func (ed *Editor) anchorClick(p geom.Point) {
	ref, ok := anchorAt(ed.model.State(), p, ed.view.tolerance())
	if !ok {
		ed.showMessage("No anchor under cursor", MsgWarning)
		return
	}
	conn, err := ed.model.AnchorClick(ref, ed.connKind)
	if err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	if conn == nil {
		if _, pending := ed.model.Session(); pending {
			ed.showMessage(fmt.Sprintf("Connecting from %s, click a second anchor", ref.ComponentID), MsgInfo)
		}
		return
	}
	ed.selected = nil
	ed.selectedConn = conn.ID
	ed.showMessage(fmt.Sprintf("Connected %s to %s", conn.Start.ComponentID, conn.End.ComponentID), MsgSuccess)
}

func (ed *Editor) cycleConnKind() {
	for i, k := range connKinds {
		if k == ed.connKind {
			ed.connKind = connKinds[(i+1)%len(connKinds)]
			break
		}
	}
	if ed.selectedConn != "" {
		if err := ed.model.SetConnectionKind(ed.selectedConn, ed.connKind); err != nil {
			ed.showMessage("Error: "+err.Error(), MsgError)
			return
		}
	}
	ed.showMessage("Connection type: "+string(ed.connKind), MsgInfo)
}

// toggleAt toggles the component under p, falling back to the selection.
func (ed *Editor) toggleAt(p geom.Point) {
	id := componentAt(ed.model.State(), p)
	if id == "" && len(ed.selected) == 1 {
		id = ed.selected[0]
	}
	if id == "" {
		return
	}
	res, err := ed.model.Toggle(id)
	if err != nil {
		if errors.Is(err, diagram.ErrNotToggleable) {
			ed.showMessage(id+" has no on/off state", MsgWarning)
		} else {
			ed.showMessage("Error: "+err.Error(), MsgError)
		}
		return
	}
	ed.publishToggles(id, res)
	c := ed.model.State().Component(id)
	state := "OFF"
	if c.On() {
		state = "ON"
	}
	ed.showMessage(fmt.Sprintf("%s %s (%d downstream)", id, state, len(res.Changed)), MsgSuccess)
}

// publishToggles sends per-component toggles so browser peers, which only
// understand toggle messages, follow the propagation.
func (ed *Editor) publishToggles(source string, res diagram.PropagationResult) {
	if ed.relay == nil {
		return
	}
	s := ed.model.State()
	for _, id := range append([]string{source}, res.Changed...) {
		if c := s.Component(id); c != nil {
			ed.relay.PublishToggle(id, c.On())
		}
	}
}

func (ed *Editor) deleteSelected() {
	switch {
	case ed.selectedConn != "":
		if err := ed.model.DeleteConnection(ed.selectedConn); err != nil {
			ed.showMessage("Error: "+err.Error(), MsgError)
			return
		}
		ed.showMessage("Deleted "+ed.selectedConn, MsgSuccess)
	case len(ed.selected) > 0:
		if err := ed.model.DeleteSelection(ed.selected); err != nil {
			ed.showMessage("Error: "+err.Error(), MsgError)
			return
		}
		ed.showMessage(fmt.Sprintf("Deleted %d component(s)", len(ed.selected)), MsgSuccess)
	default:
		s := ed.model.State()
		p := ed.cursorPoint()
		for _, st := range s.Strokes {
			if geom.DistToPolyline(p, st.Points) <= ed.view.tolerance() {
				ed.model.DeleteStroke(st.ID)
				ed.showMessage("Deleted stroke", MsgSuccess)
				return
			}
		}
	}
	ed.clearSelection()
}

func (ed *Editor) rotateSelected(deg float64) {
	if err := ed.model.RotateSelection(ed.selected, deg); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
	}
}

func (ed *Editor) resizeSelected(delta float64) {
	if err := ed.model.ResizeSelection(ed.selected, delta); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
	}
}

func (ed *Editor) editText() {
	if len(ed.selected) != 1 {
		ed.showMessage("Select one component to label", MsgWarning)
		return
	}
	id := ed.selected[0]
	c := ed.model.State().Component(id)
	if c == nil {
		return
	}
	ed.prompt("Text: ", c.Text, func(s string) {
		if err := ed.model.SetText(id, s); err != nil {
			ed.showMessage("Error: "+err.Error(), MsgError)
		}
	})
}

// addAnchorAtCursor adds an anchor to the selected component at the
// cursor, in the component's unit coordinates.
func (ed *Editor) addAnchorAtCursor() {
	if len(ed.selected) != 1 {
		ed.showMessage("Select one component to add an anchor", MsgWarning)
		return
	}
	c := ed.model.State().Component(ed.selected[0])
	if c == nil || c.Width == 0 || c.Height == 0 {
		return
	}
	local := geom.Rotate(ed.cursorPoint(), geom.Point{X: c.X, Y: c.Y}, -c.Rotation)
	u := geom.Point{X: (local.X - c.X) / c.Width, Y: (local.Y - c.Y) / c.Height}
	i, err := ed.model.AddAnchor(c.ID, u)
	if err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	ed.showMessage(fmt.Sprintf("Added anchor %d to %s", i, c.ID), MsgSuccess)
}

func (ed *Editor) togglePencil() {
	if ed.tool == ToolPencil {
		ed.tool = ToolSelect
		ed.showMessage("Select tool", MsgInfo)
		return
	}
	ed.tool = ToolPencil
	ed.clearSelection()
	ed.showMessage("Pencil tool", MsgInfo)
}

func (ed *Editor) cycleGrid() {
	order := []diagram.GridOption{diagram.GridWhite, diagram.GridGrey, diagram.GridBlack}
	next := order[0]
	for i, g := range order {
		if string(g) == ed.config.Grid {
			next = order[(i+1)%len(order)]
		}
	}
	if err := ed.model.SetGridOption(next); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	ed.config.Grid = string(next)
	ed.saveConfig()
	ed.showMessage("Grid: "+string(next), MsgInfo)
}

func (ed *Editor) toggleExportFormat() {
	switch ed.config.ExportFormat {
	case diagramfile.FormatPNG:
		ed.config.ExportFormat = diagramfile.FormatSVG
	case diagramfile.FormatSVG:
		ed.config.ExportFormat = diagramfile.FormatDOT
	default:
		ed.config.ExportFormat = diagramfile.FormatPNG
	}
	ed.saveConfig()
	ed.showMessage("Export format: "+strings.ToUpper(ed.config.ExportFormat), MsgInfo)
}

func (ed *Editor) editBackground() {
	ed.prompt("Background image: ", ed.model.State().BackgroundImage, func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			ed.model.ClearBackgroundImage()
			ed.showMessage("Background cleared", MsgInfo)
			return
		}
		ed.model.SetBackgroundImage(s)
		ed.showMessage("Background set", MsgSuccess)
	})
}

func (ed *Editor) saveConfig() {
	if err := SaveConfig(ed.configPath, ed.config); err != nil {
		ed.log.Warn("saving config: %v", err)
	}
}

func (ed *Editor) undo() {
	if !ed.model.Undo() {
		ed.showMessage("Nothing to undo", MsgInfo)
		return
	}
	ed.pruneSelection()
	ed.showMessage("Undo", MsgSuccess)
}

func (ed *Editor) redo() {
	if !ed.model.Redo() {
		ed.showMessage("Nothing to redo", MsgInfo)
		return
	}
	ed.pruneSelection()
	ed.showMessage("Redo", MsgSuccess)
}

// pruneSelection drops selected ids that no longer exist.
func (ed *Editor) pruneSelection() {
	s := ed.model.State()
	kept := ed.selected[:0]
	for _, id := range ed.selected {
		if s.Component(id) != nil {
			kept = append(kept, id)
		}
	}
	ed.selected = kept
	if ed.selectedConn != "" && s.Connection(ed.selectedConn) == nil {
		ed.selectedConn = ""
	}
}

func (ed *Editor) quit() bool {
	if !ed.modified {
		return true
	}
	ed.prompt("Unsaved changes. Quit anyway? (y/n): ", "", func(s string) {
		if strings.ToLower(strings.TrimSpace(s)) == "y" {
			ed.modified = false
			ed.screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
		}
	})
	return false
}

// Clipboard

func (ed *Editor) copyToClipboard() {
	data, err := diagramfile.ToJSON(ed.model.State(), true)
	if err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		ed.showMessage("Clipboard error: "+err.Error(), MsgError)
		return
	}
	ed.showMessage(fmt.Sprintf("Copied diagram to clipboard (%d components)", len(ed.model.State().Components)), MsgSuccess)
}

func (ed *Editor) pasteFromClipboard() {
	text, err := clipboard.ReadAll()
	if err != nil {
		ed.showMessage("Clipboard error: "+err.Error(), MsgError)
		return
	}
	s, err := diagramfile.ParseJSON([]byte(text))
	if err != nil {
		ed.showMessage("Clipboard does not hold a diagram", MsgError)
		return
	}
	if err := ed.model.Load(s); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	ed.clearSelection()
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Pasted diagram (%d components)", len(s.Components)), MsgSuccess)
}

// File operations

func (ed *Editor) loadFile(path string) error {
	s, err := diagramfile.Load(path)
	if err != nil {
		return err
	}
	if err := ed.model.Load(s); err != nil {
		return err
	}
	ed.modified = false
	ed.config.LastDir = filepath.Dir(path)
	return nil
}

func (ed *Editor) save() {
	if ed.filename == "" {
		ed.prompt("Save as: ", filepath.Join(ed.config.LastDir, "diagram.json"), func(s string) {
			s = strings.TrimSpace(s)
			if s == "" {
				return
			}
			ed.filename = s
			ed.save()
		})
		return
	}
	if err := diagramfile.Save(ed.filename, ed.model.State()); err != nil {
		ed.showMessage("Error: "+err.Error(), MsgError)
		return
	}
	ed.modified = false
	ed.config.LastDir = filepath.Dir(ed.filename)
	ed.saveConfig()
	ed.showMessage("Saved: "+ed.filename, MsgSuccess)
}

// exportPath is the filename the current export format writes to.
func (ed *Editor) exportPath() string {
	base := "diagram"
	if ed.filename != "" {
		base = strings.TrimSuffix(ed.filename, filepath.Ext(ed.filename))
	}
	return base + "." + ed.config.ExportFormat
}

func (ed *Editor) export() {
	path := ed.exportPath()
	if err := exportState(ed.model.State(), path, ed.config.ExportFormat); err != nil {
		ed.showMessage("Export error: "+err.Error(), MsgError)
		return
	}
	ed.showMessage("Exported: "+path, MsgSuccess)
}

func exportState(s *diagram.State, path, format string) error {
	if format == diagramfile.FormatDOT {
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return os.WriteFile(path, []byte(diagramfile.GenerateDOT(s, title)), 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch format {
	case diagramfile.FormatSVG:
		opts := diagramfile.DefaultSVGOptions()
		opts.AssetDir = "assets"
		err = diagramfile.RenderSVG(s, f, opts)
	default:
		err = diagramfile.RenderPNG(s, f, diagramfile.DefaultPNGOptions())
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// Relay

func (ed *Editor) connectRelay(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := relay.Dial(ctx, url, logging.Named("relay"))
	cancel()
	if err != nil {
		ed.showMessage("Relay unavailable: "+err.Error(), MsgWarning)
		return
	}
	ed.relay = client
	ed.applier = &relay.Applier{Model: ed.model, Log: logging.Named("relay.apply")}
	client.Attach(ed.model)

	ctx, ed.cancel = context.WithCancel(context.Background())
	screen := ed.screen
	go func() {
		err := client.Run(ctx, func(msg []byte) {
			screen.PostEvent(tcell.NewEventInterrupt(relayMessage(msg)))
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, relay.ErrClosed) {
			screen.PostEvent(tcell.NewEventInterrupt(relayClosed{err}))
		}
	}()
	ed.showMessage("Connected to "+url, MsgSuccess)
}

func (ed *Editor) disconnectRelay() {
	if ed.cancel != nil {
		ed.cancel()
	}
	if ed.relay != nil {
		ed.relay.Close()
	}
}

func (ed *Editor) applyRemote(msg []byte) {
	if ed.applier == nil {
		return
	}
	changed, err := ed.applier.Apply(msg)
	if err != nil {
		ed.log.Debug("relay message: %v", err)
		return
	}
	if changed {
		ed.showMessage("Remote update", MsgInfo)
	}
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart.Store(time.Now().UnixMilli())
	// Trigger immediate refresh for flash animation
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
