package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/route"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleMenu       = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleMenuSel    = tcell.StyleDefault.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
	styleOn         = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleOff        = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePassive    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSelected   = tcell.StyleDefault.Background(tcell.ColorTeal).Foreground(tcell.ColorBlack)
	styleAnchor     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHandle     = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 162, 200)) // Lilac
	styleStroke     = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleSidebar    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray) // Help bar on default background
	styleCursor     = tcell.StyleDefault.Background(tcell.ColorDarkGray)
	styleInput      = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// gridStep is the canvas spacing of the dots drawn for the grid.
const gridStep = 50.0

var helpLines = []string{
	"Canvas",
	"  Arrows         move cursor (Shift: move selection)",
	"  PgUp/PgDn      scroll",
	"  [ ]            zoom out / in (Ctrl+wheel)",
	"  Enter          click at cursor",
	"  Tab            select next component",
	"",
	"Components",
	"  p              place from palette",
	"  t / Space      toggle on/off (right click)",
	"  r / R          rotate +90 / -90",
	"  + / -          grow / shrink",
	"  e              edit text",
	"  a              add anchor at cursor",
	"  Del            delete selection",
	"",
	"Connections",
	"  c              click anchor under cursor",
	"  k              cycle connection type",
	"  l              re-route all connections",
	"  Ctrl+drag      move an anchor",
	"  Esc            cancel pending connection",
	"",
	"Drawing",
	"  d              pencil on / off",
	"  g              cycle grid colors",
	"  b              set background image",
	"",
	"File",
	"  Ctrl+S         save",
	"  Ctrl+E         export (x: cycle PNG/SVG/DOT)",
	"  Ctrl+C/V       copy / paste diagram JSON",
	"  Ctrl+Z/Y       undo / redo",
	"  q              quit",
}

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()

	ed.drawCanvas(w-sidebarWidth, h-statusRows)
	ed.drawSidebar(w, h)

	switch ed.mode {
	case ModeInput:
		ed.drawInputBox(w, h)
	case ModePalette:
		ed.drawPalette(w, h)
	case ModeHelp:
		ed.drawHelp(w, h)
	}

	ed.drawStatusBar(w, h)
}

// termColor maps a diagram color to a terminal color.
func termColor(s string, fallback tcell.Color) tcell.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return fallback
		}
		r, g, b := c.RGB255()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	if s == "grey" {
		s = "gray"
	}
	if c := tcell.GetColor(s); c != tcell.ColorDefault {
		return c
	}
	return fallback
}

// canvasView clips drawing to the canvas area.
type canvasView struct {
	ed   *Editor
	w, h int
}

func (cv canvasView) set(col, row int, r rune, style tcell.Style) {
	if col < 0 || row < 0 || col >= cv.w || row >= cv.h {
		return
	}
	cv.ed.screen.SetContent(col, row, r, nil, style)
}

func (cv canvasView) setAt(p geom.Point, r rune, style tcell.Style) {
	col, row := cv.ed.view.toScreen(p)
	cv.set(col, row, r, style)
}

func (cv canvasView) text(col, row int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		cv.set(col+i, row, r, style)
	}
}

// line draws a straight run of cells between two canvas points.
func (cv canvasView) line(a, b geom.Point, style tcell.Style) {
	c0, r0 := cv.ed.view.toScreen(a)
	c1, r1 := cv.ed.view.toScreen(b)
	glyph := '·'
	switch {
	case r0 == r1:
		glyph = '─'
	case c0 == c1:
		glyph = '│'
	}
	// Bresenham
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		cv.set(c0, r0, glyph, style)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func (cv canvasView) polyline(pts []geom.Point, style tcell.Style) {
	for i := 1; i < len(pts); i++ {
		cv.line(pts[i-1], pts[i], style)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func (ed *Editor) drawCanvas(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s := ed.model.State()
	cv := canvasView{ed: ed, w: w, h: h}

	bg := termColor(s.BgColor, tcell.ColorDefault)
	base := styleDefault.Background(bg)
	gridStyle := base.Foreground(termColor(s.GridColor, tcell.ColorGray))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			r := ' '
			if onGrid(ed.view, col, row) {
				r = '·'
			}
			cv.set(col, row, r, gridStyle)
		}
	}
	if s.BackgroundImage != "" {
		cv.text(0, 0, "["+filepath.Base(s.BackgroundImage)+"]", gridStyle)
	}

	for i := range s.Strokes {
		cv.polyline(s.Strokes[i].Points, base.Foreground(styleFg(styleStroke)))
	}

	for i := range s.Components {
		ed.drawComponent(cv, &s.Components[i], base)
	}

	for i := range s.Connections {
		ed.drawConnection(cv, &s.Connections[i], base)
	}

	ed.drawSession(cv, base)

	// Anchors of the selection, or of everything while connecting
	sess, active := ed.model.Session()
	connecting := active && sess.Kind == diagram.SessionConnect
	for i := range s.Components {
		c := &s.Components[i]
		if !connecting && !ed.isSelected(c.ID) {
			continue
		}
		for j := range c.ConnectionPoints {
			a, _ := c.AnchorAt(j)
			cv.setAt(a, '○', base.Foreground(styleFg(styleAnchor)))
		}
		if len(ed.selected) == 1 && ed.selected[0] == c.ID {
			fp := c.Footprint()
			cv.setAt(geom.Point{X: fp.Right(), Y: fp.Bottom()}, '◢', base.Foreground(styleFg(styleHandle)))
		}
	}

	// Cursor
	if ed.mode == ModeCanvas {
		mainc, _, style, _ := ed.screen.GetContent(ed.cursorCol, ed.cursorRow)
		fg, _, _ := style.Decompose()
		cv.set(ed.cursorCol, ed.cursorRow, mainc, styleCursor.Foreground(fg))
	}
}

// onGrid reports whether the cell contains a grid intersection.
func onGrid(v viewport, col, row int) bool {
	lo := geom.Point{X: v.offX + float64(col)*v.cellW(), Y: v.offY + float64(row)*v.cellH()}
	return crosses(lo.X, v.cellW()) && crosses(lo.Y, v.cellH())
}

func crosses(lo, span float64) bool {
	return math.Floor((lo+span)/gridStep) > math.Floor(lo/gridStep) || math.Mod(lo, gridStep) == 0
}

func styleFg(st tcell.Style) tcell.Color {
	fg, _, _ := st.Decompose()
	return fg
}

func componentStyle(c *diagram.Component, base tcell.Style) tcell.Style {
	switch {
	case !c.Toggleable():
		return base.Foreground(styleFg(stylePassive))
	case c.On():
		return base.Foreground(styleFg(styleOn))
	}
	return base.Foreground(styleFg(styleOff))
}

func (ed *Editor) drawComponent(cv canvasView, c *diagram.Component, base tcell.Style) {
	style := componentStyle(c, base)
	if ed.isSelected(c.ID) {
		style = styleSelected
	}
	fp := c.Footprint()
	c0, r0 := ed.view.toScreen(geom.Point{X: fp.Left(), Y: fp.Top()})
	c1, r1 := ed.view.toScreen(geom.Point{X: fp.Right(), Y: fp.Bottom()})

	if diagram.IsLine(c.Kind) {
		mid := fp.Center()
		if fp.W >= fp.H {
			cv.line(geom.Point{X: fp.Left(), Y: mid.Y}, geom.Point{X: fp.Right(), Y: mid.Y}, style)
		} else {
			cv.line(geom.Point{X: mid.X, Y: fp.Top()}, geom.Point{X: mid.X, Y: fp.Bottom()}, style)
		}
		return
	}

	if c1-c0 < 2 || r1-r0 < 1 {
		cv.setAt(fp.Center(), '■', style)
		return
	}
	cv.set(c0, r0, '┌', style)
	cv.set(c1, r0, '┐', style)
	cv.set(c0, r1, '└', style)
	cv.set(c1, r1, '┘', style)
	for col := c0 + 1; col < c1; col++ {
		cv.set(col, r0, '─', style)
		cv.set(col, r1, '─', style)
	}
	for row := r0 + 1; row < r1; row++ {
		cv.set(c0, row, '│', style)
		cv.set(c1, row, '│', style)
		for col := c0 + 1; col < c1; col++ {
			cv.set(col, row, ' ', style)
		}
	}

	label := componentLabel(c)
	inner := c1 - c0 - 1
	if inner > 0 {
		label = truncate(label, inner)
		row := (r0 + r1) / 2
		if row == r0 {
			row = r0 + 1
		}
		col := c0 + 1 + (inner-len([]rune(label)))/2
		cv.text(col, row, label, style)
	}
}

// componentLabel is the text shown inside a component box.
func componentLabel(c *diagram.Component) string {
	if c.Text != "" {
		return c.Text
	}
	name := strings.TrimSuffix(c.Kind, filepath.Ext(c.Kind))
	if c.Toggleable() {
		name = strings.TrimSuffix(strings.TrimSuffix(name, "_ON"), "_OFF")
	}
	return name
}

func (ed *Editor) drawConnection(cv canvasView, c *diagram.Connection, base tcell.Style) {
	style := base.Foreground(termColor(c.Color, tcell.ColorTeal))
	if c.ID == ed.selectedConn {
		style = styleSelected
	}
	pts := connectionPolyline(c)
	cv.polyline(pts, style)

	switch c.Kind {
	case diagram.ConnSingle, diagram.ConnCurve:
		ed.drawArrow(cv, pts, false, style)
	case diagram.ConnDouble:
		ed.drawArrow(cv, pts, false, style)
		ed.drawArrow(cv, pts, true, style)
	}

	if c.ID != ed.selectedConn {
		return
	}
	if c.Kind == diagram.ConnCurve {
		for _, b := range c.Bends {
			cv.setAt(b, '◇', base.Foreground(styleFg(styleHandle)))
		}
		cv.setAt(route.Midpoint(c.Path(), true), '●', base.Foreground(styleFg(styleHandle)))
		return
	}
	for _, b := range c.Bends {
		cv.setAt(b, '◆', base.Foreground(styleFg(styleHandle)))
	}
}

// drawArrow marks the end (or start) cell of a polyline with a triangle
// pointing along the last distinct segment.
func (ed *Editor) drawArrow(cv canvasView, pts []geom.Point, atStart bool, style tcell.Style) {
	if len(pts) < 2 {
		return
	}
	if atStart {
		rev := make([]geom.Point, len(pts))
		for i, p := range pts {
			rev[len(pts)-1-i] = p
		}
		pts = rev
	}
	tip := pts[len(pts)-1]
	var from geom.Point
	found := false
	for i := len(pts) - 2; i >= 0; i-- {
		if pts[i].Dist(tip) > 1e-9 {
			from, found = pts[i], true
			break
		}
	}
	if !found {
		return
	}
	cv.setAt(tip, arrowGlyph(tip.Sub(from)), style)
}

func arrowGlyph(d geom.Point) rune {
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return '▶'
		}
		return '◀'
	}
	if d.Y >= 0 {
		return '▼'
	}
	return '▲'
}

// drawSession shows the transient parts of a gesture in progress.
func (ed *Editor) drawSession(cv canvasView, base tcell.Style) {
	sess, ok := ed.model.Session()
	if !ok {
		return
	}
	style := base.Foreground(styleFg(styleHandle))
	switch sess.Kind {
	case diagram.SessionStroke:
		cv.polyline(sess.Points, base.Foreground(styleFg(styleStroke)))
	case diagram.SessionConnect:
		pts := append([]geom.Point{sess.PendingStart.Point()}, sess.PendingBends...)
		pts = append(pts, ed.cursorPoint())
		cv.polyline(pts, style)
		cv.setAt(sess.PendingStart.Point(), '●', styleAnchor)
	}
}

func (ed *Editor) drawSidebar(w, h int) {
	x := w - sidebarWidth + 2
	y := 0
	for row := 0; row < h-statusRows; row++ {
		ed.screen.SetContent(w-sidebarWidth, row, '│', nil, styleBorder)
	}

	s := ed.model.State()
	title := "Diagram"
	if ed.filename != "" {
		title = filepath.Base(ed.filename)
	}
	ed.drawString(x, y, truncate(title, sidebarWidth-4), styleSidebarH)
	y += 2

	ed.drawString(x, y, "Components:", styleSidebarH)
	y++
	for i := range s.Components {
		c := &s.Components[i]
		state := ""
		style := styleSidebar
		if c.Toggleable() {
			state = " off"
			style = styleOff
			if c.On() {
				state = " on"
				style = styleOn
			}
		}
		if ed.isSelected(c.ID) {
			style = styleMenuSel
		}
		line := truncate(fmt.Sprintf("  %s %s%s", c.ID, componentLabel(c), state), sidebarWidth-4)
		ed.drawString(x, y, line, style)
		y++
		if y >= h-12 {
			ed.drawString(x, y, "  ...", styleSidebar)
			y++
			break
		}
	}
	y++

	ed.drawString(x, y, fmt.Sprintf("Connections: %d", len(s.Connections)), styleSidebarH)
	y++
	if c := s.Connection(ed.selectedConn); c != nil {
		line := fmt.Sprintf("  %s→%s %s", c.Start.ComponentID, c.End.ComponentID, c.Kind)
		ed.drawString(x, y, truncate(line, sidebarWidth-4), styleSidebar)
		y++
	}
	ed.drawString(x, y, fmt.Sprintf("Strokes: %d", len(s.Strokes)), styleSidebarH)
	y += 2

	ed.drawString(x, y, "Tool: "+ed.toolString(), styleSidebar)
	y++
	ed.drawString(x, y, "Type: "+string(ed.connKind), styleSidebar)
	y++
	ed.drawString(x, y, "Export: "+strings.ToUpper(ed.config.ExportFormat), styleSidebar)
	y++
	relayState := "offline"
	if ed.relay != nil {
		relayState = "connected"
	}
	ed.drawString(x, y, "Relay: "+relayState, styleSidebar)
}

func (ed *Editor) toolString() string {
	if ed.tool == ToolPencil {
		return "pencil"
	}
	return "select"
}

// flashes reports whether messages of type t flash when shown.
func flashes(t MessageType) bool {
	switch t {
	case MsgError, MsgSuccess, MsgWarning:
		return true
	}
	return false
}

// flashInverted reports whether a flashing message is drawn inverted
// elapsed milliseconds after it was shown. The pattern is normal,
// inverted, normal, inverted in 125ms phases, then normal.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	// File info
	fileInfo := "[New]"
	if ed.filename != "" {
		if len(ed.filename) > 30 {
			fileInfo = filepath.Base(ed.filename)
		} else {
			fileInfo = ed.filename
		}
	}
	if ed.modified {
		fileInfo += " *"
	}
	ed.drawString(1, y, fileInfo, styleStatus)

	// Mode
	modeStr := ed.modeString()
	ed.drawString(w/2-len(modeStr)/2, y, modeStr, styleStatus)

	// Message
	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess, MsgWarning:
			style = styleMsgSuccess
		}
		if flashes(ed.messageType) {
			elapsed := time.Now().UnixMilli() - ed.messageFlashStart.Load()
			if flashInverted(elapsed) {
				style = style.Reverse(true)
			}
		}
		msg := truncate(ed.message, w/2-2)
		ed.drawString(w-len([]rune(msg))-2, y, msg, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, truncate(ed.helpString(), w-2), styleHelp)
}

func (ed *Editor) drawInputBox(w, h int) {
	boxW := 60
	boxH := 3
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleInput)
	ed.drawString(boxX+2, boxY+1, ed.inputPrompt, styleInput)
	room := boxW - 5 - len(ed.inputPrompt)
	buf := []rune(ed.inputBuffer + "_")
	if len(buf) > room && room > 0 {
		buf = buf[len(buf)-room:]
	}
	ed.drawString(boxX+2+len(ed.inputPrompt), boxY+1, string(buf), styleInput)
}

func (ed *Editor) drawPalette(w, h int) {
	boxW := 36
	boxH := len(ed.config.Palette) + 4
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2
	if boxX < 0 {
		boxX = 0
	}
	if boxY < 0 {
		boxY = 0
	}
	ed.drawTitledBox(boxX, boxY, boxW, boxH, "Place")
	for i, kind := range ed.config.Palette {
		style := styleMenu
		if i == ed.paletteSelected {
			style = styleMenuSel
		}
		line := fmt.Sprintf(" %-*s", boxW-3, truncate(kind, boxW-4))
		ed.drawString(boxX+1, boxY+2+i, line, style)
	}
}

func (ed *Editor) drawHelp(w, h int) {
	boxW := 60
	boxH := h - 4
	if boxH > len(helpLines)+4 {
		boxH = len(helpLines) + 4
	}
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2
	if boxX < 0 {
		boxX = 0
	}
	ed.drawTitledBox(boxX, boxY, boxW, boxH, "Help")
	for i := 0; i < boxH-4; i++ {
		n := ed.helpScrollOffset + i
		if n >= len(helpLines) {
			break
		}
		ed.drawString(boxX+2, boxY+2+i, truncate(helpLines[n], boxW-4), styleMenu)
	}
}

// drawTitledBox draws a bordered box with optional title
func (ed *Editor) drawTitledBox(x, y, w, h int, title string) {
	ed.drawBox(x, y, w, h, styleDefault)
	if title != "" {
		titleX := x + (w-len(title)-2)/2
		ed.screen.SetContent(titleX, y, ' ', nil, styleBorder)
		ed.drawString(titleX+1, y, title, styleSidebarH)
		ed.screen.SetContent(titleX+1+len(title), y, ' ', nil, styleBorder)
	}
}

func (ed *Editor) drawBox(x, y, w, h int, style tcell.Style) {
	// Corners
	ed.screen.SetContent(x, y, '┌', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y, '┐', nil, styleBorder)
	ed.screen.SetContent(x, y+h-1, '└', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y+h-1, '┘', nil, styleBorder)

	// Horizontal borders
	for i := x + 1; i < x+w-1; i++ {
		ed.screen.SetContent(i, y, '─', nil, styleBorder)
		ed.screen.SetContent(i, y+h-1, '─', nil, styleBorder)
	}

	// Vertical borders
	for i := y + 1; i < y+h-1; i++ {
		ed.screen.SetContent(x, i, '│', nil, styleBorder)
		ed.screen.SetContent(x+w-1, i, '│', nil, styleBorder)
	}

	// Fill
	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			ed.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		ed.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func (ed *Editor) modeString() string {
	if sess, ok := ed.model.Session(); ok {
		return strings.ToUpper(sess.Kind.String())
	}
	switch ed.mode {
	case ModeInput:
		return "INPUT"
	case ModePalette:
		return "PLACE"
	case ModeHelp:
		return "HELP"
	}
	if ed.tool == ToolPencil {
		return "PENCIL"
	}
	return ""
}

func (ed *Editor) helpString() string {
	switch ed.mode {
	case ModeCanvas:
		if sess, ok := ed.model.Session(); ok && sess.Kind == diagram.SessionConnect {
			return "Click anchor:Finish  Click canvas:Add bend  Esc:Cancel"
		}
		return "p:Place  c:Connect  k:Type  t:Toggle  r:Rotate  e:Text  d:Pencil  Del:Delete  ^S:Save  ^E:Export  ?:Help  q:Quit"
	case ModeInput:
		return "Type text  Enter:Confirm  Esc:Cancel"
	case ModePalette:
		return "↑↓:Select  Enter:Place  Esc:Cancel"
	case ModeHelp:
		return "↑↓:Scroll  Esc:Close"
	}
	return ""
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		if maxLen < 0 {
			maxLen = 0
		}
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
