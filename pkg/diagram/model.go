package diagram

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/route"
)

// Change is delivered to listeners after every committed mutation.
type Change struct {
	Op    string
	State *State // live state; clone it to keep it
}

// Listener receives change notifications.
type Listener func(Change)

// Option configures a Model.
type Option func(*Model)

// WithRouter sets the router used to lay out connections.
func WithRouter(r *route.Router) Option {
	return func(m *Model) { m.router = r }
}

// WithHistoryLimit sets the number of undo levels. Zero or less keeps
// everything.
func WithHistoryLimit(n int) Option {
	return func(m *Model) { m.historyLimit = n }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Model owns a diagram State and is the only thing that mutates it.
// It is not safe for concurrent use; callers serialize access.
type Model struct {
	state        *State
	history      *History
	historyLimit int
	session      *Session
	router       *route.Router
	log          *logging.Logger
	listeners    []Listener
	nextComp     int
}

// New creates a model holding an empty diagram.
func New(opts ...Option) *Model {
	m := &Model{
		state:        NewState(),
		router:       route.New(),
		log:          logging.Named("diagram"),
		historyLimit: DefaultHistoryLimit,
		nextComp:     1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.history = NewHistory(m.state, m.historyLimit)
	return m
}

// State returns the live state. Callers must not modify it.
func (m *Model) State() *State { return m.state }

// Snapshot returns a deep copy of the live state.
func (m *Model) Snapshot() *State { return m.state.Clone() }

// Router returns the router used for layout.
func (m *Model) Router() *route.Router { return m.router }

// Subscribe registers fn for change notifications.
func (m *Model) Subscribe(fn Listener) {
	m.listeners = append(m.listeners, fn)
}

func (m *Model) notify(op string) {
	for _, fn := range m.listeners {
		fn(Change{Op: op, State: m.state})
	}
}

// commit records one history entry and notifies listeners.
func (m *Model) commit(op string) {
	m.history.Snapshot(m.state)
	m.notify(op)
}

var compIDPattern = regexp.MustCompile(`^comp-(\d+)$`)

// reserveID bumps the component counter past id if it is a generated id.
func (m *Model) reserveID(id string) {
	if sm := compIDPattern.FindStringSubmatch(id); sm != nil {
		if n, err := strconv.Atoi(sm[1]); err == nil && n >= m.nextComp {
			m.nextComp = n + 1
		}
	}
}

func (m *Model) newComponentID() string {
	for {
		id := fmt.Sprintf("comp-%d", m.nextComp)
		m.nextComp++
		if m.state.Component(id) == nil {
			return id
		}
	}
}

func newConnectionID() string { return "conn-" + uuid.NewString() }
func newStrokeID() string     { return "stroke-" + uuid.NewString() }

func unknown(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrUnknownEntity)
}

func (m *Model) component(id string) (*Component, error) {
	if c := m.state.Component(id); c != nil {
		return c, nil
	}
	return nil, unknown("component", id)
}

func (m *Model) connection(id string) (*Connection, error) {
	if c := m.state.Connection(id); c != nil {
		return c, nil
	}
	return nil, unknown("connection", id)
}

// PlaceComponent adds a component of kind at the grid point nearest
// (x, y). fixedID, when non-empty, is used instead of a generated id.
func (m *Model) PlaceComponent(kind string, x, y float64, fixedID string) (Component, error) {
	if kind == "" {
		return Component{}, fmt.Errorf("place component: %w", ErrInvalidKind)
	}
	id := fixedID
	if id == "" {
		id = m.newComponentID()
	} else if m.state.Component(id) != nil {
		return Component{}, fmt.Errorf("component %q: %w", id, ErrDuplicateID)
	}
	m.reserveID(id)

	w, h, anchors := defaults(kind)
	c := Component{
		ID:               id,
		X:                geom.Snap(x, GridSize),
		Y:                geom.Snap(y, GridSize),
		Width:            w,
		Height:           h,
		Kind:             kind,
		ConnectionPoints: anchors,
	}
	if on, kindOn, kindOff, ok := toggleVariants(kind); ok {
		c.IsOn = &on
		c.KindOn, c.KindOff = kindOn, kindOff
	}

	m.state.Components = append(m.state.Components, c)
	m.commit("place")
	return c.clone(), nil
}

// MoveComponent moves one component by (dx, dy) and re-snaps it.
func (m *Model) MoveComponent(id string, dx, dy float64) error {
	return m.MoveSelection([]string{id}, dx, dy)
}

// MoveSelection moves every component in ids by the same delta. Each is
// snapped to the grid on its own. Repeated ids move once; an empty list
// records nothing.
func (m *Model) MoveSelection(ids []string, dx, dy float64) error {
	comps, err := m.selection(ids)
	if err != nil || len(comps) == 0 {
		return err
	}
	for _, c := range comps {
		c.X = geom.Snap(c.X+dx, GridSize)
		c.Y = geom.Snap(c.Y+dy, GridSize)
	}
	m.rederive(ids...)
	m.commit("move")
	return nil
}

// selection resolves ids to components, dropping repeats. Any unknown id
// fails the whole lookup.
func (m *Model) selection(ids []string) ([]*Component, error) {
	seen := make(map[string]bool, len(ids))
	comps := make([]*Component, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, err := m.component(id)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// applySize clamps and sets the size of c. Line kinds only change along
// their length.
func applySize(c *Component, w, h float64) {
	switch c.Kind {
	case KindHLine:
		c.Width = math.Max(MinLineLength, w)
	case KindVLine:
		c.Height = math.Max(MinLineLength, h)
	default:
		c.Width = math.Max(MinShapeSize, w)
		c.Height = math.Max(MinShapeSize, h)
	}
}

// ResizeComponent sets the size of a component, clamped to the minimum
// for its kind.
func (m *Model) ResizeComponent(id string, w, h float64) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	applySize(c, w, h)
	m.rederive(id)
	m.commit("resize")
	return nil
}

// ResizeSelection grows every component in ids by delta on both axes
// as one undo step.
func (m *Model) ResizeSelection(ids []string, delta float64) error {
	comps, err := m.selection(ids)
	if err != nil || len(comps) == 0 {
		return err
	}
	for _, c := range comps {
		applySize(c, c.Width+delta, c.Height+delta)
	}
	m.rederive(ids...)
	m.commit("resize")
	return nil
}

// RotateComponent adds deg degrees to the component's rotation.
func (m *Model) RotateComponent(id string, deg float64) error {
	return m.RotateSelection([]string{id}, deg)
}

// RotateSelection adds deg degrees to every component in ids, each about
// its own origin, as one undo step.
func (m *Model) RotateSelection(ids []string, deg float64) error {
	comps, err := m.selection(ids)
	if err != nil || len(comps) == 0 {
		return err
	}
	for _, c := range comps {
		c.Rotation = geom.NormalizeDegrees(c.Rotation + deg)
	}
	m.rederive(ids...)
	m.commit("rotate")
	return nil
}

// SetText replaces the component's caption.
func (m *Model) SetText(id, text string) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	c.Text = text
	m.commit("text")
	return nil
}

// AddAnchor appends an anchor and returns its index.
func (m *Model) AddAnchor(id string, p geom.Point) (int, error) {
	c, err := m.component(id)
	if err != nil {
		return -1, err
	}
	c.ConnectionPoints = append(c.ConnectionPoints, p)
	m.commit("anchor-add")
	return len(c.ConnectionPoints) - 1, nil
}

// SetAnchor moves anchor index of a component. An out-of-range index is
// ignored.
func (m *Model) SetAnchor(id string, index int, p geom.Point) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.ConnectionPoints) {
		return nil
	}
	c.ConnectionPoints[index] = p
	m.rederive(id)
	m.commit("anchor-set")
	return nil
}

// DeleteAnchor removes an anchor. Connections bound to it are deleted;
// connections bound to later anchors of the same component are re-indexed.
func (m *Model) DeleteAnchor(id string, index int) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.ConnectionPoints) {
		return fmt.Errorf("anchor %d of %q: %w", index, id, ErrUnknownEntity)
	}
	c.ConnectionPoints = append(c.ConnectionPoints[:index], c.ConnectionPoints[index+1:]...)

	bound := func(e Endpoint) bool { return e.ComponentID == id && e.AnchorIndex == index }
	removed := m.state.removeConnections(func(conn *Connection) bool {
		return bound(conn.Start) || bound(conn.End)
	})
	for i := range m.state.Connections {
		conn := &m.state.Connections[i]
		if conn.Start.ComponentID == id && conn.Start.AnchorIndex > index {
			conn.Start.AnchorIndex--
		}
		if conn.End.ComponentID == id && conn.End.AnchorIndex > index {
			conn.End.AnchorIndex--
		}
	}
	if len(removed) > 0 {
		m.log.Debug("anchor %d of %s removed with %d connection(s)", index, id, len(removed))
	}
	m.rederive(id)
	m.commit("anchor-delete")
	return nil
}

// DeleteComponent removes a component and every connection touching it.
func (m *Model) DeleteComponent(id string) error {
	return m.DeleteSelection([]string{id})
}

// DeleteSelection removes every component in ids together with their
// connections as one undo step.
func (m *Model) DeleteSelection(ids []string) error {
	comps, err := m.selection(ids)
	if err != nil || len(comps) == 0 {
		return err
	}
	gone := make(map[string]bool, len(comps))
	for _, c := range comps {
		gone[c.ID] = true
	}
	kept := m.state.Components[:0]
	for _, c := range m.state.Components {
		if !gone[c.ID] {
			kept = append(kept, c)
		}
	}
	m.state.Components = kept
	m.state.removeConnections(func(c *Connection) bool {
		return gone[c.Start.ComponentID] || gone[c.End.ComponentID]
	})
	m.commit("delete")
	return nil
}

// DeleteConnection removes one connection.
func (m *Model) DeleteConnection(id string) error {
	if _, err := m.connection(id); err != nil {
		return err
	}
	m.state.removeConnections(func(c *Connection) bool { return c.ID == id })
	m.commit("delete-connection")
	return nil
}

// DeleteStroke removes one free-hand stroke.
func (m *Model) DeleteStroke(id string) error {
	if m.state.Stroke(id) == nil {
		return unknown("stroke", id)
	}
	kept := m.state.Strokes[:0]
	for _, s := range m.state.Strokes {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.state.Strokes = kept
	m.commit("delete-stroke")
	return nil
}

// AnchorRef names an anchor of a component.
type AnchorRef struct {
	ComponentID string
	Index       int
}

func (m *Model) endpoint(ref AnchorRef) (Endpoint, error) {
	c, err := m.component(ref.ComponentID)
	if err != nil {
		return Endpoint{}, err
	}
	p, ok := c.AnchorAt(ref.Index)
	if !ok {
		return Endpoint{}, fmt.Errorf("anchor %d of %q: %w", ref.Index, ref.ComponentID, ErrUnknownEntity)
	}
	return Endpoint{ComponentID: ref.ComponentID, AnchorIndex: ref.Index, X: p.X, Y: p.Y}, nil
}

// Connect links two anchors. Bends, when given for an orthogonal kind,
// are kept as user bends instead of being routed.
func (m *Model) Connect(from, to AnchorRef, kind ConnKind, bends []geom.Point) (Connection, error) {
	if !kind.Valid() {
		return Connection{}, fmt.Errorf("connection kind %q: %w", kind, ErrInvalidKind)
	}
	start, err := m.endpoint(from)
	if err != nil {
		return Connection{}, err
	}
	end, err := m.endpoint(to)
	if err != nil {
		return Connection{}, err
	}
	return m.addConnection(start, end, kind, bends), nil
}

func (m *Model) addConnection(start, end Endpoint, kind ConnKind, bends []geom.Point) Connection {
	conn := Connection{
		ID:    newConnectionID(),
		Start: start,
		End:   end,
		Kind:  kind,
	}
	if len(bends) > 0 && kind != ConnCurve {
		conn.Bends = append([]geom.Point(nil), bends...)
		conn.CustomBends = true
	}
	m.state.Connections = append(m.state.Connections, conn)
	c := &m.state.Connections[len(m.state.Connections)-1]
	m.layout(c)
	m.commit("connect")
	return c.clone()
}

// SetConnectionKind changes the kind of a connection, re-laying it out
// when switching between curve and orthogonal.
func (m *Model) SetConnectionKind(id string, kind ConnKind) error {
	if !kind.Valid() {
		return fmt.Errorf("connection kind %q: %w", kind, ErrInvalidKind)
	}
	c, err := m.connection(id)
	if err != nil {
		return err
	}
	if (c.Kind == ConnCurve) != (kind == ConnCurve) {
		c.Bends = nil
		c.CustomBends = false
		c.CustomControlPoints = false
	}
	c.Kind = kind
	m.layout(c)
	m.commit("connection-kind")
	return nil
}

// Toggle flips a component's state and propagates it.
func (m *Model) Toggle(id string) (PropagationResult, error) {
	c, err := m.component(id)
	if err != nil {
		return PropagationResult{}, err
	}
	if !c.Toggleable() {
		return PropagationResult{}, fmt.Errorf("component %q: %w", id, ErrNotToggleable)
	}
	c.setOn(!c.On())
	res := Propagate(m.state, id)
	m.commit("toggle")
	return res, nil
}

// ApplyRemoteToggle sets a component's state as received from a peer.
// Nothing is propagated and no history entry is recorded.
func (m *Model) ApplyRemoteToggle(id string, on bool) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	c.setOn(on)
	m.notify("remote-toggle")
	return nil
}

// SetColors sets the grid and background colors.
func (m *Model) SetColors(grid, bg string) {
	m.state.GridColor = grid
	m.state.BgColor = bg
	m.commit("colors")
}

// SetGridOption applies one of the predefined color pairings.
func (m *Model) SetGridOption(opt GridOption) error {
	g, ok := GridOptions[opt]
	if !ok {
		return fmt.Errorf("grid option %q: %w", opt, ErrInvalidKind)
	}
	m.SetColors(g.Grid, g.Background)
	return nil
}

// SetBackgroundImage stores an opaque reference to a background image.
func (m *Model) SetBackgroundImage(ref string) {
	m.state.BackgroundImage = ref
	m.commit("background")
}

// ClearBackgroundImage removes the background image.
func (m *Model) ClearBackgroundImage() {
	m.SetBackgroundImage("")
}

// Load replaces the diagram with s. s is validated first; on error the
// current diagram is left untouched. History restarts from s.
func (m *Model) Load(s *State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if m.session != nil {
		m.log.Debug("load discards %s session", m.session.Kind)
		m.session = nil
	}
	m.state = s.Clone()
	m.nextComp = 1
	for _, c := range m.state.Components {
		m.reserveID(c.ID)
	}
	m.history.Reset(m.state)
	m.notify("load")
	return nil
}

// Undo restores the previous committed state. An open session is
// cancelled first.
func (m *Model) Undo() bool {
	if m.session != nil {
		m.Cancel()
	}
	prev, ok := m.history.Undo(m.state)
	if !ok {
		return false
	}
	m.state = prev
	m.notify("undo")
	return true
}

// Redo re-applies the last undone state.
func (m *Model) Redo() bool {
	if m.session != nil {
		m.Cancel()
	}
	next, ok := m.history.Redo(m.state)
	if !ok {
		return false
	}
	m.state = next
	m.notify("redo")
	return true
}

// CanUndo reports whether there is anything to undo.
func (m *Model) CanUndo() bool { return m.history.CanUndo() }

// CanRedo reports whether there is anything to redo.
func (m *Model) CanRedo() bool { return m.history.CanRedo() }

// HistoryDepth returns the number of undoable and redoable steps.
func (m *Model) HistoryDepth() (undo, redo int) { return m.history.Depth() }
