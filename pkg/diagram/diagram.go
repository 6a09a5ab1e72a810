// Package diagram holds the diagram model: components, connections and
// free-hand strokes, the operations that mutate them, the interaction
// sessions that drive those operations from pointer input, undo/redo
// history and on/off state propagation.
//
// State is the aggregate that is snapshotted, serialized and broadcast.
// Entities refer to each other only by id and anchor index, so a State can
// be deep-copied freely.
package diagram

import (
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// GridSize is the snapping step for component origins.
const GridSize = 10.0

// ConnKind determines a connection's end-cap decoration.
type ConnKind string

const (
	ConnSingle ConnKind = "single" // arrow at the end
	ConnDouble ConnKind = "double" // arrows at both ends, propagates both ways
	ConnPlain  ConnKind = "plain"  // no arrows
	ConnCurve  ConnKind = "bezier" // cubic curve through two control points
)

// Valid reports whether k is a known connection kind.
func (k ConnKind) Valid() bool {
	switch k {
	case ConnSingle, ConnDouble, ConnPlain, ConnCurve:
		return true
	}
	return false
}

// Connection colors set by propagation.
const (
	ColorOn  = "green"
	ColorOff = "red"
)

// Component is a placed shape or image on the canvas.
type Component struct {
	ID       string  `json:"id" yaml:"id"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
	Kind     string  `json:"type" yaml:"type"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`

	// ConnectionPoints are anchors in unit-square coordinates. The index
	// of an anchor is what connections bind to.
	ConnectionPoints []geom.Point `json:"connectionPoints" yaml:"connectionPoints"`

	// IsOn is nil for components that cannot be toggled.
	IsOn    *bool  `json:"isOn,omitempty" yaml:"isOn,omitempty"`
	KindOn  string `json:"typeOn,omitempty" yaml:"typeOn,omitempty"`
	KindOff string `json:"typeOff,omitempty" yaml:"typeOff,omitempty"`
}

// Toggleable reports whether the component carries on/off state.
func (c *Component) Toggleable() bool { return c.IsOn != nil }

// On reports the component's state; passive components are never on.
func (c *Component) On() bool { return c.IsOn != nil && *c.IsOn }

// Bounds returns the unrotated rectangle of the component.
func (c *Component) Bounds() geom.Rect {
	return geom.Rect{X: c.X, Y: c.Y, W: c.Width, H: c.Height}
}

// Footprint returns the axis-aligned bounds of the rotated component.
func (c *Component) Footprint() geom.Rect {
	return geom.RotatedBounds(c.Bounds(), c.Rotation)
}

// AnchorAt returns the absolute scene position of anchor index, taking
// rotation about the component origin into account.
func (c *Component) AnchorAt(index int) (geom.Point, bool) {
	if index < 0 || index >= len(c.ConnectionPoints) {
		return geom.Point{}, false
	}
	u := c.ConnectionPoints[index]
	local := geom.Point{X: c.X + u.X*c.Width, Y: c.Y + u.Y*c.Height}
	return geom.Rotate(local, geom.Point{X: c.X, Y: c.Y}, c.Rotation), true
}

// setOn sets the state and swaps the visual variant.
func (c *Component) setOn(on bool) {
	c.IsOn = &on
	if on && c.KindOn != "" {
		c.Kind = c.KindOn
	} else if !on && c.KindOff != "" {
		c.Kind = c.KindOff
	}
}

func (c Component) clone() Component {
	out := c
	if c.ConnectionPoints != nil {
		out.ConnectionPoints = append([]geom.Point(nil), c.ConnectionPoints...)
	}
	if c.IsOn != nil {
		on := *c.IsOn
		out.IsOn = &on
	}
	return out
}

// Endpoint binds one end of a connection to a component anchor. X and Y
// cache the anchor's absolute position.
type Endpoint struct {
	ComponentID string  `json:"componentId" yaml:"componentId"`
	AnchorIndex int     `json:"pointIndex" yaml:"pointIndex"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
}

// Point returns the cached absolute position.
func (e Endpoint) Point() geom.Point { return geom.Point{X: e.X, Y: e.Y} }

// Connection links two component anchors.
type Connection struct {
	ID    string   `json:"id" yaml:"id"`
	Start Endpoint `json:"start" yaml:"start"`
	End   Endpoint `json:"end" yaml:"end"`

	// Bends are router waypoints for orthogonal kinds and the two control
	// points for curves.
	Bends []geom.Point `json:"bends" yaml:"bends"`
	Kind  ConnKind     `json:"type" yaml:"type"`
	Color string       `json:"color,omitempty" yaml:"color,omitempty"`

	CustomControlPoints bool `json:"customControlPoints,omitempty" yaml:"customControlPoints,omitempty"`
	CustomBends         bool `json:"customBends,omitempty" yaml:"customBends,omitempty"`
}

// Path returns start, bends and end as one sequence.
func (c *Connection) Path() []geom.Point {
	out := make([]geom.Point, 0, len(c.Bends)+2)
	out = append(out, c.Start.Point())
	out = append(out, c.Bends...)
	return append(out, c.End.Point())
}

// References reports whether either end is bound to componentID.
func (c *Connection) References(componentID string) bool {
	return c.Start.ComponentID == componentID || c.End.ComponentID == componentID
}

func (c Connection) clone() Connection {
	out := c
	if c.Bends != nil {
		out.Bends = append([]geom.Point(nil), c.Bends...)
	}
	return out
}

// Stroke is a committed free-hand drawing.
type Stroke struct {
	ID     string       `json:"id" yaml:"id"`
	Points []geom.Point `json:"points" yaml:"points"`
}

func (s Stroke) clone() Stroke {
	out := s
	out.Points = append([]geom.Point(nil), s.Points...)
	return out
}

// State is the full diagram.
type State struct {
	Components      []Component  `json:"components" yaml:"components"`
	Connections     []Connection `json:"connections" yaml:"connections"`
	Strokes         []Stroke     `json:"freeDrawings" yaml:"freeDrawings"`
	BackgroundImage string       `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	GridColor       string       `json:"gridColor" yaml:"gridColor"`
	BgColor         string       `json:"bgColor" yaml:"bgColor"`
}

// NewState returns an empty diagram with the default white grid.
func NewState() *State {
	g := GridOptions[GridWhite]
	return &State{
		Components:  []Component{},
		Connections: []Connection{},
		Strokes:     []Stroke{},
		GridColor:   g.Grid,
		BgColor:     g.Background,
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := &State{
		Components:      make([]Component, len(s.Components)),
		Connections:     make([]Connection, len(s.Connections)),
		Strokes:         make([]Stroke, len(s.Strokes)),
		BackgroundImage: s.BackgroundImage,
		GridColor:       s.GridColor,
		BgColor:         s.BgColor,
	}
	for i, c := range s.Components {
		out.Components[i] = c.clone()
	}
	for i, c := range s.Connections {
		out.Connections[i] = c.clone()
	}
	for i, st := range s.Strokes {
		out.Strokes[i] = st.clone()
	}
	return out
}

// Component returns the component with id, or nil.
func (s *State) Component(id string) *Component {
	for i := range s.Components {
		if s.Components[i].ID == id {
			return &s.Components[i]
		}
	}
	return nil
}

// Connection returns the connection with id, or nil.
func (s *State) Connection(id string) *Connection {
	for i := range s.Connections {
		if s.Connections[i].ID == id {
			return &s.Connections[i]
		}
	}
	return nil
}

// Stroke returns the stroke with id, or nil.
func (s *State) Stroke(id string) *Stroke {
	for i := range s.Strokes {
		if s.Strokes[i].ID == id {
			return &s.Strokes[i]
		}
	}
	return nil
}

// ConnectionsOf returns the indices of connections touching componentID.
func (s *State) ConnectionsOf(componentID string) []int {
	var out []int
	for i := range s.Connections {
		if s.Connections[i].References(componentID) {
			out = append(out, i)
		}
	}
	return out
}

// removeConnections drops every connection for which drop returns true.
func (s *State) removeConnections(drop func(*Connection) bool) []string {
	var removed []string
	kept := s.Connections[:0]
	for i := range s.Connections {
		if drop(&s.Connections[i]) {
			removed = append(removed, s.Connections[i].ID)
			continue
		}
		kept = append(kept, s.Connections[i])
	}
	s.Connections = kept
	return removed
}
