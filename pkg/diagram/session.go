package diagram

import (
	"fmt"

	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// SessionKind identifies an interactive gesture.
type SessionKind int

const (
	SessionDrag        SessionKind = iota + 1 // move one or more components
	SessionResize                             // drag a resize handle
	SessionAnchorDrag                         // move a component anchor
	SessionBendDrag                           // move one bend or control point
	SessionCurveHandle                        // move both curve controls together
	SessionStroke                             // free-hand drawing
	SessionConnect                            // first anchor clicked, waiting for the second
)

func (k SessionKind) String() string {
	switch k {
	case SessionDrag:
		return "drag"
	case SessionResize:
		return "resize"
	case SessionAnchorDrag:
		return "anchor-drag"
	case SessionBendDrag:
		return "bend-drag"
	case SessionCurveHandle:
		return "curve-handle"
	case SessionStroke:
		return "stroke"
	case SessionConnect:
		return "connect"
	}
	return "none"
}

// Session is the transient state of an in-progress gesture. Every update
// is computed from the values captured when the session began, never from
// the previous update.
type Session struct {
	Kind    SessionKind
	Origin  geom.Point // pointer when the session began
	Pointer geom.Point // latest pointer

	ComponentIDs []string
	ConnectionID string
	Index        int

	// Pending connection.
	PendingStart Endpoint
	PendingKind  ConnKind
	PendingBends []geom.Point

	// Stroke being drawn.
	Points []geom.Point

	dirty       bool
	origins     map[string]Component
	connections map[string]Connection
}

// Session returns a copy of the active session.
func (m *Model) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// begin opens a session, capturing the components in ids and every
// connection touching them so Cancel can put them back exactly.
func (m *Model) begin(kind SessionKind, pointer geom.Point, ids []string, connIDs []string) (*Session, error) {
	if m.session != nil {
		return nil, fmt.Errorf("begin %s during %s: %w", kind, m.session.Kind, ErrSessionActive)
	}
	s := &Session{
		Kind:         kind,
		Origin:       pointer,
		Pointer:      pointer,
		ComponentIDs: ids,
		origins:      make(map[string]Component, len(ids)),
		connections:  make(map[string]Connection),
	}
	for _, id := range ids {
		c, err := m.component(id)
		if err != nil {
			return nil, err
		}
		s.origins[id] = c.clone()
		for _, i := range m.state.ConnectionsOf(id) {
			conn := m.state.Connections[i]
			s.connections[conn.ID] = conn.clone()
		}
	}
	for _, id := range connIDs {
		conn, err := m.connection(id)
		if err != nil {
			return nil, err
		}
		s.connections[id] = conn.clone()
	}
	m.session = s
	return s, nil
}

// BeginDrag starts moving the components in ids.
func (m *Model) BeginDrag(ids []string, pointer geom.Point) error {
	_, err := m.begin(SessionDrag, pointer, append([]string(nil), ids...), nil)
	return err
}

// BeginResize starts resizing a component from its bottom-right handle.
func (m *Model) BeginResize(id string, pointer geom.Point) error {
	_, err := m.begin(SessionResize, pointer, []string{id}, nil)
	return err
}

// BeginAnchorDrag starts moving anchor index of a component.
func (m *Model) BeginAnchorDrag(id string, index int, pointer geom.Point) error {
	c, err := m.component(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.ConnectionPoints) {
		return fmt.Errorf("anchor %d of %q: %w", index, id, ErrUnknownEntity)
	}
	s, err := m.begin(SessionAnchorDrag, pointer, []string{id}, nil)
	if err != nil {
		return err
	}
	s.Index = index
	return nil
}

// BeginBendDrag starts moving bend index of a connection. For curves the
// bend is a control point.
func (m *Model) BeginBendDrag(connID string, index int, pointer geom.Point) error {
	conn, err := m.connection(connID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(conn.Bends) {
		return fmt.Errorf("bend %d of %q: %w", index, connID, ErrUnknownEntity)
	}
	s, err := m.begin(SessionBendDrag, pointer, nil, []string{connID})
	if err != nil {
		return err
	}
	s.ConnectionID = connID
	s.Index = index
	return nil
}

// BeginCurveHandle starts dragging the midpoint handle of a curve, which
// moves both control points by the pointer delta.
func (m *Model) BeginCurveHandle(connID string, pointer geom.Point) error {
	conn, err := m.connection(connID)
	if err != nil {
		return err
	}
	if conn.Kind != ConnCurve || len(conn.Bends) != 2 {
		return fmt.Errorf("connection %q is not a curve: %w", connID, ErrInvalidKind)
	}
	s, err := m.begin(SessionCurveHandle, pointer, nil, []string{connID})
	if err != nil {
		return err
	}
	s.ConnectionID = connID
	return nil
}

// BeginStroke starts a free-hand stroke at pointer.
func (m *Model) BeginStroke(pointer geom.Point) error {
	s, err := m.begin(SessionStroke, pointer, nil, nil)
	if err != nil {
		return err
	}
	s.Points = []geom.Point{pointer}
	return nil
}

// AnchorClick handles a click on a component anchor. The first click opens
// a pending connection of kind; the second completes it and returns the
// new connection.
func (m *Model) AnchorClick(ref AnchorRef, kind ConnKind) (*Connection, error) {
	if m.session != nil && m.session.Kind != SessionConnect {
		return nil, fmt.Errorf("anchor click during %s: %w", m.session.Kind, ErrSessionActive)
	}
	if m.session == nil {
		if !kind.Valid() {
			return nil, fmt.Errorf("connection kind %q: %w", kind, ErrInvalidKind)
		}
		start, err := m.endpoint(ref)
		if err != nil {
			return nil, err
		}
		s, _ := m.begin(SessionConnect, start.Point(), nil, nil)
		s.PendingStart = start
		s.PendingKind = kind
		return nil, nil
	}

	s := m.session
	end, err := m.endpoint(ref)
	if err != nil {
		return nil, err
	}
	if _, err := m.endpoint(AnchorRef{s.PendingStart.ComponentID, s.PendingStart.AnchorIndex}); err != nil {
		m.abort("pending start vanished")
		return nil, nil
	}
	m.session = nil
	conn := m.addConnection(s.PendingStart, end, s.PendingKind, s.PendingBends)
	return &conn, nil
}

// AddPendingBend adds a user bend to the pending connection. Curves take
// no bends.
func (m *Model) AddPendingBend(p geom.Point) error {
	if m.session == nil || m.session.Kind != SessionConnect {
		return ErrNoSession
	}
	if m.session.PendingKind != ConnCurve {
		m.session.PendingBends = append(m.session.PendingBends, p)
	}
	return nil
}

// Update feeds the latest pointer position into the active session.
func (m *Model) Update(pointer geom.Point) error {
	s := m.session
	if s == nil {
		return ErrNoSession
	}
	s.Pointer = pointer
	d := pointer.Sub(s.Origin)

	switch s.Kind {
	case SessionDrag:
		for _, id := range s.ComponentIDs {
			c := m.state.Component(id)
			if c == nil {
				m.abort("dragged component vanished")
				return nil
			}
			o := s.origins[id]
			c.X = geom.Snap(o.X+d.X, GridSize)
			c.Y = geom.Snap(o.Y+d.Y, GridSize)
		}
		m.rederive(s.ComponentIDs...)

	case SessionResize:
		id := s.ComponentIDs[0]
		c := m.state.Component(id)
		if c == nil {
			m.abort("resized component vanished")
			return nil
		}
		o := s.origins[id]
		local := geom.Rotate(d, geom.Point{}, -c.Rotation)
		applySize(c, o.Width+local.X, o.Height+local.Y)
		m.rederive(id)

	case SessionAnchorDrag:
		id := s.ComponentIDs[0]
		c := m.state.Component(id)
		if c == nil || s.Index >= len(c.ConnectionPoints) {
			m.abort("anchor vanished")
			return nil
		}
		o := s.origins[id]
		local := geom.Rotate(d, geom.Point{}, -c.Rotation)
		base := o.ConnectionPoints[s.Index]
		c.ConnectionPoints[s.Index] = geom.Point{
			X: base.X + local.X/c.Width,
			Y: base.Y + local.Y/c.Height,
		}
		m.rederive(id)

	case SessionBendDrag:
		conn := m.state.Connection(s.ConnectionID)
		if conn == nil || s.Index >= len(conn.Bends) {
			m.abort("bend vanished")
			return nil
		}
		conn.Bends[s.Index] = s.connections[s.ConnectionID].Bends[s.Index].Add(d)
		if conn.Kind == ConnCurve {
			conn.CustomControlPoints = true
		} else {
			conn.CustomBends = true
		}

	case SessionCurveHandle:
		conn := m.state.Connection(s.ConnectionID)
		if conn == nil || len(conn.Bends) != 2 {
			m.abort("curve vanished")
			return nil
		}
		o := s.connections[s.ConnectionID].Bends
		conn.Bends[0] = o[0].Add(d)
		conn.Bends[1] = o[1].Add(d)
		conn.CustomControlPoints = true

	case SessionStroke:
		s.Points = append(s.Points, pointer)

	case SessionConnect:
		return nil
	}
	s.dirty = true
	return nil
}

// End completes the active session. A gesture that changed something is
// committed as one history entry. Ending a connect session discards the
// pending connection.
func (m *Model) End() error {
	s := m.session
	if s == nil {
		return ErrNoSession
	}
	switch s.Kind {
	case SessionConnect:
		m.session = nil
		return nil

	case SessionStroke:
		m.session = nil
		if len(s.Points) < 2 {
			return nil
		}
		m.state.Strokes = append(m.state.Strokes, Stroke{
			ID:     newStrokeID(),
			Points: append([]geom.Point(nil), s.Points...),
		})
		m.commit("stroke")
		return nil
	}

	for _, id := range s.ComponentIDs {
		if m.state.Component(id) == nil {
			m.abort("component vanished before end")
			return nil
		}
	}
	if s.ConnectionID != "" && m.state.Connection(s.ConnectionID) == nil {
		m.abort("connection vanished before end")
		return nil
	}
	m.session = nil
	if s.dirty {
		m.commit(s.Kind.String())
	}
	return nil
}

// Cancel abandons the active session, restoring everything it touched.
func (m *Model) Cancel() error {
	if m.session == nil {
		return ErrNoSession
	}
	m.restore(m.session)
	m.session = nil
	m.notify("cancel")
	return nil
}

// restore puts back the captured components and connections that still
// exist.
func (m *Model) restore(s *Session) {
	for id, o := range s.origins {
		if c := m.state.Component(id); c != nil {
			*c = o.clone()
		}
	}
	for id, o := range s.connections {
		if c := m.state.Connection(id); c != nil {
			*c = o.clone()
		}
	}
}

// abort ends the session without committing. Whatever the session had
// already changed is restored.
func (m *Model) abort(reason string) {
	if m.session == nil {
		return
	}
	m.log.Debug("%s session aborted: %s", m.session.Kind, reason)
	m.restore(m.session)
	m.session = nil
	m.notify("abort")
}
