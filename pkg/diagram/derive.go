package diagram

import (
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/route"
)

// RouteRequest builds the router input for conn against the components of
// s. The endpoint components are not obstacles.
func RouteRequest(s *State, conn *Connection) route.Request {
	req := route.Request{
		Start:    conn.Start.Point(),
		End:      conn.End.Point(),
		SelfLoop: conn.Start.ComponentID == conn.End.ComponentID,
		Curve:    conn.Kind == ConnCurve,
	}
	if req.Curve && conn.CustomControlPoints && len(conn.Bends) == 2 {
		req.Controls = conn.Bends
	}
	for i := range s.Components {
		c := &s.Components[i]
		switch c.ID {
		case conn.Start.ComponentID, conn.End.ComponentID:
			fp := c.Footprint()
			if c.ID == conn.Start.ComponentID {
				req.Source = &fp
			}
			if c.ID == conn.End.ComponentID {
				req.Target = &fp
			}
		default:
			req.Obstacles = append(req.Obstacles, c.Footprint())
		}
	}
	return req
}

// RouteConnection routes conn with r against the components of s.
func RouteConnection(r *route.Router, s *State, conn *Connection) route.Result {
	return r.Route(RouteRequest(s, conn))
}

// refreshEndpoints recomputes the cached endpoint coordinates of conn.
func refreshEndpoints(s *State, conn *Connection) bool {
	a := s.Component(conn.Start.ComponentID)
	b := s.Component(conn.End.ComponentID)
	if a == nil || b == nil {
		return false
	}
	pa, okA := a.AnchorAt(conn.Start.AnchorIndex)
	pb, okB := b.AnchorAt(conn.End.AnchorIndex)
	if !okA || !okB {
		return false
	}
	conn.Start.X, conn.Start.Y = pa.X, pa.Y
	conn.End.X, conn.End.Y = pb.X, pb.Y
	return true
}

// layout refreshes endpoints and recomputes bends unless the user has
// customized them.
func (m *Model) layout(conn *Connection) {
	if !refreshEndpoints(m.state, conn) {
		return
	}
	switch {
	case conn.Kind == ConnCurve:
		if !conn.CustomControlPoints || len(conn.Bends) != 2 {
			c1, c2 := geom.SeedControls(conn.Start.Point(), conn.End.Point())
			conn.Bends = []geom.Point{c1, c2}
			conn.CustomControlPoints = false
		}
	case !conn.CustomBends:
		conn.Bends = RouteConnection(m.router, m.state, conn).Bends()
	}
}

// rederive lays out every connection touching one of ids.
func (m *Model) rederive(ids ...string) {
	touched := make(map[string]bool, len(ids))
	for _, id := range ids {
		touched[id] = true
	}
	for i := range m.state.Connections {
		c := &m.state.Connections[i]
		if touched[c.Start.ComponentID] || touched[c.End.ComponentID] {
			m.layout(c)
		}
	}
}

// Relayout refreshes every connection against the current components,
// re-routing all that are not customized, and records one history entry.
func (m *Model) Relayout() {
	for i := range m.state.Connections {
		m.layout(&m.state.Connections[i])
	}
	m.commit("relayout")
}
