package diagram

import "fmt"

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}

// Validate checks that s is a complete, self-consistent diagram: ids are
// present and unique, sizes are positive, and every connection endpoint
// names an existing component anchor.
func (s *State) Validate() error {
	if s == nil {
		return malformed("nil state")
	}
	comps := make(map[string]*Component, len(s.Components))
	for i := range s.Components {
		c := &s.Components[i]
		if c.ID == "" {
			return malformed("component %d has no id", i)
		}
		if _, dup := comps[c.ID]; dup {
			return malformed("duplicate component id %q", c.ID)
		}
		if c.Kind == "" {
			return malformed("component %q has no type", c.ID)
		}
		if c.Width <= 0 || c.Height <= 0 {
			return malformed("component %q has size %gx%g", c.ID, c.Width, c.Height)
		}
		comps[c.ID] = c
	}

	conns := make(map[string]bool, len(s.Connections))
	for i := range s.Connections {
		conn := &s.Connections[i]
		if conn.ID == "" {
			return malformed("connection %d has no id", i)
		}
		if conns[conn.ID] {
			return malformed("duplicate connection id %q", conn.ID)
		}
		conns[conn.ID] = true
		if !conn.Kind.Valid() {
			return malformed("connection %q has type %q", conn.ID, conn.Kind)
		}
		for _, e := range []Endpoint{conn.Start, conn.End} {
			c, ok := comps[e.ComponentID]
			if !ok {
				return malformed("connection %q references missing component %q", conn.ID, e.ComponentID)
			}
			if e.AnchorIndex < 0 || e.AnchorIndex >= len(c.ConnectionPoints) {
				return malformed("connection %q references missing anchor %d of %q", conn.ID, e.AnchorIndex, e.ComponentID)
			}
		}
	}

	strokes := make(map[string]bool, len(s.Strokes))
	for i, st := range s.Strokes {
		if st.ID == "" {
			return malformed("stroke %d has no id", i)
		}
		if strokes[st.ID] {
			return malformed("duplicate stroke id %q", st.ID)
		}
		strokes[st.ID] = true
	}
	return nil
}
