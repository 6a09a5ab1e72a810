package diagram

// PropagationResult reports what a propagation walk touched.
type PropagationResult struct {
	Visited   []string // component ids in visit order, source first
	Changed   []string // toggleable components whose state was set
	Recolored []string // connection ids
}

type edge struct {
	conn   int
	target string
}

type frame struct {
	id string
	on bool
}

// Propagate floods the on/off state of source along the connection graph.
//
// Connections are followed from start to end; double connections are also
// followed from end to start. Toggleable targets take the driving state,
// passive targets forward it unchanged. Each traversed connection is
// colored green or red. Every component is visited at most once.
func Propagate(s *State, sourceID string) PropagationResult {
	var res PropagationResult

	comps := make(map[string]*Component, len(s.Components))
	for i := range s.Components {
		comps[s.Components[i].ID] = &s.Components[i]
	}
	src, ok := comps[sourceID]
	if !ok {
		return res
	}

	out := make(map[string][]edge)
	for i := range s.Connections {
		c := &s.Connections[i]
		out[c.Start.ComponentID] = append(out[c.Start.ComponentID], edge{i, c.End.ComponentID})
		if c.Kind == ConnDouble {
			out[c.End.ComponentID] = append(out[c.End.ComponentID], edge{i, c.Start.ComponentID})
		}
	}

	visited := map[string]bool{sourceID: true}
	recolored := map[int]bool{}
	res.Visited = append(res.Visited, sourceID)
	stack := []frame{{id: sourceID, on: src.On()}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range out[cur.id] {
			conn := &s.Connections[e.conn]
			if cur.on {
				conn.Color = ColorOn
			} else {
				conn.Color = ColorOff
			}
			if !recolored[e.conn] {
				recolored[e.conn] = true
				res.Recolored = append(res.Recolored, conn.ID)
			}

			if visited[e.target] {
				continue
			}
			comp, ok := comps[e.target]
			if !ok {
				continue
			}
			visited[e.target] = true
			res.Visited = append(res.Visited, e.target)

			if comp.Toggleable() {
				comp.setOn(cur.on)
				res.Changed = append(res.Changed, e.target)
			}
			stack = append(stack, frame{id: e.target, on: cur.on})
		}
	}
	return res
}
