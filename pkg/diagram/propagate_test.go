package diagram

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

// graph builds a state with one component per id and a connection per edge
// "a>b" (single) or "a=b" (double).
func graph(toggleable map[string]bool, edges ...string) *State {
	s := NewState()
	ids := map[string]bool{}
	add := func(id string) {
		if ids[id] {
			return
		}
		ids[id] = true
		c := Component{ID: id, Kind: "lamp", Width: 50, Height: 50, ConnectionPoints: nil}
		if toggleable[id] {
			c.IsOn = boolPtr(false)
		}
		s.Components = append(s.Components, c)
	}
	for i, e := range edges {
		var a, b string
		kind := ConnSingle
		for j := 0; j < len(e); j++ {
			if e[j] == '>' || e[j] == '=' {
				a, b = e[:j], e[j+1:]
				if e[j] == '=' {
					kind = ConnDouble
				}
			}
		}
		add(a)
		add(b)
		s.Connections = append(s.Connections, Connection{
			ID:    fmt.Sprintf("c%d", i),
			Start: Endpoint{ComponentID: a},
			End:   Endpoint{ComponentID: b},
			Kind:  kind,
		})
	}
	return s
}

func all(ids ...string) map[string]bool {
	out := map[string]bool{}
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestPropagateChain(t *testing.T) {
	s := graph(all("A", "B", "C"), "A>B", "B>C")
	s.Component("A").setOn(true)

	res := Propagate(s, "A")
	assert.True(t, s.Component("B").On())
	assert.True(t, s.Component("C").On())
	assert.Equal(t, ColorOn, s.Connection("c0").Color)
	assert.Equal(t, ColorOn, s.Connection("c1").Color)
	assert.Equal(t, []string{"A", "B", "C"}, res.Visited)
	assert.Equal(t, []string{"B", "C"}, res.Changed)
}

func TestPropagateSingleIsDirected(t *testing.T) {
	s := graph(all("A", "B"), "A>B")
	s.Component("B").setOn(true)

	res := Propagate(s, "B")
	assert.False(t, s.Component("A").On())
	assert.Equal(t, []string{"B"}, res.Visited)
	assert.Empty(t, s.Connection("c0").Color)
}

func TestPropagateDoubleBothWays(t *testing.T) {
	for _, source := range []string{"X", "Y"} {
		s := graph(all("X", "Y"), "X=Y")
		s.Component(source).setOn(true)

		Propagate(s, source)
		assert.True(t, s.Component("X").On(), "from %s", source)
		assert.True(t, s.Component("Y").On(), "from %s", source)
		assert.Equal(t, ColorOn, s.Connection("c0").Color)
	}
}

func TestPropagateCycleTerminates(t *testing.T) {
	s := graph(all("A", "B", "C"), "A>B", "B>C", "C>A", "A=C", "B=B")
	s.Component("A").setOn(true)

	res := Propagate(s, "A")
	require.Len(t, res.Visited, 3)
	seen := map[string]int{}
	for _, id := range res.Visited {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "component %s visited %d times", id, n)
	}
	assert.Len(t, res.Recolored, 5)
}

func TestPropagatePassiveRelay(t *testing.T) {
	s := graph(all("A", "C"), "A>W", "W>C")
	s.Component("A").setOn(true)

	res := Propagate(s, "A")
	assert.Nil(t, s.Component("W").IsOn, "passive components are never given state")
	assert.True(t, s.Component("C").On())
	assert.Equal(t, []string{"C"}, res.Changed)
	assert.Equal(t, ColorOn, s.Connection("c1").Color)
}

func TestPropagateOffIsRed(t *testing.T) {
	s := graph(all("A", "B"), "A>B")
	s.Component("B").setOn(true)

	Propagate(s, "A")
	assert.False(t, s.Component("B").On())
	assert.Equal(t, ColorOff, s.Connection("c0").Color)
}

func TestPropagateUnknownSource(t *testing.T) {
	s := graph(all("A"), "A>B")
	res := Propagate(s, "nope")
	assert.Empty(t, res.Visited)
}

func TestPropagateLongChain(t *testing.T) {
	var edges []string
	tog := map[string]bool{}
	for i := 0; i < 5000; i++ {
		edges = append(edges, fmt.Sprintf("n%d>n%d", i, i+1))
		tog[fmt.Sprintf("n%d", i)] = true
	}
	tog["n5000"] = true
	s := graph(tog, edges...)
	s.Component("n0").setOn(true)

	Propagate(s, "n0")
	assert.True(t, s.Component("n5000").On())
}
