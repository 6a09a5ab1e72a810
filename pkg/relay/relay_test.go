package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.StorePath == "" {
		opts.StorePath = filepath.Join(t.TempDir(), "diagram.json")
	}
	s := NewServer(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// plant returns a document holding the simulated component.
func plant(t *testing.T) []byte {
	t.Helper()
	m := diagram.New()
	_, err := m.PlaceComponent("lamp_OFF.png", 100, 100, DefaultTarget)
	require.NoError(t, err)
	data, err := diagramfile.ToJSON(m.State(), false)
	require.NoError(t, err)
	return data
}

// listen dials the relay and returns a channel of inbound messages.
func listen(t *testing.T, ts *httptest.Server) (*Client, <-chan []byte) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c, err := Dial(ctx, wsURL(ts), nil)
	require.NoError(t, err)

	msgs := make(chan []byte, 16)
	go c.Run(ctx, func(msg []byte) { msgs <- msg })
	t.Cleanup(func() {
		cancel()
		c.Close()
	})
	return c, msgs
}

func receive(t *testing.T, msgs <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestGetDiagramEmpty(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/diagram")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPostDiagramPersists(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	doc := plant(t)

	resp, err := http.Post(ts.URL+"/diagram", "application/json", bytes.NewReader(doc))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st, err := diagramfile.Load(s.Store().Path())
	require.NoError(t, err)
	require.Len(t, st.Components, 1)
	assert.Equal(t, DefaultTarget, st.Components[0].ID)

	resp, err = http.Get(ts.URL + "/diagram")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	got, err := diagramfile.ParseJSON(body)
	require.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestPostDiagramRejectsMalformed(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	resp, err := http.Post(ts.URL+"/diagram", "application/json", strings.NewReader(`{"components":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	data, err := s.Store().Get()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestOptionsPreflight(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/diagram", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBroadcastReachesEveryPeer(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	a, fromA := listen(t, ts)
	_, fromB := listen(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.True(t, a.PublishToggle("comp-7", true))

	for _, ch := range []<-chan []byte{fromA, fromB} {
		tg, ok, err := DecodeToggle(receive(t, ch))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Toggle{ID: "comp-7", IsOn: true}, tg)
	}
}

func TestInboundMessagesArePersisted(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	a, msgs := listen(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	stored := func() *diagram.State {
		data, err := s.Store().Get()
		require.NoError(t, err)
		st, err := diagramfile.ParseJSON(data)
		if err != nil {
			return nil
		}
		return st
	}

	// Non-documents are relayed but leave the store alone
	require.True(t, a.Publish([]byte(`{"hello":1}`)))
	assert.JSONEq(t, `{"hello":1}`, string(receive(t, msgs)))
	data, err := s.Store().Get()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	require.True(t, a.Publish(plant(t)))
	receive(t, msgs)
	st := stored()
	require.NotNil(t, st)
	require.Len(t, st.Components, 1)
	assert.False(t, st.Components[0].On())

	require.True(t, a.PublishToggle("data-id="+DefaultTarget, true))
	receive(t, msgs)
	st = stored()
	require.NotNil(t, st)
	assert.True(t, st.Components[0].On())
}

func TestSimulationTogglesAndPersists(t *testing.T) {
	s, ts := newTestServer(t, Options{Interval: 20 * time.Millisecond})
	_, err := s.Store().Put(plant(t))
	require.NoError(t, err)

	_, msgs := listen(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/start_simulation", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, s.Simulating())
	assert.False(t, s.StartSimulation())

	first, ok, err := DecodeToggle(receive(t, msgs))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Toggle{ID: DefaultTarget, IsOn: true}, first)

	second, _, _ := DecodeToggle(receive(t, msgs))
	assert.False(t, second.IsOn)

	assert.True(t, s.StopSimulation())
	assert.False(t, s.StopSimulation())

	st, err := diagramfile.Load(s.Store().Path())
	require.NoError(t, err)
	require.NotNil(t, st.Components[0].IsOn)
}

func TestSimulationWithoutTargetStillBroadcasts(t *testing.T) {
	s, ts := newTestServer(t, Options{Interval: 20 * time.Millisecond, Target: "comp-9"})
	_, msgs := listen(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.True(t, s.StartSimulation())
	tg, ok, err := DecodeToggle(receive(t, msgs))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "comp-9", tg.ID)
}

func TestStoreSetOnUnknown(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "d.json"))
	assert.ErrorIs(t, st.SetOn("comp-1", true), diagram.ErrUnknownEntity)

	_, err := st.Put(plant(t))
	require.NoError(t, err)
	assert.ErrorIs(t, st.SetOn("comp-1", true), diagram.ErrUnknownEntity)
	require.NoError(t, st.SetOn(DefaultTarget, true))

	data, changed, err := st.Changed()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Contains(t, string(data), `"isOn": true`)
	assert.Contains(t, string(data), `"type": "lamp_ON.png"`)
}

func TestClientAttachPublishesCommits(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	a, _ := listen(t, ts)
	_, fromB := listen(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 2 }, time.Second, 10*time.Millisecond)

	m := diagram.New()
	a.Attach(m)
	_, err := m.PlaceComponent("pump.png", 0, 0, "")
	require.NoError(t, err)

	st, err := diagramfile.ParseJSON(receive(t, fromB))
	require.NoError(t, err)
	require.Len(t, st.Components, 1)
	assert.Equal(t, "pump.png", st.Components[0].Kind)
}

func TestApplier(t *testing.T) {
	m := diagram.New()
	_, err := m.PlaceComponent("lamp_OFF.png", 0, 0, DefaultTarget)
	require.NoError(t, err)
	canUndo := m.CanUndo()
	a := &Applier{Model: m}

	changed, err := a.Apply([]byte(`{"id":"data-id=comp-sim1","isOn":true}`))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, m.State().Component(DefaultTarget).On())
	assert.Equal(t, "lamp_ON.png", m.State().Component(DefaultTarget).Kind)
	assert.Equal(t, canUndo, m.CanUndo())

	changed, err = a.Apply([]byte(`{"id":"comp-404","isOn":true}`))
	assert.NoError(t, err)
	assert.False(t, changed)

	changed, err = a.Apply([]byte(`{"components":[],"connections":[]}`))
	assert.NoError(t, err)
	assert.False(t, changed)

	_, err = a.Apply([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeToggle(t *testing.T) {
	tests := []struct {
		msg  string
		want Toggle
		ok   bool
	}{
		{`{"id":"comp-1","isOn":false}`, Toggle{ID: "comp-1"}, true},
		{`{"id":"data-id=comp-2","isOn":true}`, Toggle{ID: "comp-2", IsOn: true}, true},
		{`{"id":"comp-1"}`, Toggle{}, false},
		{`{"isOn":true}`, Toggle{}, false},
		{`[]`, Toggle{}, false},
	}
	for _, tc := range tests {
		got, ok, _ := DecodeToggle([]byte(tc.msg))
		assert.Equal(t, tc.ok, ok, tc.msg)
		assert.Equal(t, tc.want, got, tc.msg)
	}
}

func TestPublishable(t *testing.T) {
	for _, op := range []string{"place", "toggle", "undo", "load", "stroke"} {
		assert.True(t, Publishable(op), op)
	}
	for _, op := range []string{"remote-toggle", "cancel", "abort"} {
		assert.False(t, Publishable(op), op)
	}
}
