package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/radovskyb/watcher"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// Defaults for the simulation ticker.
const (
	DefaultTarget   = "comp-sim1"
	DefaultInterval = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	StorePath string        // diagram.json location
	Target    string        // component toggled by the simulation
	Interval  time.Duration // simulation period
	Logger    *logging.Logger
}

// Server is the HTTP side of the relay: document storage, the WebSocket
// hub and the toggle simulation.
type Server struct {
	opts  Options
	hub   *Hub
	store *Store
	log   *logging.Logger

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	toggle bool
}

// NewServer creates a server. Zero option fields take their defaults.
func NewServer(opts Options) *Server {
	if opts.StorePath == "" {
		opts.StorePath = "diagram.json"
	}
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("relay")
	}
	s := &Server{
		opts:  opts,
		hub:   NewHub(opts.Logger.With("hub")),
		store: NewStore(opts.StorePath),
		log:   opts.Logger,
	}
	s.hub.onMessage = s.persist
	return s
}

// persist keeps the stored document in step with what peers publish:
// toggles flip the stored component and full documents replace it.
// Anything else is relayed but not stored.
func (s *Server) persist(msg []byte) {
	t, ok, err := DecodeToggle(msg)
	switch {
	case err != nil:
		s.log.Debug("inbound message is not JSON: %v", err)
	case ok:
		if err := s.store.SetOn(t.ID, t.IsOn); err != nil {
			if errors.Is(err, diagram.ErrUnknownEntity) {
				s.log.Debug("inbound toggle: %v", err)
			} else {
				s.log.Warn("inbound toggle: persist %s: %v", t.ID, err)
			}
		}
	default:
		if _, err := s.store.Put(msg); err != nil {
			s.log.Debug("inbound message not stored: %v", err)
		}
	}
}

// Hub returns the server's broadcast hub.
func (s *Server) Hub() *Hub { return s.hub }

// Store returns the server's document store.
func (s *Server) Store() *Store { return s.store }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /diagram", s.handleGetDiagram)
	mux.HandleFunc("POST /diagram", s.handlePostDiagram)
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("GET /start_simulation", s.handleStart)
	mux.HandleFunc("POST /start_simulation", s.handleStart)
	mux.HandleFunc("GET /stop_simulation", s.handleStop)
	mux.HandleFunc("POST /stop_simulation", s.handleStop)
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "mimic relay"})
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get()
	if err != nil {
		s.log.Error("read %s: %v", s.store.Path(), err)
		writeJSON(w, http.StatusInternalServerError, status{Status: "error", Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handlePostDiagram(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, status{Status: "error", Error: err.Error()})
		return
	}
	if _, err := s.store.Put(data); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, diagram.ErrMalformedSnapshot) {
			code = http.StatusBadRequest
		}
		s.log.Warn("rejected diagram: %v", err)
		writeJSON(w, code, status{Status: "error", Error: err.Error()})
		return
	}
	s.log.Info("stored diagram in %s", s.store.Path())
	writeJSON(w, http.StatusOK, status{Status: "success"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.StartSimulation() {
		writeJSON(w, http.StatusOK, status{Status: "simulation started"})
		return
	}
	writeJSON(w, http.StatusOK, status{Status: "simulation already running"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.StopSimulation() {
		writeJSON(w, http.StatusOK, status{Status: "simulation stopped"})
		return
	}
	writeJSON(w, http.StatusOK, status{Status: "simulation not running"})
}

// Simulating reports whether the simulation ticker is running.
func (s *Server) Simulating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// StartSimulation starts toggling the target component every interval.
// It returns false if the simulation was already running.
func (s *Server) StartSimulation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return false
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.toggle = true
	go s.simulate(s.stop, s.done)
	s.log.Info("simulation started: %s every %s", s.opts.Target, s.opts.Interval)
	return true
}

// StopSimulation stops the ticker and waits for it to exit. It returns
// false if the simulation was not running.
func (s *Server) StopSimulation() bool {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return false
	}
	close(stop)
	<-done
	s.log.Info("simulation stopped")
	return true
}

func (s *Server) simulate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick flips the target once: persist, then broadcast.
func (s *Server) tick() {
	s.mu.Lock()
	on := s.toggle
	s.toggle = !s.toggle
	s.mu.Unlock()

	if err := s.store.SetOn(s.opts.Target, on); err != nil {
		if errors.Is(err, diagram.ErrUnknownEntity) {
			s.log.Debug("simulation: %v", err)
		} else {
			s.log.Warn("simulation: persist %s: %v", s.opts.Target, err)
		}
	}
	n := s.hub.Broadcast(Toggle{ID: s.opts.Target, IsOn: on}.Encode())
	s.log.Debug("simulation: %s on=%v sent to %d peers", s.opts.Target, on, n)
}

// Watch polls the store file and broadcasts the document whenever it is
// changed by something other than this server. It blocks until ctx is
// done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Rename, watcher.Move)
	if err := w.Add(s.store.Path()); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-w.Event:
				s.reloadFromDisk()
			case err := <-w.Error:
				s.log.Warn("watch %s: %v", s.store.Path(), err)
			case <-w.Closed:
				return
			case <-ctx.Done():
				w.Close()
				return
			}
		}
	}()

	return w.Start(interval)
}

func (s *Server) reloadFromDisk() {
	data, changed, err := s.store.Changed()
	if err != nil {
		s.log.Warn("reload %s: %v", s.store.Path(), err)
		return
	}
	if !changed {
		return
	}
	if _, err := s.store.Put(data); err != nil {
		s.log.Warn("ignoring external edit of %s: %v", s.store.Path(), err)
		return
	}
	n := s.hub.Broadcast(data)
	s.log.Info("%s changed on disk; sent to %d peers", s.store.Path(), n)
}

// Close stops the simulation and disconnects every peer.
func (s *Server) Close() {
	s.StopSimulation()
	s.hub.Close()
}
