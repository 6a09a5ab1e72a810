package relay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

// emptyDocument is served when nothing has been stored yet.
var emptyDocument = []byte("{}")

// Store persists the shared diagram document in a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	last []byte // bytes most recently written by this store
}

// NewStore returns a store backed by path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the stored document, or {} when nothing is stored.
func (s *Store) Get() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return emptyDocument, nil
	}
	return data, err
}

// Put validates data as a diagram document and stores it.
func (s *Store) Put(data []byte) (*diagram.State, error) {
	st, err := diagramfile.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return st, s.write(st)
}

func (s *Store) write(st *diagram.State) error {
	out, err := diagramfile.ToJSON(st, true)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.last = out
	return nil
}

// SetOn flips a component in the stored document the way a remote peer
// would, without propagation. It returns diagram.ErrUnknownEntity when
// the document has no such component.
func (s *Store) SetOn(id string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(data), emptyDocument) {
		return fmt.Errorf("component %q: %w", id, diagram.ErrUnknownEntity)
	}
	st, err := diagramfile.ParseJSON(data)
	if err != nil {
		return err
	}

	m := diagram.New()
	if err := m.Load(st); err != nil {
		return err
	}
	if err := m.ApplyRemoteToggle(id, on); err != nil {
		return err
	}
	return s.write(m.State())
}

// Changed reports whether the file on disk differs from what this store
// last wrote, returning the current contents.
func (s *Store) Changed() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return nil, false, err
	}
	return data, !bytes.Equal(data, s.last), nil
}
