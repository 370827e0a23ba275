package face

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Set is the persisted enrollment data.  The three slices are parallel.
type Set struct {
	IDs       []string
	Encodings [][]float64
	Names     []string
}

func (s Set) Len() int { return len(s.Encodings) }

func (s Set) clone() Set {
	out := Set{
		IDs:       append([]string(nil), s.IDs...),
		Encodings: make([][]float64, len(s.Encodings)),
		Names:     append([]string(nil), s.Names...),
	}
	for i, e := range s.Encodings {
		out.Encodings[i] = append([]float64(nil), e...)
	}
	return out
}

// Store loads and saves a Set.
type Store interface {
	Load() (Set, error)
	Save(Set) error
}

// FileStore keeps the set in one gob file.  A missing file is an empty set.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (Set, error) {
	fh, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Set{}, nil
	}
	if err != nil {
		return Set{}, errors.Wrap(err, "open face store")
	}
	defer fh.Close()

	var s Set
	if err := gob.NewDecoder(fh).Decode(&s); err != nil {
		return Set{}, errors.Wrap(err, "decode face store")
	}
	if len(s.Names) != len(s.Encodings) || len(s.IDs) != len(s.Encodings) {
		return Set{}, errors.New("face store is inconsistent")
	}
	return s, nil
}

// Save writes s to a temp file next to Path and renames it into place.
func (f FileStore) Save(s Set) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir face store")
	}
	tmp, err := os.CreateTemp(dir, ".faces-*")
	if err != nil {
		return errors.Wrap(err, "create temp face store")
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(s); err != nil {
		tmp.Close()
		return errors.Wrap(err, "encode face store")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync face store")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close face store")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.Path), "rename face store")
}

// MemoryStore holds the set in process and forgets it on exit.
type MemoryStore struct {
	mu  sync.Mutex
	set Set
}

func (m *MemoryStore) Load() (Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.clone(), nil
}

func (m *MemoryStore) Save(s Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = s.clone()
	return nil
}
