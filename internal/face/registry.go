package face

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UnknownName is reported for a face that matches no enrollment.
const UnknownName = "unknown"

// Match is one identification result.
type Match struct {
	Name              string  `json:"name"`
	SimilarityPercent float64 `json:"similarity_percent"`
}

// Registry owns the enrolled set.  It is loaded once from its store and
// written back synchronously after every enrollment, under the same lock
// that guards reads.
type Registry struct {
	mu    sync.RWMutex
	set   Set
	store Store
}

// NewRegistry loads the set from store.
func NewRegistry(store Store) (*Registry, error) {
	set, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Registry{set: set, store: store}, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Len()
}

// Enroll embeds the image and stores it under name.  It returns the id of
// the new sample.  Nothing is kept in memory if saving fails.
func (r *Registry) Enroll(name string, data []byte, filename string) (string, error) {
	if name == "" {
		return "", errors.New("name is required")
	}
	emb, err := EmbedBytes(data, filename)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	next := Set{
		IDs:       append(append([]string(nil), r.set.IDs...), id),
		Encodings: append(append([][]float64(nil), r.set.Encodings...), emb),
		Names:     append(append([]string(nil), r.set.Names...), name),
	}
	if err := r.store.Save(next); err != nil {
		return "", err
	}
	r.set = next
	return id, nil
}

// Identify returns the closest enrolled name for the face in the image, or
// UnknownName with zero similarity when nothing lies within Tolerance.
func (r *Registry) Identify(data []byte, filename string) ([]Match, error) {
	emb, err := EmbedBytes(data, filename)
	if err != nil {
		return nil, err
	}
	return []Match{r.nearest(emb)}, nil
}

func (r *Registry) nearest(emb Embedding) Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestDist := -1, 0.0
	for i, known := range r.set.Encodings {
		d := Distance(known, emb)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > Tolerance {
		return Match{Name: UnknownName}
	}
	return Match{Name: r.set.Names[best], SimilarityPercent: Similarity(bestDist)}
}
