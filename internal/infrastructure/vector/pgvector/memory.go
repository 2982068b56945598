package pgvector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// MemoryIndex is a process-local similarity index for tests and deployments
// without the pgvector extension. It implements the same port as Index.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string][]float32)}
}

func (m *MemoryIndex) Upsert(_ context.Context, documentID string, embedding []float32) error {
	cp := make([]float32, len(embedding))
	copy(cp, embedding)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[documentID] = cp
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, embedding []float32, k int) ([]ports.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	neighbors := make([]ports.Neighbor, 0, len(m.vectors))
	for id, vec := range m.vectors {
		neighbors = append(neighbors, ports.Neighbor{
			DocumentID: id,
			Distance:   cosineDistance(embedding, vec),
		})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].DocumentID < neighbors[j].DocumentID
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func cosineDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
