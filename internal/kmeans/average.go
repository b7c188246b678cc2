package kmeans

import "sync"

// MeanStore accumulates a weighted running sum of vectors.
type MeanStore struct {
	sum    []float64
	weight float64
	count  int
	mu     sync.Mutex
}

// Add adds w*v to the store.
func (s *MeanStore) Add(v []float64, w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sum == nil {
		s.sum = make([]float64, len(v))
	}
	for i, x := range v {
		s.sum[i] += w * x
	}
	s.weight += w
	s.count += 1
}

// Mean writes the weighted mean into dst, allocating when dst is nil.
func (s *MeanStore) Mean(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(s.sum))
	}
	for i, x := range s.sum {
		dst[i] = x / s.weight
	}
	return dst
}

func (s *MeanStore) Count() int { return s.count }

func (s *MeanStore) Weight() float64 { return s.weight }

// Reset empties the store, keeping its buffer.
func (s *MeanStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sum)
	s.weight = 0
	s.count = 0
}
