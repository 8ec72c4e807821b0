package vector

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// SimilarityMatrix is a dense, symmetric N×N matrix of cosine similarities indexed by
// corpus position. Values are in [0, 1]. Read-only once built; safe for concurrent readers.
type SimilarityMatrix struct {
	n    int
	data []float64
}

// NewSimilarityMatrix wraps row-major data of an n×n matrix.
func NewSimilarityMatrix(n int, data []float64) (*SimilarityMatrix, error) {
	if n < 0 || len(data) != n*n {
		return nil, fmt.Errorf("matrix data length %d does not match %dx%d", len(data), n, n)
	}
	return &SimilarityMatrix{n: n, data: data}, nil
}

// Size returns N.
func (s *SimilarityMatrix) Size() int {
	return s.n
}

// At returns sim(i, j).
func (s *SimilarityMatrix) At(i, j int) float64 {
	return s.data[i*s.n+j]
}

// Row returns a copy of row i.
func (s *SimilarityMatrix) Row(i int) []float64 {
	row := make([]float64, s.n)
	copy(row, s.data[i*s.n:(i+1)*s.n])
	return row
}

// BuildSimilarityMatrix computes sim(i, j) for every pair of model vectors. Vectors are
// already unit length, so each entry is a plain dot product. Only the upper triangle is
// computed; rows are spread over workers goroutines (<= 0 means GOMAXPROCS).
func BuildSimilarityMatrix(m *Model, workers int) *SimilarityMatrix {
	n := m.Size()
	s := &SimilarityMatrix{n: n, data: make([]float64, n*n)}
	if n == 0 {
		return s
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	rows := make(chan int, n)
	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				s.fillRow(m.Vectors, i)
			}
		}()
	}
	wg.Wait()
	return s
}

// fillRow writes cells (i, j) and (j, i) for j >= i. Distinct rows never touch the same cell.
func (s *SimilarityMatrix) fillRow(vectors []SparseVector, i int) {
	vi := vectors[i]
	if vi.IsZero() {
		return
	}
	s.data[i*s.n+i] = 1
	for j := i + 1; j < s.n; j++ {
		vj := vectors[j]
		if vj.IsZero() {
			continue
		}
		sim := clampUnit(vi.Dot(vj))
		s.data[i*s.n+j] = sim
		s.data[j*s.n+i] = sim
	}
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
