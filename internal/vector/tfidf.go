// Package vector builds TF-IDF vector-space models and item-by-item similarity matrices.
package vector

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"github.com/hyperjump/osusume/internal/indexer"
)

// SparseVector holds the non-zero weights of a document vector.
// Indices are vocabulary columns in ascending order.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no non-zero weight.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Norm returns the Euclidean norm of v.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			dot += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Model is a fitted TF-IDF vector space: a sorted vocabulary, a smoothed IDF per
// term, and one L2-normalized weight vector per document. Read-only after BuildModel.
type Model struct {
	Vocabulary     []string
	IDF            []float64
	Vectors        []SparseVector
	MinTokenLength int
	terms          map[string]int
}

type modelOptions struct {
	minTokenLength int
}

// ModelOption configures BuildModel.
type ModelOption func(*modelOptions)

// WithMinTokenLength drops tokens shorter than n runes from the vocabulary.
func WithMinTokenLength(n int) ModelOption {
	return func(o *modelOptions) { o.minTokenLength = n }
}

// BuildModel fits a TF-IDF model over docs, which should already be normalized.
// idf(t) = ln((1+N)/(1+df(t))) + 1; each document vector is tf*idf divided by its
// L2 norm, and documents without terms keep the zero vector.
func BuildModel(docs []string, opts ...ModelOption) *Model {
	o := modelOptions{minTokenLength: 1}
	for _, opt := range opts {
		opt(&o)
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, tok := range indexer.Tokenize(doc, o.minTokenLength) {
			tf[tok]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	m := &Model{
		Vocabulary:     vocab,
		IDF:            make([]float64, len(vocab)),
		Vectors:        make([]SparseVector, len(docs)),
		MinTokenLength: o.minTokenLength,
		terms:          make(map[string]int, len(vocab)),
	}
	n := float64(len(docs))
	for col, term := range vocab {
		m.terms[term] = col
		m.IDF[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	for i, tf := range counts {
		if len(tf) == 0 {
			continue
		}
		cols := make([]int, 0, len(tf))
		for term := range tf {
			cols = append(cols, m.terms[term])
		}
		sort.Ints(cols)
		vec := SparseVector{Indices: cols, Values: make([]float64, len(cols))}
		for k, col := range cols {
			vec.Values[k] = float64(tf[vocab[col]]) * m.IDF[col]
		}
		if norm := vec.Norm(); norm > 0 {
			for k := range vec.Values {
				vec.Values[k] /= norm
			}
		}
		m.Vectors[i] = vec
	}
	return m
}

// Size returns the number of documents in the model.
func (m *Model) Size() int {
	return len(m.Vectors)
}

// VocabularySize returns the number of distinct terms.
func (m *Model) VocabularySize() int {
	return len(m.Vocabulary)
}

// Fingerprint identifies the tokenization a model was fitted with: the token length
// rule, the document count and the vocabulary. Two models of the same corpus with equal
// fingerprints have identical vectors.
func (m *Model) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m.MinTokenLength))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(m.Vectors)))
	h.Write(buf[:])
	for _, term := range m.Vocabulary {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(term)))
		h.Write(buf[:])
		h.Write([]byte(term))
	}
	return h.Sum64()
}
