package cosine

import (
	"errors"
	"math"
	"sort"

	"github.com/baditaflorin/go_length_eval/internal/ports"
)

var (
	// ErrEmptyVocabulary is returned when the fitted documents hold no terms.
	ErrEmptyVocabulary = errors.New("cosine: empty vocabulary")
	// ErrNotFitted is returned by Transform before a successful Fit.
	ErrNotFitted = errors.New("cosine: vectorizer is not fitted")
)

// Vectorizer turns documents into L2-normalized TF-IDF vectors over a vocabulary
// learned from the fitted documents only. Terms outside that vocabulary are ignored.
//
// Weights are raw term counts times the smoothed idf ln((1+n)/(1+df)) + 1.
type Vectorizer struct {
	analyzer ports.Analyzer
	index    map[string]int
	terms    []string
	idf      []float64
}

// NewVectorizer creates an unfitted vectorizer using the given analyzer.
func NewVectorizer(analyzer ports.Analyzer) *Vectorizer {
	return &Vectorizer{analyzer: analyzer}
}

// Fit learns the vocabulary and idf weights from docs, replacing any previous fit.
func (v *Vectorizer) Fit(docs ...string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.analyzer.Terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	index := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		index[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v.index, v.terms, v.idf = index, terms, idf
	return nil
}

// Vocabulary returns the fitted terms in index order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Transform returns the normalized TF-IDF vector of doc. A document sharing no
// term with the vocabulary yields the zero vector.
func (v *Vectorizer) Transform(doc string) ([]float64, error) {
	if v.index == nil {
		return nil, ErrNotFitted
	}
	vec := make([]float64, len(v.terms))
	for _, term := range v.analyzer.Terms(doc) {
		if i, ok := v.index[term]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// Cosine returns the cosine of the angle between a and b, or 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
