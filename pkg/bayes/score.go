package bayes

import (
	"fmt"
	"slices"
)

// ClassScore is the evidence a single class collects for a document.
type ClassScore struct {
	Label        string
	LogPosterior float64
	// Indices are the feature indices with non-zero evidence, ascending.
	Indices []int
	// Terms are the vocabulary terms at Indices.
	Terms []string
	// Evidence[j] is logProb[Indices[j]] * count[Indices[j]].
	Evidence []float64
}

// ScoreClass scores the word-count vector against one class profile.
func ScoreClass(vocab *Vocabulary, label string, p ClassProfile, counts []int) (*ClassScore, error) {
	if len(p.LogProbs) != vocab.Len() || len(counts) != vocab.Len() {
		return nil, fmt.Errorf("%w: class %q has %d log-probabilities and %d counts for %d terms",
			ErrDimensionMismatch, label, len(p.LogProbs), len(counts), vocab.Len())
	}

	s := &ClassScore{
		Label:        label,
		LogPosterior: p.LogPrior,
	}

	for i, lp := range p.LogProbs {
		v := lp * float64(counts[i])
		if v == 0 {
			continue
		}
		s.LogPosterior += v
		s.Indices = append(s.Indices, i)
		s.Terms = append(s.Terms, vocab.Term(i))
		s.Evidence = append(s.Evidence, v)
	}

	return s, nil
}

// sameSupport reports whether both scores have evidence at the same indices.
func sameSupport(a, b *ClassScore) bool {
	return slices.Equal(a.Indices, b.Indices)
}
