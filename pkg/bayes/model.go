// Package bayes scores tokenized documents against a trained multinomial
// Naive Bayes model and attributes the decision to individual words.
package bayes

import (
	"fmt"
	"math"
)

// ClassProfile holds the trained parameters of a single class.
type ClassProfile struct {
	// LogProbs[i] is log P(term i | class).
	LogProbs []float64
	LogPrior float64
}

// Model is a trained Naive Bayes model. It is immutable once constructed and
// safe for concurrent use.
type Model struct {
	vocab    *Vocabulary
	labels   []string
	profiles []ClassProfile
}

// NewModel validates and assembles a model from its trained artifacts.
// The inputs are copied so later changes by the caller have no effect.
func NewModel(terms, labels []string, profiles []ClassProfile) (*Model, error) {
	if len(terms) == 0 || len(labels) == 0 || len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %d terms, %d labels, %d profiles",
			ErrEmptyModel, len(terms), len(labels), len(profiles))
	}

	if len(labels) != len(profiles) {
		return nil, fmt.Errorf("%w: %d labels for %d class profiles",
			ErrDimensionMismatch, len(labels), len(profiles))
	}

	vocab, err := NewVocabulary(terms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}

	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return nil, fmt.Errorf("%w: duplicate class label %q", ErrCorruptModel, l)
		}
		seen[l] = struct{}{}
	}

	m := &Model{
		vocab:    vocab,
		labels:   make([]string, len(labels)),
		profiles: make([]ClassProfile, len(profiles)),
	}
	copy(m.labels, labels)

	for c, p := range profiles {
		if len(p.LogProbs) != vocab.Len() {
			return nil, fmt.Errorf("%w: class %q has %d log-probabilities for %d terms",
				ErrDimensionMismatch, labels[c], len(p.LogProbs), vocab.Len())
		}
		if !isFinite(p.LogPrior) {
			return nil, fmt.Errorf("%w: class %q has log-prior %v", ErrCorruptModel, labels[c], p.LogPrior)
		}
		for i, lp := range p.LogProbs {
			// zero entries would hide present terms from the evidence vector
			if lp == 0 || !isFinite(lp) {
				return nil, fmt.Errorf("%w: class %q term %q has log-probability %v",
					ErrCorruptModel, labels[c], vocab.Term(i), lp)
			}
		}
		lps := make([]float64, len(p.LogProbs))
		copy(lps, p.LogProbs)
		m.profiles[c] = ClassProfile{LogProbs: lps, LogPrior: p.LogPrior}
	}

	return m, nil
}

// Vocabulary returns the model vocabulary.
func (m *Model) Vocabulary() *Vocabulary {
	return m.vocab
}

// NumClasses returns the number of classes.
func (m *Model) NumClasses() int {
	return len(m.labels)
}

// Labels returns a copy of the class labels in model order.
func (m *Model) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Profile returns a copy of the profile of class c.
func (m *Model) Profile(c int) ClassProfile {
	p := m.profiles[c]
	lps := make([]float64, len(p.LogProbs))
	copy(lps, p.LogProbs)
	return ClassProfile{LogProbs: lps, LogPrior: p.LogPrior}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
