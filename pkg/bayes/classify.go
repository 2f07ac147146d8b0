package bayes

import "fmt"

// Result is the outcome of classifying a single document.
type Result struct {
	// Classes are ordered by descending log-posterior.
	Classes []Ranked `json:"classes" yaml:"classes"`
	// Words attribute the victory of the top class to individual terms.
	Words []WordMargin `json:"words" yaml:"words"`
}

// Winner returns the top ranked class.
func (r *Result) Winner() Ranked {
	return r.Classes[0]
}

// TopWords returns at most n words ordered by descending margin.
// A non-positive n returns all of them.
func (r *Result) TopWords(n int) []WordMargin {
	words := SortByMargin(r.Words)
	if n > 0 && n < len(words) {
		words = words[:n]
	}
	return words
}

// Classify scores tokens against every class of the model, ranks the classes
// and attributes the winning margin to the contributing words.
func Classify(m *Model, tokens []string) (*Result, error) {
	if m == nil {
		return nil, ErrModelUnavailable
	}
	if m.NumClasses() == 0 || m.vocab == nil || m.vocab.Len() == 0 {
		return nil, ErrEmptyModel
	}

	counts := m.WordVector(tokens)

	scores := make([]*ClassScore, m.NumClasses())
	posteriors := make([]float64, m.NumClasses())
	for c, p := range m.profiles {
		s, err := ScoreClass(m.vocab, m.labels[c], p, counts)
		if err != nil {
			return nil, err
		}
		if c > 0 && !sameSupport(scores[0], s) {
			return nil, fmt.Errorf("%w: classes %q and %q disagree on present terms",
				ErrCorruptModel, scores[0].Label, s.Label)
		}
		scores[c] = s
		posteriors[c] = s.LogPosterior
	}

	ranked, err := Rank(m.labels, posteriors)
	if err != nil {
		return nil, err
	}
	win := ranked[0].Index

	competitors := make([]*ClassScore, 0, len(scores)-1)
	for c, s := range scores {
		if c != win {
			competitors = append(competitors, s)
		}
	}

	words, err := Attribute(scores[win], competitors)
	if err != nil {
		return nil, err
	}

	return &Result{Classes: ranked, Words: words}, nil
}

// Classify is shorthand for Classify(m, tokens).
func (m *Model) Classify(tokens []string) (*Result, error) {
	return Classify(m, tokens)
}
