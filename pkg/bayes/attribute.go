package bayes

import (
	"fmt"
	"sort"
)

// WordMargin is the cumulative log-odds advantage of the winning class over
// all competitors at a single term.
type WordMargin struct {
	Term   string  `json:"term" yaml:"term"`
	Margin float64 `json:"margin" yaml:"margin"`
}

// Attribute computes, for each term with evidence, the sum over competitors
// of the winner's evidence minus the competitor's evidence.
func Attribute(winner *ClassScore, competitors []*ClassScore) ([]WordMargin, error) {
	margins := make([]float64, len(winner.Evidence))
	for _, c := range competitors {
		if !sameSupport(winner, c) || len(c.Evidence) != len(winner.Evidence) {
			return nil, fmt.Errorf("%w: class %q has evidence at %d terms, class %q at %d",
				ErrCorruptModel, winner.Label, len(winner.Indices), c.Label, len(c.Indices))
		}
		for j, w := range winner.Evidence {
			margins[j] += w - c.Evidence[j]
		}
	}

	words := make([]WordMargin, len(margins))
	for j, m := range margins {
		words[j] = WordMargin{Term: winner.Terms[j], Margin: m}
	}
	return words, nil
}

// SortByMargin returns a copy of words ordered by descending margin.
func SortByMargin(words []WordMargin) []WordMargin {
	out := make([]WordMargin, len(words))
	copy(out, words)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Margin > out[j].Margin
	})
	return out
}
