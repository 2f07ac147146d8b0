package bayes

import (
	"fmt"
	"math"
	"sort"
)

// Ranked is a class position in the classification ranking.
type Ranked struct {
	// Index is the position of the class in model order.
	Index        int     `json:"-" yaml:"-"`
	Label        string  `json:"label" yaml:"label"`
	LogPosterior float64 `json:"log_posterior" yaml:"log_posterior"`
	// Relative is 2^(LogPosterior - top), exactly 1 for the winner.
	Relative float64 `json:"relative" yaml:"relative"`
	// Percentage is Relative normalized over all classes.
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Rank orders classes by descending log-posterior. The sort is stable so on a
// tie the class earlier in model order wins. labels and logPosteriors must
// have the same length.
func Rank(labels []string, logPosteriors []float64) ([]Ranked, error) {
	if len(labels) != len(logPosteriors) {
		return nil, fmt.Errorf("%w: %d labels, %d scores", ErrDimensionMismatch, len(labels), len(logPosteriors))
	}

	list := make([]Ranked, len(labels))
	for i, l := range labels {
		list[i] = Ranked{Index: i, Label: l, LogPosterior: logPosteriors[i]}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LogPosterior > list[j].LogPosterior
	})

	if len(list) == 0 {
		return list, nil
	}

	top := list[0].LogPosterior
	var sum float64
	for i := range list {
		list[i].Relative = math.Exp2(list[i].LogPosterior - top)
		sum += list[i].Relative
	}
	for i := range list {
		list[i].Percentage = list[i].Relative / sum
	}

	return list, nil
}
