package bayes

import "fmt"

// Vocabulary is the ordered set of terms known to a model. The position of a
// term is its feature index.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from the ordered terms. Terms must be unique.
func NewVocabulary(terms []string) (*Vocabulary, error) {
	v := &Vocabulary{
		terms: make([]string, len(terms)),
		index: make(map[string]int, len(terms)),
	}
	for i, t := range terms {
		if _, ok := v.index[t]; ok {
			return nil, fmt.Errorf("%w: %q at %d", ErrDuplicateTerm, t, i)
		}
		v.index[t] = i
		v.terms[i] = t
	}
	return v, nil
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Index returns the feature index of the term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at feature index i.
func (v *Vocabulary) Term(i int) string {
	return v.terms[i]
}

// Terms returns a copy of the ordered terms.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}
