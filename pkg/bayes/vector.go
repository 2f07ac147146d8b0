package bayes

// WordVector counts the occurrences of each vocabulary term in tokens.
// Tokens outside the vocabulary are ignored.
func (v *Vocabulary) WordVector(tokens []string) []int {
	counts := make([]int, v.Len())
	for _, t := range tokens {
		if i, ok := v.index[t]; ok {
			counts[i]++
		}
	}
	return counts
}

// WordVector counts tokens against the model vocabulary.
func (m *Model) WordVector(tokens []string) []int {
	return m.vocab.WordVector(tokens)
}
