package bayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel_Validation(t *testing.T) {
	good := []ClassProfile{
		{LogProbs: []float64{-1, -2}, LogPrior: -0.7},
		{LogProbs: []float64{-2, -1}, LogPrior: -0.7},
	}

	tests := []struct {
		name     string
		terms    []string
		labels   []string
		profiles []ClassProfile
		want     error
	}{
		{"no terms", nil, []string{"a", "b"}, good, ErrEmptyModel},
		{"no classes", []string{"x", "y"}, nil, nil, ErrEmptyModel},
		{"label count", []string{"x", "y"}, []string{"a"}, good, ErrDimensionMismatch},
		{"short vector", []string{"x", "y"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}, ErrDimensionMismatch},
		{"zero entry", []string{"x", "y"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1, 0}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}, ErrCorruptModel},
		{"nan entry", []string{"x", "y"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1, math.NaN()}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}, ErrCorruptModel},
		{"infinite prior", []string{"x", "y"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1, -2}, LogPrior: math.Inf(-1)},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}, ErrCorruptModel},
		{"duplicate term", []string{"x", "x"}, []string{"a", "b"}, good, ErrDuplicateTerm},
		{"duplicate label", []string{"x", "y"}, []string{"a", "a"}, good, ErrCorruptModel},
		{"valid", []string{"x", "y"}, []string{"a", "b"}, good, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewModel(tt.terms, tt.labels, tt.profiles)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, 2, m.NumClasses())
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, m)
		})
	}
}

func TestNewModel_CopiesInput(t *testing.T) {
	terms := []string{"x", "y"}
	labels := []string{"a", "b"}
	profiles := []ClassProfile{
		{LogProbs: []float64{-1, -2}, LogPrior: -0.7},
		{LogProbs: []float64{-2, -1}, LogPrior: -0.7},
	}
	m, err := NewModel(terms, labels, profiles)
	require.NoError(t, err)

	terms[0] = "z"
	labels[0] = "c"
	profiles[0].LogProbs[0] = -9

	assert.Equal(t, []string{"x", "y"}, m.Vocabulary().Terms())
	assert.Equal(t, []string{"a", "b"}, m.Labels())
	assert.Equal(t, -1.0, m.Profile(0).LogProbs[0])
}

func TestVocabulary_Mapping(t *testing.T) {
	v, err := NewVocabulary([]string{"free", "win", "meeting"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())

	for i, term := range v.Terms() {
		idx, ok := v.Index(term)
		require.True(t, ok)
		assert.Equal(t, i, idx)
		assert.Equal(t, term, v.Term(idx))
	}

	_, ok := v.Index("lunch")
	assert.False(t, ok)
}

func TestNewModel_CorruptIsDimensionMismatch(t *testing.T) {
	tests := []struct {
		name     string
		terms    []string
		labels   []string
		profiles []ClassProfile
	}{
		{"zero entry", []string{"x", "y"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1, 0}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}},
		{"duplicate label", []string{"x", "y"}, []string{"a", "a"}, []ClassProfile{
			{LogProbs: []float64{-1, -2}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}},
		{"duplicate term", []string{"x", "x"}, []string{"a", "b"}, []ClassProfile{
			{LogProbs: []float64{-1, -2}, LogPrior: -1},
			{LogProbs: []float64{-2, -1}, LogPrior: -1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.terms, tt.labels, tt.profiles)
			assert.ErrorIs(t, err, ErrCorruptModel)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
			assert.NotErrorIs(t, err, ErrEmptyModel)
		})
	}
}
