package bayes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func spamModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(
		[]string{"free", "win", "meeting"},
		[]string{"spam", "ham"},
		[]ClassProfile{
			{LogProbs: []float64{-1.0, -1.2, -5.0}, LogPrior: -0.5},
			{LogProbs: []float64{-4.0, -4.5, -0.8}, LogPrior: -0.5},
		},
	)
	require.NoError(t, err)
	return m
}
