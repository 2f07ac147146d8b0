package model

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadURL(t *testing.T) {
	want := testArtifact()
	b, err := Encode(FormatJSON, want)
	require.NoError(t, err)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/spam.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)
	}))
	defer s.Close()

	got, err := Read(t.Context(), s.URL+"/models/spam.json?rev=1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadURL(t.Context(), s.URL+"/models/ham.json")
	assert.ErrorIs(t, err, bayes.ErrModelUnavailable)

	_, err = ReadURL(t.Context(), s.URL+"/models/spam.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
