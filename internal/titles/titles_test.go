package titles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Matrix", "matrix"},
		{"A Beautiful Mind", "beautiful mind"},
		{"Fast & Furious", "fast and furious"},
		{"Léon: The Professional", "leon professional"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Rocky IV", "rocky 4"},
		{"VII Days", "vii days"},
		{"SPY x FAMILY", "spy x family"},
		{"Frieren: Beyond Journey’s End", "frieren beyond journeys end"},
		{"  Extra   Spaces  ", "extra spaces"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 1.0, Score("the matrix", "Matrix"), 1e-6)
	assert.Zero(t, Score("", "Matrix"))
	assert.Greater(t, Score("dune", "Dune: Part Two"), Score("dune", "Dunkirk"))
}

func TestRank(t *testing.T) {
	candidates := []string{"Arrival", "Dunkirk", "Dune: Part Two", "Dune"}

	got := Rank("dune", candidates, 0.70)
	require.Len(t, got, 3)
	assert.Equal(t, "Dune", got[0].Title)
	assert.Equal(t, 3, got[0].Index)
	assert.Equal(t, ConfidenceHigh, got[0].Confidence)
	assert.Equal(t, "Dune: Part Two", got[1].Title)
	assert.Equal(t, "Dunkirk", got[2].Title)
}

func TestBest_SequelNumbers(t *testing.T) {
	got := Best("Toy Story 3", []string{"Toy Story", "Toy Story 2", "Toy Story 3"})
	assert.Equal(t, "Toy Story 3", got.Title)
	assert.Equal(t, 2, got.Index)

	got = Best("Shogun", []string{"Arrival", "Interstellar"})
	assert.Equal(t, -1, got.Index)
	assert.Equal(t, ConfidenceNone, got.Confidence)
}

func TestConfidenceString(t *testing.T) {
	assert.Equal(t, "high", ConfidenceHigh.String())
	assert.Equal(t, "medium", ConfidenceMedium.String())
	assert.Equal(t, "low", ConfidenceLow.String())
	assert.Equal(t, "none", ConfidenceNone.String())
}
