package fuzzy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/transit-aggregator/internal/pkg/fuzzy"
)

type item struct {
	Name string
}

func nameOf(i item) string { return i.Name }

func names(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}

func TestMatch_SubstringTierKeepsInputOrder(t *testing.T) {
	items := []item{{"Plaça Catalunya"}, {"Catalunya"}}

	result := fuzzy.Match("catalunya", items, nameOf, fuzzy.DefaultThreshold)

	assert.Equal(t, []string{"Plaça Catalunya", "Catalunya"}, names(result))
}

func TestMatch_TiersConcatenatedInOrder(t *testing.T) {
	items := []item{
		{"Sans"},
		{"Sánts"},
		{"Estació de Sants"},
		{"Zona Universitària"},
	}

	result := fuzzy.Match("Sants", items, nameOf, fuzzy.DefaultThreshold)

	// substring -> accent-folded substring -> fuzzy
	assert.Equal(t, []string{"Estació de Sants", "Sánts", "Sans"}, names(result))
}

func TestMatch_AccentFoldedQuery(t *testing.T) {
	items := []item{{"Mariña"}, {"Diagonal"}}

	result := fuzzy.Match("Marina", items, nameOf, fuzzy.DefaultThreshold)

	assert.Equal(t, []string{"Mariña"}, names(result))
}

func TestMatch_FuzzyTierSortedByScore(t *testing.T) {
	items := []item{{"Sanst"}, {"Sans"}}

	result := fuzzy.Match("sants", items, nameOf, fuzzy.DefaultThreshold)

	assert.Equal(t, []string{"Sans", "Sanst"}, names(result))
}

func TestMatch_NoDuplicates(t *testing.T) {
	items := []item{{"Catalunya"}, {"Catalunya"}, {"Plaça Catalunya"}}

	result := fuzzy.Match("catalunya", items, nameOf, fuzzy.DefaultThreshold)

	assert.Len(t, result, 3)
}

func TestMatch_BelowThreshold(t *testing.T) {
	items := []item{{"Sagrada Família"}}

	result := fuzzy.Match("xyz", items, nameOf, fuzzy.DefaultThreshold)

	assert.Empty(t, result)
}

func TestMatch_Typo(t *testing.T) {
	items := []item{{"Sagrada Família"}, {"Passeig de Gràcia"}}

	result := fuzzy.Match("sagrda familia", items, nameOf, fuzzy.DefaultThreshold)

	assert.Equal(t, []string{"Sagrada Família"}, names(result))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Plaça   de SANTS ", "placa de sants"},
		{"Mariña", "marina"},
		{"Universitat", "universitat"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzy.Normalize(tt.in))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100.0, fuzzy.Score("sants", "sants"))
	assert.Equal(t, 100.0, fuzzy.Score("Sants", "sants!"))
	assert.Equal(t, 100.0, fuzzy.Score("catalunya placa", "placa catalunya"))
	assert.Greater(t, fuzzy.Score("sants", "sans"), fuzzy.Score("sants", "sanst"))
	assert.Equal(t, 0.0, fuzzy.Score("", "abc"))
	assert.Equal(t, 0.0, fuzzy.Score("!!", "abc"))
}
