package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		text    string
		want    question
		matched bool
	}{
		{
			"What is the sum of the value column on page 2?",
			question{agg: aggSum, column: "value", page: 2},
			true,
		},
		{
			"Compute the total of the amount column.",
			question{agg: aggSum, column: "amount"},
			true,
		},
		{
			"What is the average of the score column?",
			question{agg: aggAverage, column: "score"},
			true,
		},
		{
			"How many rows have a value entry?",
			question{agg: aggCount, column: "value"},
			true,
		},
		{
			"Tell me a story about dragons.",
			question{},
			false,
		},
	}

	for _, tt := range tests {
		q, ok := parseQuestion(tt.text)
		assert.Equal(t, tt.matched, ok, "text: %s", tt.text)
		if tt.matched {
			assert.Equal(t, tt.want.agg, q.agg, "text: %s", tt.text)
			assert.Equal(t, tt.want.column, q.column, "text: %s", tt.text)
			assert.Equal(t, tt.want.page, q.page, "text: %s", tt.text)
		}
	}
}

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"$1,250.75", 1250.75, true},
		{"-3 units", -3, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		v, ok := cleanNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "input: %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, v, "input: %q", tt.in)
		}
	}
}

func TestLastMatchingColumn(t *testing.T) {
	tbl := dataTable{headers: []string{"Value", "other", "VALUE"}}

	assert.Equal(t, 2, tbl.lastMatchingColumn("value"))
	assert.Equal(t, 1, tbl.lastMatchingColumn("other"))
	assert.Equal(t, -1, tbl.lastMatchingColumn("missing"))
}
