package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	return New(zaptest.NewLogger(t))
}

func TestExtractMarkerFromJSONBlob(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		JSONBlob: map[string]interface{}{"answer": float64(42)},
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnswerNumber, answer.Kind)
	assert.Equal(t, float64(42), answer.Number)
}

func TestExtractMarkerFromDOM(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		HTML: `<html><body><span id="answer">sunrise</span></body></html>`,
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, schemas.TextAnswer("sunrise"), answer)
}

// Heuristic priority is deterministic: an explicit marker wins even when a
// matching table is present.
func TestExtractMarkerBeatsTable(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		HTML: `<html><body>
			<div data-answer="explicit"></div>
			<table>
				<tr><th>item</th><th>amount</th></tr>
				<tr><td>a</td><td>3</td></tr>
			</table>
		</body></html>`,
		VisibleText: "What is the sum of the amount column?",
		HasTables:   true,
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, schemas.TextAnswer("explicit"), answer)
}

func TestExtractCSVColumnSum(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		VisibleText: "What is the sum of the amount column?",
		Resources: []schemas.Resource{
			{
				URL:  "https://quiz.example/data.csv",
				Kind: schemas.ResourceCSV,
				Data: []byte("item,amount\na,3\nb,5\n"),
			},
		},
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnswerNumber, answer.Kind)
	assert.Equal(t, float64(8), answer.Number)
	assert.Equal(t, int64(8), answer.Value())
}

func TestExtractHTMLTableAggregates(t *testing.T) {
	html := `<html><body><table>
		<tr><th>name</th><th>price</th></tr>
		<tr><td>x</td><td>$10.50</td></tr>
		<tr><td>y</td><td>$4.50</td></tr>
		<tr><td>z</td><td></td></tr>
	</table></body></html>`

	tests := []struct {
		name     string
		question string
		want     float64
	}{
		{"sum with currency cleanup", "Compute the sum of the price column.", 15},
		{"average skips blanks", "What is the average of the price column?", 7.5},
		{"count of non-blank cells", "Count of the price column entries?", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t)
			page := &schemas.RenderedPage{HTML: html, VisibleText: tt.question, HasTables: true}

			answer, err := e.Extract(page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.Number)
		})
	}
}

func TestExtractLastMatchingColumnWins(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		VisibleText: "sum of the value column",
		Resources: []schemas.Resource{
			{
				URL:  "https://quiz.example/dup.csv",
				Kind: schemas.ResourceCSV,
				Data: []byte("value,other,value\n1,9,100\n2,9,200\n"),
			},
		},
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, float64(300), answer.Number)
}

func TestExtractTextPatterns(t *testing.T) {
	tests := []struct {
		text string
		want schemas.Answer
	}{
		{"Remember: the code word is zephyr. Good luck.", schemas.TextAnswer("zephyr")},
		{"After analysis, the answer is 19.", schemas.NumberAnswer(19)},
		{"secret code: BLUE-7", schemas.TextAnswer("BLUE-7")},
	}

	for _, tt := range tests {
		e := newExtractor(t)
		answer, err := e.Extract(&schemas.RenderedPage{VisibleText: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.want, answer, "text: %s", tt.text)
	}
}

func TestExtractMalformedCSVIsParseFailure(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		VisibleText: "sum of the amount column",
		Resources: []schemas.Resource{
			{
				URL:  "https://quiz.example/bad.csv",
				Kind: schemas.ResourceCSV,
				Data: []byte("a,\"unterminated\nb,2"),
			},
		},
	}

	_, err := e.Extract(page)
	require.Error(t, err)
	extErr, ok := err.(*schemas.ExtractionError)
	require.True(t, ok)
	assert.Equal(t, "parse failure", extErr.Reason)
}

func TestExtractMalformedPDFIsParseFailure(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		VisibleText: "sum of the value column on page 2",
		Resources: []schemas.Resource{
			{
				URL:  "https://quiz.example/bad.pdf",
				Kind: schemas.ResourcePDF,
				Data: []byte("%PDF-1.4 truncated garbage"),
			},
		},
	}

	_, err := e.Extract(page)
	require.Error(t, err)
	extErr, ok := err.(*schemas.ExtractionError)
	require.True(t, ok)
	assert.Equal(t, "parse failure", extErr.Reason)
}

func TestExtractSkipsFailedDownloads(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		VisibleText: "The code word is fallback.",
		Resources: []schemas.Resource{
			{URL: "https://quiz.example/gone.csv", Kind: schemas.ResourceCSV, FetchError: "unexpected status 404"},
		},
	}

	answer, err := e.Extract(page)
	require.NoError(t, err)
	assert.Equal(t, schemas.TextAnswer("fallback"), answer)
}

func TestExtractNoHeuristicMatched(t *testing.T) {
	e := newExtractor(t)
	page := &schemas.RenderedPage{
		HTML:        `<html><body><p>Nothing to see.</p></body></html>`,
		VisibleText: "Nothing to see.",
	}

	_, err := e.Extract(page)
	require.Error(t, err)
	extErr, ok := err.(*schemas.ExtractionError)
	require.True(t, ok)
	assert.Equal(t, "no heuristic matched", extErr.Reason)
}
