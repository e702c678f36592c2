package renderer

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

const pageURL = "https://quiz.example/q/1"

func TestParsePageSubmitURLAbsolute(t *testing.T) {
	html := `<html><body>
		<p>POST your answer to https://quiz.example/submit?id=1</p>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example/submit?id=1", page.SubmitURL)
}

func TestParsePageSubmitURLFormAction(t *testing.T) {
	html := `<html><body>
		<form action="/q/submit" method="post"><input name="answer"></form>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example/q/submit", page.SubmitURL)
}

func TestParsePageSubmitURLDataAttribute(t *testing.T) {
	html := `<html><body>
		<button data-submit="/api/grade">Check</button>
	</body></html>`

	// No /submit substring anywhere, so the data-submit attribute wins.
	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example/api/grade", page.SubmitURL)
}

func TestParsePageSubmitURLInlineScript(t *testing.T) {
	html := `<html><body>
		<script>
			async function go(ans) {
				await fetch("https://grader.example/v2/submit", {method: "POST"});
			}
		</script>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://grader.example/v2/submit", page.SubmitURL)
}

func TestParsePageSubmitURLPriority(t *testing.T) {
	// An absolute /submit URL in the body outranks the form action.
	html := `<html><body>
		<p>https://primary.example/submit</p>
		<form action="https://secondary.example/submit"></form>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://primary.example/submit", page.SubmitURL)
}

func TestParsePageNoSubmitURL(t *testing.T) {
	page, err := parsePage(`<html><body><p>nothing here</p></body></html>`, "", pageURL)
	require.NoError(t, err)
	assert.Empty(t, page.SubmitURL)
}

func TestFindJSONBlobDirect(t *testing.T) {
	html := `<html><body>
		<pre>not json at all</pre>
		<pre>{"question": "sum of value", "answer": 12}</pre>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	require.NotNil(t, page.JSONBlob)
	assert.Equal(t, float64(12), page.JSONBlob["answer"])
}

func TestFindJSONBlobBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"file": "/data/report.pdf"}`))
	html := fmt.Sprintf(`<html><body><pre>%s</pre></body></html>`, encoded)

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	require.NotNil(t, page.JSONBlob)
	assert.Equal(t, "/data/report.pdf", page.JSONBlob["file"])

	// The blob's file link is picked up as a resource, resolved absolute.
	require.Len(t, page.Resources, 1)
	assert.Equal(t, "https://quiz.example/data/report.pdf", page.Resources[0].URL)
	assert.Equal(t, schemas.ResourcePDF, page.Resources[0].Kind)
}

func TestDiscoverResources(t *testing.T) {
	html := `<html><body>
		<a href="/files/data.csv">download</a>
		<a href="https://cdn.example/sheet.PDF?v=2">report</a>
		<a href="/about.html">about</a>
		<a href="/files/data.csv">duplicate</a>
	</body></html>`

	page, err := parsePage(html, "", pageURL)
	require.NoError(t, err)
	require.Len(t, page.Resources, 2)
	assert.Equal(t, "https://quiz.example/files/data.csv", page.Resources[0].URL)
	assert.Equal(t, schemas.ResourceCSV, page.Resources[0].Kind)
	assert.Equal(t, schemas.ResourcePDF, page.Resources[1].Kind)
}

func TestParsePageTableHint(t *testing.T) {
	withTable := `<html><body><table><tr><td>1</td></tr></table></body></html>`
	page, err := parsePage(withTable, "", pageURL)
	require.NoError(t, err)
	assert.True(t, page.HasTables)

	page, err = parsePage(`<html><body></body></html>`, "", pageURL)
	require.NoError(t, err)
	assert.False(t, page.HasTables)
}

func TestResolveURL(t *testing.T) {
	base := mustParse(t, "https://quiz.example/q/1")

	assert.Equal(t, "https://quiz.example/files/a.pdf", resolveURL(base, "/files/a.pdf"))
	assert.Equal(t, "https://quiz.example/q/a.pdf", resolveURL(base, "a.pdf"))
	assert.Equal(t, "https://other.example/b.csv", resolveURL(base, "https://other.example/b.csv"))
	assert.Empty(t, resolveURL(base, "   "))
}
