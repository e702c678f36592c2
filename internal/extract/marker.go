package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// markerStrategy looks for an explicit answer embedded in the page: an
// "answer" key in the JSON instruction blob, or a labeled DOM element.
// Highest priority, exact match.
type markerStrategy struct{}

func (markerStrategy) Name() string { return "answer_marker" }

func (markerStrategy) Attempt(page *schemas.RenderedPage) (schemas.Answer, bool, error) {
	if page.JSONBlob != nil {
		if raw, ok := page.JSONBlob["answer"]; ok {
			return answerFromValue(raw), true, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return schemas.Answer{}, false, nil
	}

	if attr, ok := doc.Find("[data-answer]").First().Attr("data-answer"); ok {
		if v := strings.TrimSpace(attr); v != "" {
			return answerFromText(v), true, nil
		}
	}
	for _, selector := range []string{"#answer", ".answer"} {
		if v := strings.TrimSpace(doc.Find(selector).First().Text()); v != "" {
			return answerFromText(v), true, nil
		}
	}

	return schemas.Answer{}, false, nil
}

// answerFromValue maps a decoded JSON value onto the Answer variants.
func answerFromValue(raw interface{}) schemas.Answer {
	switch v := raw.(type) {
	case float64:
		return schemas.NumberAnswer(v)
	case string:
		return schemas.TextAnswer(v)
	case map[string]interface{}:
		return schemas.RecordAnswer(v)
	default:
		return schemas.TextAnswer(fmt.Sprint(v))
	}
}

// answerFromText keeps marker text verbatim unless it is purely numeric.
func answerFromText(s string) schemas.Answer {
	if v, ok := cleanNumber(s); ok && strings.IndexFunc(s, isLetter) < 0 {
		return schemas.NumberAnswer(v)
	}
	return schemas.TextAnswer(s)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
