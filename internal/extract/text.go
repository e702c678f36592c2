package extract

import (
	"regexp"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// textStrategy matches common question phrasings against the page's visible
// text. Lowest priority before giving up.
type textStrategy struct{}

// Patterns are tried in order; the first capture wins.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcode\s*word\s+is\s*:?\s*"?([A-Za-z0-9_-]+)"?`),
	regexp.MustCompile(`(?i)\bsecret\s+(?:code|word)\s+is\s*:?\s*"?([A-Za-z0-9_-]+)"?`),
	regexp.MustCompile(`(?i)\bsecret\s+(?:code|word)\s*:\s*"?([A-Za-z0-9_-]+)"?`),
	regexp.MustCompile(`(?i)\bthe\s+answer\s+is\s*:?\s*"?([A-Za-z0-9_.\-]+)"?`),
	regexp.MustCompile(`(?i)\banswer\s*:\s*"?([A-Za-z0-9_.\-]+)"?`),
}

func (textStrategy) Name() string { return "text_pattern" }

func (textStrategy) Attempt(page *schemas.RenderedPage) (schemas.Answer, bool, error) {
	for _, pattern := range textPatterns {
		if m := pattern.FindStringSubmatch(page.VisibleText); m != nil {
			return answerFromText(m[1]), true, nil
		}
	}
	return schemas.Answer{}, false, nil
}
