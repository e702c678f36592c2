// Package extract derives answers from rendered quiz pages. Heuristics are
// ordered strategy values sharing one interface; the first confident result
// wins.
package extract

import (
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// Strategy is one extraction heuristic. Attempt returns (answer, true) on a
// confident match, (zero, false) when the heuristic does not apply, and a
// non-nil error only for a hard parse failure of page resources.
type Strategy interface {
	Name() string
	Attempt(page *schemas.RenderedPage) (schemas.Answer, bool, error)
}

// Extractor applies strategies in fixed priority order:
// explicit answer marker, tabular aggregate, free-text patterns.
type Extractor struct {
	logger     *zap.Logger
	strategies []Strategy
}

var _ schemas.Extractor = (*Extractor)(nil)

// New builds the extractor with the default strategy chain.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{
		logger: logger.Named("extractor"),
		strategies: []Strategy{
			markerStrategy{},
			tabularStrategy{},
			textStrategy{},
		},
	}
}

// Extract runs the strategy chain over the page. It is pure with respect to
// its input: every byte it inspects is already embedded in the RenderedPage.
func (e *Extractor) Extract(page *schemas.RenderedPage) (schemas.Answer, error) {
	for _, strategy := range e.strategies {
		answer, ok, err := strategy.Attempt(page)
		if err != nil {
			if extErr, isExt := err.(*schemas.ExtractionError); isExt {
				return schemas.Answer{}, extErr
			}
			return schemas.Answer{}, &schemas.ExtractionError{Reason: "parse failure", Cause: err}
		}
		if ok {
			e.logger.Debug("Heuristic matched",
				zap.String("strategy", strategy.Name()),
				zap.String("url", page.FinalURL),
			)
			return answer, nil
		}
	}
	return schemas.Answer{}, &schemas.ExtractionError{Reason: "no heuristic matched"}
}
