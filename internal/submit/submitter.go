// Package submit posts derived answers to quiz grading endpoints.
package submit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// payload is the grading request body. The url field names the quiz page
// the answer belongs to.
type payload struct {
	Email  string      `json:"email"`
	Secret string      `json:"secret"`
	URL    string      `json:"url"`
	Answer interface{} `json:"answer"`
}

// response tolerates both wire dialects seen from graders: correct/accepted
// for the verdict, url/next_url for the follow-up location.
type response struct {
	Correct  *bool  `json:"correct"`
	Accepted *bool  `json:"accepted"`
	URL      string `json:"url"`
	NextURL  string `json:"next_url"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// Submitter sends answers over a shared resty client.
type Submitter struct {
	client *resty.Client
	logger *zap.Logger
}

var _ schemas.Submitter = (*Submitter)(nil)

// New creates a Submitter.
func New(client *resty.Client, logger *zap.Logger) *Submitter {
	return &Submitter{
		client: client,
		logger: logger.Named("submitter"),
	}
}

// Submit posts the answer and parses the grading response. A non-2xx status
// or an undecodable body yields a SubmissionError; the caller never retries,
// since grading endpoints are assumed non-idempotent.
func (s *Submitter) Submit(ctx context.Context, endpoint string, creds schemas.Credentials, pageURL string, answer schemas.Answer) (*schemas.SubmissionOutcome, error) {
	body := payload{
		Email:  creds.Email,
		Secret: creds.Secret,
		URL:    pageURL,
		Answer: answer.Value(),
	}

	s.logger.Info("Submitting answer",
		zap.String("endpoint", endpoint),
		zap.String("page_url", pageURL),
		zap.String("answer_kind", string(answer.Kind)),
	)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("posting submission to %s: %w", endpoint, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &schemas.SubmissionError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var parsed response
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, &schemas.SubmissionError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	outcome := &schemas.SubmissionOutcome{
		Accepted: boolValue(parsed.Correct) || boolValue(parsed.Accepted),
		Message:  firstNonEmpty(parsed.Reason, parsed.Message),
		NextURL:  firstNonEmpty(parsed.URL, parsed.NextURL),
	}

	s.logger.Info("Submission graded",
		zap.Bool("accepted", outcome.Accepted),
		zap.String("next_url", outcome.NextURL),
	)
	return outcome, nil
}

func boolValue(b *bool) bool { return b != nil && *b }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
