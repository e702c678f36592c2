package schemas

import "context"

// Renderer navigates to a URL inside a headless browser context and returns
// the fully rendered page, including any linked PDF/CSV resources fetched
// into memory.
type Renderer interface {
	Render(ctx context.Context, url string) (*RenderedPage, error)
}

// Extractor derives an answer from a rendered page by trying an ordered set
// of heuristics. It is pure with respect to its input: no network, no
// filesystem.
type Extractor interface {
	Extract(page *RenderedPage) (Answer, error)
}

// Submitter posts an answer to the quiz's declared submission endpoint and
// parses the grading response.
type Submitter interface {
	Submit(ctx context.Context, endpoint string, creds Credentials, pageURL string, answer Answer) (*SubmissionOutcome, error)
}
