package schemas

import "fmt"

// Failure reasons recorded on terminal job results.
const (
	ReasonCycleDetected    = "cycle detected"
	ReasonDeadlineExceeded = "deadline exceeded"
	ReasonStepBudget       = "step budget exhausted"
	ReasonFinalRejected    = "final answer rejected"
)

// NavigationError reports a failed page load. The controller retries the
// render exactly once before treating it as fatal.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error { return e.Cause }

// ExtractionError reports that no heuristic produced an answer, or that a
// linked resource could not be parsed. Fatal for the step.
type ExtractionError struct {
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// SubmissionError reports a non-success or undecodable grading response.
// Never retried: grading endpoints are assumed non-idempotent.
type SubmissionError struct {
	Status int
	Body   string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission rejected with status %d: %s", e.Status, e.Body)
}
