package schemas

import (
	"encoding/json"
	"time"
)

// -- Core Job Models --
// These types flow between the gateway, the controller, and the trace store.

// Credentials identify the quiz participant on every submission.
type Credentials struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// QuizJob is the unit of work handed to the controller. It is created once
// per inbound request and owned exclusively by one controller invocation.
type QuizJob struct {
	ID          string      `json:"id"`
	Credentials Credentials `json:"-"`
	StartURL    string      `json:"start_url"`
	Deadline    time.Time   `json:"deadline"`
}

// JobStatus is the terminal (or in-flight) state of a quiz job.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusSucceeded JobStatus = "SUCCEEDED"
	StatusFailed    JobStatus = "FAILED"
	StatusTimedOut  JobStatus = "TIMED_OUT"
)

// StepResult records one render -> extract -> submit cycle. Entries are
// appended to the trace and never mutated afterwards.
type StepResult struct {
	URL       string             `json:"url"`
	Answer    *Answer            `json:"answer,omitempty"`
	Outcome   *SubmissionOutcome `json:"outcome,omitempty"`
	Error     string             `json:"error,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
}

// JobResult is the controller's terminal value: a status, a human-readable
// reason, and the full append-only step trace.
type JobResult struct {
	Status JobStatus    `json:"status"`
	Reason string       `json:"reason,omitempty"`
	Trace  []StepResult `json:"trace"`
}

// -- Rendered Page Models --

// ResourceKind classifies a binary resource linked from a quiz page.
type ResourceKind string

const (
	ResourcePDF ResourceKind = "pdf"
	ResourceCSV ResourceKind = "csv"
)

// Resource is a linked binary downloaded into memory during a render.
// Data is nil when the fetch failed; FetchError carries the cause.
type Resource struct {
	URL        string
	Kind       ResourceKind
	Data       []byte
	FetchError string
}

// RenderedPage is the renderer's snapshot of a fully loaded quiz page.
// It is transient: produced per navigation, consumed by the extractor
// within the same step, then discarded.
type RenderedPage struct {
	FinalURL    string
	HTML        string
	VisibleText string

	// SubmitURL is the submission endpoint discovered in the page content,
	// empty when no heuristic located one.
	SubmitURL string

	// JSONBlob is the first <pre> block that decoded as JSON (directly or
	// after base64), nil when absent.
	JSONBlob map[string]interface{}

	Resources []Resource
	HasTables bool
}

// -- Answer Model --

// AnswerKind tags the variant held by an Answer.
type AnswerKind string

const (
	AnswerNumber AnswerKind = "number"
	AnswerText   AnswerKind = "text"
	AnswerRecord AnswerKind = "record"
)

// Answer is the extractor's output: exactly one of the three variants is
// populated, selected by Kind.
type Answer struct {
	Kind   AnswerKind
	Number float64
	Text   string
	Record map[string]interface{}
}

// NumberAnswer wraps a numeric value.
func NumberAnswer(v float64) Answer { return Answer{Kind: AnswerNumber, Number: v} }

// TextAnswer wraps a string value.
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// RecordAnswer wraps a structured value.
func RecordAnswer(m map[string]interface{}) Answer { return Answer{Kind: AnswerRecord, Record: m} }

// Value returns the underlying value for the submission payload. Integral
// numbers come back as int64 so they serialize without a fractional part.
func (a Answer) Value() interface{} {
	switch a.Kind {
	case AnswerNumber:
		if a.Number == float64(int64(a.Number)) {
			return int64(a.Number)
		}
		return a.Number
	case AnswerRecord:
		return a.Record
	default:
		return a.Text
	}
}

// MarshalJSON emits the bare value, not the tagged struct, so an Answer can
// be embedded directly in wire payloads and trace output.
func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value())
}

// -- Submission Models --

// SubmissionOutcome is the parsed response of the quiz grading endpoint.
// An empty NextURL signals quiz completion regardless of Accepted.
type SubmissionOutcome struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
	NextURL  string `json:"next_url,omitempty"`
}
