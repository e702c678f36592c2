package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// aggregateKind is the numeric operation a question asks for.
type aggregateKind int

const (
	aggSum aggregateKind = iota
	aggCount
	aggAverage
)

var (
	columnPattern = regexp.MustCompile(`(?i)(?:sum|total|count|average|mean)\s+of\s+(?:the\s+)?"?([A-Za-z0-9_]+)"?`)
	pagePattern   = regexp.MustCompile(`(?i)\bon\s+page\s+(\d+)`)
)

// question is the tabular intent parsed out of the page's visible text.
type question struct {
	agg    aggregateKind
	column string
	// page is a 1-based PDF page hint, 0 when absent.
	page int
}

// parseQuestion detects a tabular aggregate request in the question text.
// The column defaults to "value" when the phrasing names none, matching the
// most common quiz wording.
func parseQuestion(text string) (question, bool) {
	lower := strings.ToLower(text)
	q := question{agg: aggSum, column: "value"}

	matched := false
	switch {
	case strings.Contains(lower, "average") || strings.Contains(lower, "mean"):
		q.agg = aggAverage
		matched = true
	case strings.Contains(lower, "how many"):
		q.agg = aggCount
		matched = true
	case strings.Contains(lower, "count"):
		q.agg = aggCount
		matched = true
	case strings.Contains(lower, "sum") || strings.Contains(lower, "total"):
		matched = true
	}

	if m := columnPattern.FindStringSubmatch(text); m != nil {
		q.column = strings.ToLower(m[1])
		matched = true
	}
	if m := pagePattern.FindStringSubmatch(text); m != nil {
		q.page, _ = strconv.Atoi(m[1])
	}

	return q, matched
}
