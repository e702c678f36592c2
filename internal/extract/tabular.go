package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

// tabularStrategy answers aggregate questions (sum, count, average) over a
// column of tabular data. Candidate tables are searched in document order:
// HTML tables first, then linked PDF and CSV resources. When several columns
// match the question, the last matching column in document order wins.
type tabularStrategy struct{}

func (tabularStrategy) Name() string { return "table_aggregate" }

func (tabularStrategy) Attempt(page *schemas.RenderedPage) (schemas.Answer, bool, error) {
	q, ok := parseQuestion(page.VisibleText)
	if !ok {
		return schemas.Answer{}, false, nil
	}

	tables := htmlTables(page.HTML)
	for _, res := range page.Resources {
		if res.Data == nil {
			// Download failures were already recorded on the resource; the
			// remaining heuristics may still answer the question.
			continue
		}
		switch res.Kind {
		case schemas.ResourcePDF:
			parsed, err := pdfTables(res.Data, q.page)
			if err != nil {
				return schemas.Answer{}, false, &schemas.ExtractionError{Reason: "parse failure", Cause: fmt.Errorf("pdf %s: %w", res.URL, err)}
			}
			tables = append(tables, parsed...)
		case schemas.ResourceCSV:
			tbl, err := csvTable(res.Data)
			if err != nil {
				return schemas.Answer{}, false, &schemas.ExtractionError{Reason: "parse failure", Cause: fmt.Errorf("csv %s: %w", res.URL, err)}
			}
			tables = append(tables, tbl)
		}
	}

	for _, tbl := range tables {
		col := tbl.lastMatchingColumn(q.column)
		if col < 0 {
			continue
		}
		if value, ok := tbl.aggregate(col, q.agg); ok {
			return schemas.NumberAnswer(value), true, nil
		}
	}

	return schemas.Answer{}, false, nil
}

// dataTable is the common row-record shape for HTML, PDF and CSV tables.
type dataTable struct {
	headers []string
	rows    [][]string
}

// lastMatchingColumn returns the index of the LAST header equal to name
// (case-insensitive), or -1.
func (t dataTable) lastMatchingColumn(name string) int {
	idx := -1
	for i, h := range t.headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			idx = i
		}
	}
	return idx
}

// aggregate computes the requested operation over the column. Sum and
// average need at least one numeric cell; count tallies non-blank cells.
func (t dataTable) aggregate(col int, agg aggregateKind) (float64, bool) {
	var sum float64
	numeric := 0
	nonBlank := 0

	for _, row := range t.rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell != "" {
			nonBlank++
		}
		if v, ok := cleanNumber(cell); ok {
			sum += v
			numeric++
		}
	}

	switch agg {
	case aggCount:
		return float64(nonBlank), true
	case aggAverage:
		if numeric == 0 {
			return 0, false
		}
		return sum / float64(numeric), true
	default:
		if numeric == 0 {
			return 0, false
		}
		return sum, true
	}
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// cleanNumber strips currency symbols, separators and units before parsing,
// mirroring the tolerant numeric coercion quizzes rely on.
func cleanNumber(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// htmlTables converts every <table> in the document into a dataTable. The
// first row supplies the headers.
func htmlTables(pageHTML string) []dataTable {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var tables []dataTable
	doc.Find("table").Each(func(_ int, tableSel *goquery.Selection) {
		var tbl dataTable
		tableSel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if tbl.headers == nil {
				tbl.headers = cells
			} else {
				tbl.rows = append(tbl.rows, cells)
			}
		})
		if len(tbl.headers) > 0 {
			tables = append(tables, tbl)
		}
	})
	return tables
}

// csvTable parses header-aware CSV bytes. Ragged rows are tolerated; an
// undecodable body is a parse failure.
func csvTable(data []byte) (dataTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return dataTable{}, err
	}
	if len(records) < 1 {
		return dataTable{}, fmt.Errorf("csv has no header row")
	}
	return dataTable{headers: records[0], rows: records[1:]}, nil
}

// pdfTables extracts row-records from a PDF, one table per page. The first
// text row of a page supplies the headers. pageHint selects a single 1-based
// page when the question names one.
func pdfTables(data []byte, pageHint int) (tables []dataTable, err error) {
	// The pdf library panics on some malformed files; surface those as
	// ordinary parse errors.
	defer func() {
		if r := recover(); r != nil {
			tables = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	first, last := 1, reader.NumPage()
	if pageHint > 0 {
		if pageHint > last {
			return nil, fmt.Errorf("pdf has %d pages, question names page %d", last, pageHint)
		}
		first, last = pageHint, pageHint
	}

	for n := first; n <= last; n++ {
		p := reader.Page(n)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, err
		}

		var tbl dataTable
		for _, row := range rows {
			cells := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				if s := strings.TrimSpace(text.S); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) == 0 {
				continue
			}
			if tbl.headers == nil {
				tbl.headers = cells
			} else {
				tbl.rows = append(tbl.rows, cells)
			}
		}
		if len(tbl.headers) > 0 {
			tables = append(tables, tbl)
		}
	}
	return tables, nil
}
