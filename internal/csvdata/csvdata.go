// Package csvdata parses uploaded recipient CSVs into a header row plus
// flat string-keyed data rows.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"certstudio/internal/models"
)

// MaxRows caps the number of recipient rows accepted in one upload.
const MaxRows = 10_000

// Table is the parsed form of an uploaded CSV.
type Table struct {
	Headers []string
	Rows    []models.RecipientRow
}

// Parse reads a CSV stream into a Table. The first record is the header
// row; blank lines are skipped; short rows are padded with empty values
// (the csv package already rejects long rows).
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows, we pad below
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}
	if len(headers) == 0 || (len(headers) == 1 && headers[0] == "") {
		return nil, fmt.Errorf("csv: missing header row")
	}

	t := &Table{Headers: headers}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(t.Rows)+2, err)
		}
		if isBlank(record) {
			continue
		}
		if len(t.Rows) >= MaxRows {
			return nil, fmt.Errorf("csv: too many rows (max %d)", MaxRows)
		}

		row := make(models.RecipientRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("csv: no data rows")
	}
	return t, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
