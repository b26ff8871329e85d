// Package export renders lead rows as CSV or JSON for admin downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

// BOM keeps Excel from misreading Hangul in UTF-8 CSVs.
const BOM = "\uFEFF"

// Header is the CSV column order.
var Header = []string{"site", "requested_at", "request_type", "name", "birth_or_rrn", "gender", "phone"}

// ErrHeaderMismatch is returned when a custom header does not have one label
// per exported column.
var ErrHeaderMismatch = errors.New("csv header must have one label per column")

// ExcelText wraps a value as a formula literal so spreadsheets keep leading zeros.
func ExcelText(s string) string {
	if s == "" {
		return ""
	}
	return `="` + s + `"`
}

// ToCSV writes the BOM, the header and one line per row, "\n" terminated.
// Fields containing a comma, quote or newline are quoted with doubled quotes.
// header relabels the columns of Header in the same order; nil means Header.
func ToCSV(rows []entity.ExportRow, header []string) (string, error) {
	if header == nil {
		header = Header
	}
	if len(header) != len(Header) {
		return "", fmt.Errorf("%w: got %d, want %d", ErrHeaderMismatch, len(header), len(Header))
	}

	var buf bytes.Buffer
	buf.WriteString(BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Site, r.RequestedAt, r.RequestType, r.Name, r.BirthOrRRN, r.Gender, ExcelText(r.Phone)}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row %d: %w", r.IssueNumber, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

type JSONResponse struct {
	OK    bool               `json:"ok"`
	Count int                `json:"count"`
	Items []entity.ExportRow `json:"items"`
}

func ToJSON(rows []entity.ExportRow) JSONResponse {
	if rows == nil {
		rows = []entity.ExportRow{}
	}
	return JSONResponse{OK: true, Count: len(rows), Items: rows}
}
