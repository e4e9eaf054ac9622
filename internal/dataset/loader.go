// Package dataset loads transcript batches from xlsx workbooks, detecting
// columns by header heuristics so exports from different tools load without
// configuration.
package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record is one transcript row from the workbook.
type Record struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Load reads the first sheet and auto-detects id/title/transcript columns.
func Load(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	textIdx := -1
	idIdx := -1
	titleIdx := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case textIdx == -1 && (strings.Contains(l, "transcript") || strings.Contains(l, "text") || strings.Contains(l, "content")):
			textIdx = i
		case idIdx == -1 && (l == "id" || strings.Contains(l, "transcript id") || strings.Contains(l, "call id")):
			idIdx = i
		case titleIdx == -1 && (strings.Contains(l, "title") || strings.Contains(l, "name") || strings.Contains(l, "meeting")):
			titleIdx = i
		}
	}
	if textIdx == -1 {
		// fallback: last column tends to hold the transcript in exports
		textIdx = len(header) - 1
	}

	var out []Record
	for i, r := range rows {
		if i == 0 {
			continue
		}
		rec := Record{}
		if idIdx >= 0 && idIdx < len(r) {
			rec.ID = strings.TrimSpace(r[idIdx])
		}
		if titleIdx >= 0 && titleIdx < len(r) {
			rec.Title = strings.TrimSpace(r[titleIdx])
		}
		if textIdx >= 0 && textIdx < len(r) {
			rec.Text = strings.TrimSpace(r[textIdx])
		}
		// rows without transcript text are skipped quietly
		if rec.Text == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
