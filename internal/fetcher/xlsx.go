// Package fetcher loads deal, quota and rep-directory records from revenue-ops
// workbooks exported by CRM admins.
package fetcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// sheetRows reads a named sheet and returns its rows as string slices.
// Sheet lookup is case-insensitive; the header row is included.
func sheetRows(f *xlsx.File, name string) ([][]string, error) {
	var sheet *xlsx.Sheet
	for n, s := range f.Sheet {
		if strings.EqualFold(n, name) {
			sheet = s
			break
		}
	}
	if sheet == nil {
		return nil, eris.Errorf("fetcher: sheet %q not found", name)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// columnIndex maps normalized header names to column positions, so admins can
// reorder or re-label columns ("Deal ID" vs "deal_id") without breaking import.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cellAt(row []string, idx map[string]int, keys ...string) string {
	for _, k := range keys {
		if i, ok := idx[k]; ok && i < len(row) {
			return row[i]
		}
	}
	return ""
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: parse number %q", s)
	}
	return v, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "", "true", "yes", "y", "1", "active":
		return true
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01-02-06",
	"1/2/06 15:04",
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, eris.New("fetcher: empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Excel serial date (days since 1899-12-30).
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.Add(time.Duration(serial * 24 * float64(time.Hour))), nil
	}
	return time.Time{}, eris.Errorf("fetcher: unparseable date %q", s)
}
