package sheet

import (
	"sort"
	"strings"
)

// RowError lists every violation found on one data row. Row is 1-based
// and counts data rows only (the header is not row 1).
type RowError struct {
	Row      int      `json:"row"`
	Sno      string   `json:"sno,omitempty"`
	Messages []string `json:"messages"`
}

// Report is the outcome of validating a table. At most one of the error
// groups decides the outcome; Accepted is only set when all of them are empty.
type Report[R any] struct {
	MissingHeaders []string   `json:"missing_headers,omitempty"`
	RowErrors      []RowError `json:"errors,omitempty"`
	Duplicates     []string   `json:"duplicates,omitempty"`
	Accepted       []R        `json:"accepted_rows,omitempty"`
}

func (r Report[R]) OK() bool {
	return len(r.MissingHeaders) == 0 && len(r.RowErrors) == 0 && len(r.Duplicates) == 0
}

// missingHeaders returns the required headers absent from header, in the
// order they are required.
func missingHeaders(header, required []string, foldCase bool) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[headerKey(h, foldCase)] = true
	}
	var missing []string
	for _, r := range required {
		if !have[headerKey(r, foldCase)] {
			missing = append(missing, r)
		}
	}
	return missing
}

func headerKey(h string, foldCase bool) string {
	h = strings.TrimSpace(h)
	if foldCase {
		h = strings.ToLower(h)
	}
	return h
}

// column finds the header actually used in the file for a required name.
func column(header []string, name string, foldCase bool) string {
	want := headerKey(name, foldCase)
	for _, h := range header {
		if headerKey(h, foldCase) == want {
			return h
		}
	}
	return name
}

// duplicateValues collects values of col that occur more than once,
// compared trimmed and case-insensitively. Blank cells are ignored.
func duplicateValues(rows []map[string]string, col string) []string {
	seen := map[string]int{}
	for _, row := range rows {
		v := strings.ToLower(strings.TrimSpace(row[col]))
		if v == "" {
			continue
		}
		seen[v]++
	}
	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}

func cell(row map[string]string, col string) string {
	return strings.TrimSpace(row[col])
}
