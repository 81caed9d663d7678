package refdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// AgeTable is the curated age-text lookup, keyed on the exact raw string.
// It implements domain.AgeLookup.
//
// The table is maintained by hand out of band. Its construction policy, for
// anyone regenerating it: numeric-only text is years; text with month/week
// qualifiers resolves in that unit, weeks converted to months; when a string
// mentions several magnitudes the largest value wins ("1 year 6 months" is
// years=1, not 18 months); year values beyond a plausible dog lifespan are
// reinterpreted as months. The pipeline never re-derives any of this; it
// only reads the finished asset.
type AgeTable struct {
	entries map[string]ageEntry
}

type ageEntry struct {
	months *float64
	years  *float64
}

// Lookup resolves raw age text by exact match. Any variant not byte-identical
// to a curated key misses; misses are absence, not errors.
func (t *AgeTable) Lookup(text string) (months, years *float64, ok bool) {
	e, ok := t.entries[text]
	if !ok {
		return nil, nil, false
	}
	return e.months, e.years, true
}

// Len reports the number of curated entries.
func (t *AgeTable) Len() int { return len(t.entries) }

// LoadAgeTable reads the curated spreadsheet. The first sheet must carry a
// header row over three columns: raw text, months, years. Either numeric
// cell may be blank; a row with both blank still counts as curated (it
// records that the text is unresolvable).
func LoadAgeTable(path string) (*AgeTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open age lookup: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("age lookup %s: no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read age lookup %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("age lookup %s: empty sheet", path)
	}

	table := &AgeTable{entries: make(map[string]ageEntry, len(rows)-1)}
	for i, row := range rows[1:] { // skip header
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		key := row[0]

		months, err := cellFloat(row, 1)
		if err != nil {
			return nil, fmt.Errorf("age lookup %s row %d: months: %w", path, i+2, err)
		}
		years, err := cellFloat(row, 2)
		if err != nil {
			return nil, fmt.Errorf("age lookup %s row %d: years: %w", path, i+2, err)
		}
		table.entries[key] = ageEntry{months: months, years: years}
	}
	return table, nil
}

// NewAgeTable builds a table from in-memory entries; used by tests and by
// callers that embed a fixture instead of shipping the spreadsheet.
func NewAgeTable(entries map[string][2]*float64) *AgeTable {
	t := &AgeTable{entries: make(map[string]ageEntry, len(entries))}
	for k, v := range entries {
		t.entries[k] = ageEntry{months: v[0], years: v[1]}
	}
	return t
}

func cellFloat(row []string, idx int) (*float64, error) {
	if idx >= len(row) {
		return nil, nil
	}
	s := strings.TrimSpace(row[idx])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return &v, nil
}
