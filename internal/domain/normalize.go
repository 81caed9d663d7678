package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// biteDateLayouts are the date formats observed across Socrata exports of the
// dataset, tried in order.
var biteDateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 02 2006",
}

// ParseBiteDate parses a DateOfBite value under the known export layouts.
func ParseBiteDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("parse bite date: empty value")
	}
	for _, layout := range biteDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse bite date: unrecognized format %q", value)
}

// BuildIncident converts a raw record into an Incident. The ID is zero until
// stamped by AssignIDs, and enrichment fields (Geo, AgeMonths, AgeYears, the
// normalized breed) are filled later. Returns an error when the bite date is
// unparsable; the caller drops and counts such records rather than aborting.
func BuildIncident(raw RawIncident) (Incident, error) {
	date, err := ParseBiteDate(raw.DateOfBite)
	if err != nil {
		return Incident{}, err
	}

	inc := Incident{
		Date:        date,
		ZipCode:     strings.TrimSpace(raw.ZipCode),
		Borough:     strings.TrimSpace(raw.Borough),
		BreedRaw:    raw.Breed,
		Gender:      strings.ToUpper(strings.TrimSpace(raw.Gender)),
		AgeRaw:      strings.TrimSpace(raw.Age),
		SpayNeuter:  strings.EqualFold(strings.TrimSpace(raw.SpayNeuter), "true"),
		ProcessedAt: clock.Now(),
	}
	inc.deriveCalendarFields()
	return inc, nil
}

// deriveCalendarFields recomputes the year/month/day/day-of-week fields from
// Date. Called whenever Date is set so the derived fields can never drift.
func (i *Incident) deriveCalendarFields() {
	i.Year = i.Date.Year()
	i.Month = int(i.Date.Month())
	i.Day = i.Date.Day()
	i.DayOfWeek = i.Date.Weekday().String()
}

// AssignIDs stable-sorts incidents by date ascending (input order breaks
// ties) and stamps IDs as the 1-based position in that order. It returns a
// new slice and leaves the input untouched. This is a whole-dataset
// operation: an ID is only meaningful relative to the exact collection it
// was stamped on, so callers re-run it after any filtering.
func AssignIDs(incidents []Incident) []Incident {
	out := make([]Incident, len(incidents))
	copy(out, incidents)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// NormalizeBreed applies the breed normalization policy: lower-case, trim,
// collapse interior whitespace to single spaces, then strip trailing
// non-letter characters. The trailing strip runs last so the true trailing
// token is identified after spacing is fixed. Idempotent.
func NormalizeBreed(breed string) string {
	s := strings.ToLower(breed)
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
