// Package report computes descriptive statistics over the final incident
// collection and renders them as terminal tables, a time-series chart, and
// choropleth maps. It only consumes pipeline output; nothing feeds back.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/couchcryptid/dog-bite-report/internal/domain"
)

// LabelCount is one row of a categorical breakdown, sorted by count
// descending unless noted otherwise.
type LabelCount struct {
	Label string
	Count int
}

// MonthCount is one month of the incident time series.
type MonthCount struct {
	Year  int
	Month int
	Count int
}

// Label renders the month as "2018-01".
func (m MonthCount) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Stats is the aggregate view the rendered report is built from.
type Stats struct {
	Total int

	Monthly     []MonthCount // chronological, gaps filled with zero months
	ByYear      []LabelCount // chronological
	ByBorough   []LabelCount // borough display names, count descending
	Breeds      []LabelCount // normalized breeds, count descending, blanks excluded
	ByGender    []LabelCount
	ByDayOfWeek []LabelCount // Sunday..Saturday order

	ByZip map[string]int

	SpayNeutered int
	AgeResolved  int
	MeanAgeYears float64 // over age-resolved incidents only
}

// Build computes all aggregates in one pass over the final collection.
func Build(incidents []domain.Incident) Stats {
	stats := Stats{
		Total: len(incidents),
		ByZip: make(map[string]int),
	}

	monthly := make(map[[2]int]int)
	yearly := make(map[int]int)
	boroughs := make(map[string]int)
	breeds := make(map[string]int)
	genders := make(map[string]int)
	weekdays := make(map[string]int)

	var ageSum float64
	minYear, maxYear := 0, 0

	for _, inc := range incidents {
		monthly[[2]int{inc.Year, inc.Month}]++
		yearly[inc.Year]++
		if minYear == 0 || inc.Year < minYear {
			minYear = inc.Year
		}
		if inc.Year > maxYear {
			maxYear = inc.Year
		}

		if inc.Geo != nil {
			if name, ok := domain.BoroughCounties[inc.Geo.County]; ok {
				boroughs[name]++
			}
		}
		if inc.Breed != "" {
			breeds[inc.Breed]++
		}
		gender := inc.Gender
		if gender == "" {
			gender = "U"
		}
		genders[gender]++
		weekdays[inc.DayOfWeek]++
		if inc.ZipCode != "" {
			stats.ByZip[inc.ZipCode]++
		}
		if inc.SpayNeuter {
			stats.SpayNeutered++
		}

		if years, ok := ageInYears(inc); ok {
			stats.AgeResolved++
			ageSum += years
		}
	}

	if stats.AgeResolved > 0 {
		stats.MeanAgeYears = ageSum / float64(stats.AgeResolved)
	}

	// Chronological series from the first to the last observed month, with
	// interior gaps zero-filled so plots don't skip empty months.
	if len(monthly) > 0 {
		first, last := monthlyRange(monthly)
		for ym := first; ym[0] < last[0] || (ym[0] == last[0] && ym[1] <= last[1]); {
			stats.Monthly = append(stats.Monthly, MonthCount{Year: ym[0], Month: ym[1], Count: monthly[ym]})
			ym[1]++
			if ym[1] > 12 {
				ym[0]++
				ym[1] = 1
			}
		}
	}

	for y := minYear; y != 0 && y <= maxYear; y++ {
		stats.ByYear = append(stats.ByYear, LabelCount{Label: fmt.Sprintf("%d", y), Count: yearly[y]})
	}

	stats.ByBorough = sortedByCount(boroughs)
	stats.Breeds = sortedByCount(breeds)
	stats.ByGender = sortedByCount(genders)

	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if c, ok := weekdays[name]; ok {
			stats.ByDayOfWeek = append(stats.ByDayOfWeek, LabelCount{Label: name, Count: c})
		}
	}

	return stats
}

// ageInYears converts whichever resolved age field is present to years.
func ageInYears(inc domain.Incident) (float64, bool) {
	switch {
	case inc.AgeYears != nil:
		return *inc.AgeYears, true
	case inc.AgeMonths != nil:
		return *inc.AgeMonths / 12, true
	default:
		return 0, false
	}
}

// monthlyRange finds the earliest and latest populated (year, month) keys.
func monthlyRange(monthly map[[2]int]int) (first, last [2]int) {
	for key := range monthly {
		if first == [2]int{} || key[0] < first[0] || (key[0] == first[0] && key[1] < first[1]) {
			first = key
		}
		if key[0] > last[0] || (key[0] == last[0] && key[1] > last[1]) {
			last = key
		}
	}
	return first, last
}

// sortedByCount flattens a counter map, count descending, label ascending on
// ties for deterministic output.
func sortedByCount(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for label, count := range m {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Label < out[b].Label
	})
	return out
}
