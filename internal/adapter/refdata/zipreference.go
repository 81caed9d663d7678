// Package refdata loads the static reference tables joined onto incidents:
// the per-ZIP demographic/geographic table and the curated age-text lookup.
// Both are read once at startup and immutable for the rest of the run.
package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/dog-bite-report/internal/domain"
)

// zipColumns are the header names required in the ZIP reference CSV.
// Columns are addressed by header, not position, so the file may carry extra
// columns in any order.
var zipColumns = []string{
	"zip", "lat", "lng", "city", "state", "county",
	"land_area_sqmi", "water_area_sqmi",
	"population", "housing_units", "median_household_income",
}

// LoadZipReferences reads the ZIP reference CSV into a map keyed by ZIP code.
// Rows with an unparsable centroid are skipped: a reference row without
// coordinates cannot satisfy the pipeline's post-filter latitude invariant.
func LoadZipReferences(path string) (map[string]domain.ZipReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip reference: %w", err)
	}
	defer f.Close()

	refs, err := readZipReferences(f)
	if err != nil {
		return nil, fmt.Errorf("read zip reference %s: %w", path, err)
	}
	return refs, nil
}

func readZipReferences(r io.Reader) (map[string]domain.ZipReference, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // header may be wider than the columns we use

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range zipColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	refs := make(map[string]domain.ZipReference)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		zip := field(row, "zip")
		if zip == "" {
			continue
		}

		lat, errLat := strconv.ParseFloat(field(row, "lat"), 64)
		lng, errLng := strconv.ParseFloat(field(row, "lng"), 64)
		if errLat != nil || errLng != nil {
			continue
		}

		refs[zip] = domain.ZipReference{
			Zip:                   zip,
			Lat:                   lat,
			Lng:                   lng,
			City:                  field(row, "city"),
			State:                 field(row, "state"),
			County:                field(row, "county"),
			LandAreaSqMi:          parseFloatOrZero(field(row, "land_area_sqmi")),
			WaterAreaSqMi:         parseFloatOrZero(field(row, "water_area_sqmi")),
			Population:            parseIntOrZero(field(row, "population")),
			HousingUnits:          parseIntOrZero(field(row, "housing_units")),
			MedianHouseholdIncome: parseIntOrZero(field(row, "median_household_income")),
		}
	}
	return refs, nil
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
