package refdata

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const zipCSV = `zip,type,city,state,county,lat,lng,land_area_sqmi,water_area_sqmi,population,housing_units,median_household_income
11221,STANDARD,Brooklyn,NY,Kings County,40.69,-73.93,1.31,0.0,81312,32543,51425
10001,STANDARD,New York,NY,New York County,40.75,-73.99,0.62,0.01,21102,12028,85066
07030,STANDARD,Hoboken,NJ,Hudson County,40.74,-74.03,1.28,0.15,53193,26855,147620
99999,STANDARD,Nowhere,NY,Kings County,,,0,0,0,0,0
`

func TestReadZipReferences(t *testing.T) {
	t.Run("parses rows keyed by zip", func(t *testing.T) {
		refs, err := readZipReferences(strings.NewReader(zipCSV))

		require.NoError(t, err)
		require.Len(t, refs, 3, "row without coordinates is skipped")

		bk := refs["11221"]
		assert.Equal(t, "Brooklyn", bk.City)
		assert.Equal(t, "NY", bk.State)
		assert.Equal(t, "Kings County", bk.County)
		assert.Equal(t, 40.69, bk.Lat)
		assert.Equal(t, -73.93, bk.Lng)
		assert.Equal(t, 1.31, bk.LandAreaSqMi)
		assert.Equal(t, 81312, bk.Population)
		assert.Equal(t, 32543, bk.HousingUnits)
		assert.Equal(t, 51425, bk.MedianHouseholdIncome)

		nj := refs["07030"]
		assert.Equal(t, "NJ", nj.State, "out-of-state rows load; filtering happens downstream")
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := readZipReferences(strings.NewReader("zip,lat,lng\n11221,40.69,-73.93\n"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column")
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := readZipReferences(strings.NewReader(""))
		require.Error(t, err)
	})
}

func TestLoadZipReferences_MissingFile(t *testing.T) {
	_, err := LoadZipReferences(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

// writeAgeFixture builds a minimal curated spreadsheet on disk. The numeric
// values encode the curation policy's outcomes; the loader must take them
// as-is.
func writeAgeFixture(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Age", "AgeInMonths", "AgeInYears"},
		{"2 years", nil, 2},
		{"3 months", 3, nil},
		{"1 year 6 months", nil, 1}, // largest value wins, not 18 months
		{"10 weeks", 2.5, nil},
		{"20", nil, nil}, // curated as unresolvable: 20 years is implausible, intent unclear
	}
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "dog_ages.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadAgeTable(t *testing.T) {
	path := writeAgeFixture(t)

	table, err := LoadAgeTable(path)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	t.Run("years only", func(t *testing.T) {
		months, years, ok := table.Lookup("2 years")
		require.True(t, ok)
		assert.Nil(t, months)
		require.NotNil(t, years)
		assert.Equal(t, 2.0, *years)
	})

	t.Run("months only", func(t *testing.T) {
		months, years, ok := table.Lookup("3 months")
		require.True(t, ok)
		require.NotNil(t, months)
		assert.Equal(t, 3.0, *months)
		assert.Nil(t, years)
	})

	t.Run("largest value wins entry preserved", func(t *testing.T) {
		months, years, ok := table.Lookup("1 year 6 months")
		require.True(t, ok)
		assert.Nil(t, months, "must not be combined into 18 months")
		require.NotNil(t, years)
		assert.Equal(t, 1.0, *years)
	})

	t.Run("weeks converted to fractional months upstream", func(t *testing.T) {
		months, _, ok := table.Lookup("10 weeks")
		require.True(t, ok)
		require.NotNil(t, months)
		assert.Equal(t, 2.5, *months)
	})

	t.Run("curated-unresolvable row", func(t *testing.T) {
		months, years, ok := table.Lookup("20")
		require.True(t, ok)
		assert.Nil(t, months)
		assert.Nil(t, years)
	})

	t.Run("exact match only", func(t *testing.T) {
		_, _, ok := table.Lookup("2 Years")
		assert.False(t, ok, "lookup is byte-exact; case variants miss")

		_, _, ok = table.Lookup("2 years ")
		assert.False(t, ok)
	})
}

func TestLoadAgeTable_MissingFile(t *testing.T) {
	_, err := LoadAgeTable(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}

func TestNewAgeTable(t *testing.T) {
	two := 2.0
	table := NewAgeTable(map[string][2]*float64{
		"2 years": {nil, &two},
	})

	_, years, ok := table.Lookup("2 years")
	require.True(t, ok)
	assert.Equal(t, 2.0, *years)
	assert.Equal(t, 1, table.Len())
}
