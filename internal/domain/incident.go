package domain

import "time"

// RawIncident represents one record as returned by the Socrata export API.
// Every field is a string on the wire; fields not listed here are ignored.
// The Species column is present upstream but constant ("DOG") across the
// whole table, so it is dropped as uninformative.
type RawIncident struct {
	UniqueID   string `json:"uniqueid"`
	DateOfBite string `json:"dateofbite"`
	Breed      string `json:"breed"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	SpayNeuter string `json:"spayneuter"`
	Borough    string `json:"borough"`
	ZipCode    string `json:"zipcode"`
}

// ZipReference holds the static per-ZIP demographic and geographic attributes
// joined onto incidents. Immutable within a run.
type ZipReference struct {
	Zip                   string  `json:"zip"`
	Lat                   float64 `json:"lat"`
	Lng                   float64 `json:"lng"`
	City                  string  `json:"city"`
	State                 string  `json:"state"`
	County                string  `json:"county"`
	LandAreaSqMi          float64 `json:"land_area_sqmi"`
	WaterAreaSqMi         float64 `json:"water_area_sqmi"`
	Population            int     `json:"population"`
	HousingUnits          int     `json:"housing_units"`
	MedianHouseholdIncome int     `json:"median_household_income"`
}

// Incident is one dog-bite report after normalization and enrichment.
// Pointer fields are absent (not zero) when the corresponding join missed.
type Incident struct {
	ID   int       `json:"id"`
	Date time.Time `json:"date"`

	// Calendar fields derived from Date, never stored independently of it.
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	DayOfWeek string `json:"day_of_week"`

	ZipCode string `json:"zip_code,omitempty"`
	Borough string `json:"borough,omitempty"` // as reported by the source, not the county-derived value

	BreedRaw string `json:"breed_raw,omitempty"`
	Breed    string `json:"breed,omitempty"` // normalized form, see NormalizeBreed

	Gender string `json:"gender,omitempty"`

	AgeRaw    string   `json:"age_raw,omitempty"`
	AgeMonths *float64 `json:"age_months,omitempty"`
	AgeYears  *float64 `json:"age_years,omitempty"`

	// SpayNeuter is false for both "confirmed intact" and "unknown";
	// the source does not distinguish them.
	SpayNeuter bool `json:"spay_neuter"`

	// Geo is the joined ZIP reference row, nil when the ZIP join missed.
	Geo *ZipReference `json:"geo,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// AgeLookup resolves raw age text to numeric months/years by exact match.
// A miss returns (nil, nil, false) and is not an error.
type AgeLookup interface {
	Lookup(text string) (months, years *float64, ok bool)
}

// BoroughCounties is the allow-list of county names that define the five
// boroughs. The geographic filter is an exact match against these, keyed on
// the ZIP reference's county column.
var BoroughCounties = map[string]string{
	"New York County": "Manhattan",
	"Kings County":    "Brooklyn",
	"Queens County":   "Queens",
	"Bronx County":    "Bronx",
	"Richmond County": "Staten Island",
}
