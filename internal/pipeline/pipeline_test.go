package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/couchcryptid/dog-bite-report/internal/adapter/refdata"
	"github.com/couchcryptid/dog-bite-report/internal/domain"
	"github.com/couchcryptid/dog-bite-report/internal/observability"
	"github.com/couchcryptid/dog-bite-report/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockFetcher struct {
	records []domain.RawIncident
	err     error
}

func (m *mockFetcher) Fetch(_ context.Context) ([]domain.RawIncident, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func testZipRefs() map[string]domain.ZipReference {
	return map[string]domain.ZipReference{
		"11221": {Zip: "11221", Lat: 40.69, Lng: -73.93, City: "Brooklyn", State: "NY", County: "Kings County"},
		"10001": {Zip: "10001", Lat: 40.75, Lng: -73.99, City: "New York", State: "NY", County: "New York County"},
		"07030": {Zip: "07030", Lat: 40.74, Lng: -74.03, City: "Hoboken", State: "NJ", County: "Hudson County"},
		"12831": {Zip: "12831", Lat: 43.05, Lng: -73.73, City: "Gansevoort", State: "NY", County: "Saratoga County"},
	}
}

func testAges() domain.AgeLookup {
	two, three := 2.0, 3.0
	return refdata.NewAgeTable(map[string][2]*float64{
		"2 years":  {nil, &two},
		"3 months": {&three, nil},
	})
}

func newPipeline(f pipeline.Fetcher) *pipeline.Pipeline {
	return pipeline.New(f, testZipRefs(), testAges(), slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fetcher := &mockFetcher{records: []domain.RawIncident{
		{UniqueID: "a", DateOfBite: "2018-03-01T00:00:00.000", Breed: "  Pit Bull Mix!!", Age: "2 years", Gender: "M", SpayNeuter: "true", Borough: "Brooklyn", ZipCode: "11221"},
		{UniqueID: "b", DateOfBite: "2018-01-15T00:00:00.000", Breed: "Chihuahua", Age: "3 months", Gender: "F", SpayNeuter: "false", Borough: "Manhattan", ZipCode: "10001"},
		{UniqueID: "c", DateOfBite: "2018-02-20T00:00:00.000", Breed: "UNKNOWN", Age: "old", Gender: "U", SpayNeuter: "false", Borough: "Brooklyn", ZipCode: "11221"},
	}}

	final, sum, err := newPipeline(fetcher).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, final, 3)

	t.Run("ids are dense and date-ordered", func(t *testing.T) {
		assert.Equal(t, 1, final[0].ID)
		assert.Equal(t, 2, final[1].ID)
		assert.Equal(t, 3, final[2].ID)
		assert.True(t, sort.SliceIsSorted(final, func(a, b int) bool {
			return final[a].Date.Before(final[b].Date)
		}))
		assert.Equal(t, "10001", final[0].ZipCode, "earliest bite is first")
	})

	t.Run("breed normalized", func(t *testing.T) {
		assert.Equal(t, "pit bull mix", final[2].Breed)
		assert.Equal(t, "  Pit Bull Mix!!", final[2].BreedRaw)
	})

	t.Run("zip join fills geography", func(t *testing.T) {
		require.NotNil(t, final[0].Geo)
		assert.Equal(t, "New York County", final[0].Geo.County)
		assert.Equal(t, "NY", final[0].Geo.State)
	})

	t.Run("age join", func(t *testing.T) {
		require.NotNil(t, final[2].AgeYears)
		assert.Equal(t, 2.0, *final[2].AgeYears)
		assert.Nil(t, final[2].AgeMonths)

		require.NotNil(t, final[0].AgeMonths)
		assert.Equal(t, 3.0, *final[0].AgeMonths)

		// "old" has no curated entry: both fields stay null, record kept.
		assert.Nil(t, final[1].AgeMonths)
		assert.Nil(t, final[1].AgeYears)
	})

	t.Run("summary", func(t *testing.T) {
		assert.Equal(t, pipeline.Summary{
			Fetched:         3,
			Normalized:      3,
			AgeLookupMisses: 1,
			Final:           3,
		}, sum)
	})
}

func TestPipeline_LastSummary(t *testing.T) {
	p := newPipeline(&mockFetcher{records: []domain.RawIncident{
		{UniqueID: "1", DateOfBite: "2020-06-02", ZipCode: "11221"},
	}})

	_, ok := p.LastSummary()
	assert.False(t, ok, "nothing published before the first run")

	_, sum, err := p.Run(context.Background())
	require.NoError(t, err)

	got, ok := p.LastSummary()
	require.True(t, ok)
	assert.Equal(t, sum, got)
}

func TestPipeline_Run_SyntheticFilter(t *testing.T) {
	// Three records dated out of order: one missing its ZIP, one resolving
	// outside NY. Exactly one survives and is re-stamped id=1.
	fetcher := &mockFetcher{records: []domain.RawIncident{
		{UniqueID: "1", DateOfBite: "2019-09-30T00:00:00.000", Breed: "Beagle", ZipCode: "11221"},
		{UniqueID: "2", DateOfBite: "2019-01-02T00:00:00.000", Breed: "Poodle", ZipCode: ""},
		{UniqueID: "3", DateOfBite: "2019-05-10T00:00:00.000", Breed: "Boxer", ZipCode: "07030"},
	}}

	final, sum, err := newPipeline(fetcher).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, 1, final[0].ID)
	assert.Equal(t, "beagle", final[0].Breed)
	assert.Equal(t, 1, sum.DroppedNoZipMatch)
	assert.Equal(t, 1, sum.DroppedOutOfState)
	assert.Equal(t, 1, sum.Final)
}

func TestPipeline_Run_OutOfBoroughDropped(t *testing.T) {
	// A NY ZIP outside the five borough counties is excluded, not corrected.
	fetcher := &mockFetcher{records: []domain.RawIncident{
		{UniqueID: "1", DateOfBite: "2020-06-01", ZipCode: "12831"},
		{UniqueID: "2", DateOfBite: "2020-06-02", ZipCode: "11221"},
	}}

	final, sum, err := newPipeline(fetcher).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "11221", final[0].ZipCode)
	assert.Equal(t, 1, sum.DroppedOutOfBorough)
}

func TestPipeline_Run_BadDateDropped(t *testing.T) {
	fetcher := &mockFetcher{records: []domain.RawIncident{
		{UniqueID: "1", DateOfBite: "sometime in june", ZipCode: "11221"},
		{UniqueID: "2", DateOfBite: "2020-06-02", ZipCode: "11221"},
	}}

	final, sum, err := newPipeline(fetcher).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, 1, sum.DateParseFailures)
	assert.Equal(t, 1, sum.Normalized)
	assert.Equal(t, 2, sum.Fetched)
}

func TestPipeline_Run_FetchFailureIsFatal(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("upstream down")}

	p := newPipeline(fetcher)
	_, _, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch stage")
	assert.Error(t, p.CheckReadiness(context.Background()))

	_, ok := p.LastSummary()
	assert.False(t, ok, "no accounting is published for a failed run")
}

func TestPipeline_Run_EmptyDataset(t *testing.T) {
	p := newPipeline(&mockFetcher{})

	final, sum, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, final)
	assert.Equal(t, pipeline.Summary{}, sum)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TiesKeepFetchOrder(t *testing.T) {
	fetcher := &mockFetcher{records: []domain.RawIncident{
		{UniqueID: "first", DateOfBite: "2020-06-02", Breed: "A", ZipCode: "11221"},
		{UniqueID: "second", DateOfBite: "2020-06-02", Breed: "B", ZipCode: "11221"},
	}}

	final, _, err := newPipeline(fetcher).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, final, 2)
	assert.Equal(t, "a", final[0].Breed)
	assert.Equal(t, "b", final[1].Breed)
}
