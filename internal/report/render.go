package report

import (
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/dog-bite-report/internal/pipeline"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/olekukonko/tablewriter"
)

// maxBreedRows caps the breed table; the long tail of one-off free-text
// breeds is noise in a summary.
const maxBreedRows = 15

// PrintSummary writes the human-readable report tables: the per-stage record
// accounting followed by the main categorical breakdowns.
func PrintSummary(w io.Writer, sum pipeline.Summary, stats Stats) error {
	fmt.Fprintln(w, "Pipeline record accounting")
	if err := renderTable(w,
		[]string{"Stage", "Count"},
		[][]string{
			{"fetched", fmt.Sprintf("%d", sum.Fetched)},
			{"dropped: unparsable date", fmt.Sprintf("%d", sum.DateParseFailures)},
			{"normalized", fmt.Sprintf("%d", sum.Normalized)},
			{"dropped: no ZIP match", fmt.Sprintf("%d", sum.DroppedNoZipMatch)},
			{"dropped: outside NY", fmt.Sprintf("%d", sum.DroppedOutOfState)},
			{"dropped: outside the five boroughs", fmt.Sprintf("%d", sum.DroppedOutOfBorough)},
			{"age lookup misses (kept)", fmt.Sprintf("%d", sum.AgeLookupMisses)},
			{"final", fmt.Sprintf("%d", sum.Final)},
		},
	); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nIncidents by borough (total %d)\n", stats.Total)
	if err := renderLabelCounts(w, "Borough", stats.ByBorough); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nIncidents by year")
	if err := renderLabelCounts(w, "Year", stats.ByYear); err != nil {
		return err
	}

	breeds := stats.Breeds
	if len(breeds) > maxBreedRows {
		breeds = breeds[:maxBreedRows]
	}
	fmt.Fprintf(w, "\nTop breeds (normalized, %d distinct)\n", len(stats.Breeds))
	if err := renderLabelCounts(w, "Breed", breeds); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nIncidents by day of week")
	if err := renderLabelCounts(w, "Day", stats.ByDayOfWeek); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nIncidents by gender")
	if err := renderLabelCounts(w, "Gender", stats.ByGender); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSpayed/neutered: %d of %d (false includes unknown)\n", stats.SpayNeutered, stats.Total)
	if stats.AgeResolved > 0 {
		fmt.Fprintf(w, "Age resolved for %d of %d; mean age %.1f years\n", stats.AgeResolved, stats.Total, stats.MeanAgeYears)
	}
	return nil
}

func renderLabelCounts(w io.Writer, label string, rows []LabelCount) error {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Label, fmt.Sprintf("%d", r.Count)})
	}
	return renderTable(w, []string{label, "Count"}, data)
}

func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteTimeSeriesChart renders the monthly incident series as a standalone
// HTML line chart.
func WriteTimeSeriesChart(path string, stats Stats) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Dog bite incidents per month",
			Subtitle: "Five boroughs, geocodable records only",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	labels := make([]string, 0, len(stats.Monthly))
	values := make([]opts.LineData, 0, len(stats.Monthly))
	for _, m := range stats.Monthly {
		labels = append(labels, m.Label())
		values = append(values, opts.LineData{Value: m.Count})
	}
	line.SetXAxis(labels).AddSeries("incidents", values)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
