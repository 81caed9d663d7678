// Package pipeline orchestrates the fetch-normalize-enrich run that produces
// the final incident collection. One call to Run performs the whole batch;
// the pipeline holds no state between runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/dog-bite-report/internal/domain"
	"github.com/couchcryptid/dog-bite-report/internal/observability"
)

// Fetcher retrieves the full raw record set from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.RawIncident, error)
}

// Summary counts per-stage outcomes for one run. Every dropped record and
// unresolved join is accounted for here so data loss is never silent.
type Summary struct {
	Fetched             int `json:"fetched"`
	DateParseFailures   int `json:"date_parse_failures"`
	Normalized          int `json:"normalized"`
	DroppedNoZipMatch   int `json:"dropped_no_zip_match"`
	DroppedOutOfState   int `json:"dropped_out_of_state"`
	DroppedOutOfBorough int `json:"dropped_out_of_borough"`
	AgeLookupMisses     int `json:"age_lookup_misses"`
	Final               int `json:"final"`
}

// Pipeline wires the fetcher and the static reference tables into a single
// batch run. Reference data is loaded once by the caller and read-only here.
type Pipeline struct {
	fetcher Fetcher
	zipRefs map[string]domain.ZipReference
	ages    domain.AgeLookup
	logger  *slog.Logger
	metrics *observability.Metrics

	mu          sync.Mutex
	ready       bool
	lastSummary Summary
}

// New creates a Pipeline with the given source, reference tables, and
// observability.
func New(f Fetcher, zipRefs map[string]domain.ZipReference, ages domain.AgeLookup, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher: f,
		zipRefs: zipRefs,
		ages:    ages,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has produced a final collection.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastSummary returns the per-stage accounting of the most recent completed
// run. ok is false while no run has finished.
func (p *Pipeline) LastSummary() (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSummary, p.ready
}

// Run executes one complete batch: fetch everything, normalize, enrich,
// filter. A fetch failure is fatal; record-level problems degrade only the
// affected record. The returned collection carries dense 1-based IDs in date
// order.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Incident, Summary, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var sum Summary

	raws, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, sum, fmt.Errorf("fetch stage: %w", err)
	}
	sum.Fetched = len(raws)
	p.metrics.RecordsFetched.Add(float64(len(raws)))
	p.logger.Info("fetch complete", "records", len(raws))

	normalized := p.normalize(raws, &sum)
	final := p.enrich(normalized, &sum)

	sum.Final = len(final)
	p.metrics.FinalRecords.Set(float64(len(final)))
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	p.mu.Lock()
	p.lastSummary = sum
	p.ready = true
	p.mu.Unlock()

	p.logger.Info("run complete",
		"fetched", sum.Fetched,
		"date_parse_failures", sum.DateParseFailures,
		"normalized", sum.Normalized,
		"dropped_no_zip_match", sum.DroppedNoZipMatch,
		"dropped_out_of_state", sum.DroppedOutOfState,
		"dropped_out_of_borough", sum.DroppedOutOfBorough,
		"age_lookup_misses", sum.AgeLookupMisses,
		"final", sum.Final,
		"duration", time.Since(start),
	)
	return final, sum, nil
}

// normalize parses raw records into Incidents, dropping (and counting)
// records whose bite date is unparsable, then stamps IDs over the stable
// date order. ID assignment needs the whole dataset, so this stage is not
// streaming.
func (p *Pipeline) normalize(raws []domain.RawIncident, sum *Summary) []domain.Incident {
	incidents := make([]domain.Incident, 0, len(raws))
	for _, raw := range raws {
		inc, err := domain.BuildIncident(raw)
		if err != nil {
			p.logger.Warn("dropping record with unparsable date",
				"uniqueid", raw.UniqueID,
				"dateofbite", raw.DateOfBite,
				"error", err,
			)
			sum.DateParseFailures++
			p.metrics.RecordsDropped.WithLabelValues(observability.DropReasonBadDate).Inc()
			continue
		}
		incidents = append(incidents, inc)
	}

	incidents = domain.AssignIDs(incidents)
	sum.Normalized = len(incidents)
	p.metrics.RecordsNormalized.Add(float64(len(incidents)))
	return incidents
}

// enrich joins each incident against the ZIP reference and age lookup,
// normalizes the breed text, and applies the strict geographic allow-list
// filter. IDs are re-stamped afterwards so the final collection is dense
// from 1. Cardinality is monotonically non-increasing through this stage.
func (p *Pipeline) enrich(incidents []domain.Incident, sum *Summary) []domain.Incident {
	kept := make([]domain.Incident, 0, len(incidents))

	for _, inc := range incidents {
		ref, ok := p.zipRefs[inc.ZipCode]
		if !ok {
			// Join-miss leaves the geographic fields null, and the filter's
			// null-latitude rule then excludes the record.
			sum.DroppedNoZipMatch++
			p.metrics.RecordsDropped.WithLabelValues(observability.DropReasonNoZipMatch).Inc()
			continue
		}
		if ref.State != "NY" {
			sum.DroppedOutOfState++
			p.metrics.RecordsDropped.WithLabelValues(observability.DropReasonOutOfState).Inc()
			continue
		}
		if _, ok := domain.BoroughCounties[ref.County]; !ok {
			sum.DroppedOutOfBorough++
			p.metrics.RecordsDropped.WithLabelValues(observability.DropReasonOutOfBorough).Inc()
			continue
		}
		inc.Geo = &ref

		inc.Breed = domain.NormalizeBreed(inc.BreedRaw)

		months, years, ok := p.ages.Lookup(inc.AgeRaw)
		if ok {
			inc.AgeMonths = months
			inc.AgeYears = years
		} else {
			// Unmatched text stays unresolved on purpose: the lookup is
			// byte-exact against a curated table.
			sum.AgeLookupMisses++
			p.metrics.AgeLookupMisses.Inc()
		}

		kept = append(kept, inc)
	}

	return domain.AssignIDs(kept)
}
