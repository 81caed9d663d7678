package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/dog-bite-report/internal/adapter/http"
	"github.com/couchcryptid/dog-bite-report/internal/adapter/refdata"
	"github.com/couchcryptid/dog-bite-report/internal/adapter/shapefile"
	"github.com/couchcryptid/dog-bite-report/internal/adapter/socrata"
	"github.com/couchcryptid/dog-bite-report/internal/config"
	"github.com/couchcryptid/dog-bite-report/internal/domain"
	"github.com/couchcryptid/dog-bite-report/internal/observability"
	"github.com/couchcryptid/dog-bite-report/internal/pipeline"
	"github.com/couchcryptid/dog-bite-report/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

// run executes one complete report build: load reference data, run the
// pipeline, and write every artifact to the output directory.
func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	zipRefs, err := refdata.LoadZipReferences(cfg.ZipReferencePath)
	if err != nil {
		return fmt.Errorf("load zip reference: %w", err)
	}
	ages, err := refdata.LoadAgeTable(cfg.AgeLookupPath)
	if err != nil {
		return fmt.Errorf("load age lookup: %w", err)
	}
	logger.Info("reference data loaded", "zip_codes", len(zipRefs), "age_entries", ages.Len())

	client := socrata.NewClient(cfg.Endpoint, cfg.RecordLimit, cfg.FetchTimeout, cfg.FetchMaxTries, logger)
	client.OnRetry = metrics.FetchRetries.Inc

	p := pipeline.New(client, zipRefs, ages, logger, metrics)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener error", "error", err)
			}
		}()
	}

	incidents, sum, runErr := p.Run(ctx)
	if runErr == nil {
		runErr = writeArtifacts(cfg, logger, incidents, sum)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener shutdown error", "error", err)
		}
	}
	return runErr
}

// writeArtifacts renders the terminal summary and writes the JSON dataset,
// the monthly chart, and any configured choropleths under the output dir.
func writeArtifacts(cfg *config.Config, logger *slog.Logger, incidents []domain.Incident, sum pipeline.Summary) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	stats := report.Build(incidents)
	if err := report.PrintSummary(os.Stdout, sum, stats); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}

	jsonPath := filepath.Join(cfg.OutputDir, "incidents.json")
	if err := writeIncidentsJSON(jsonPath, incidents); err != nil {
		return err
	}
	logger.Info("wrote incident dataset", "path", jsonPath, "records", len(incidents))

	chartPath := filepath.Join(cfg.OutputDir, "incidents_per_month.html")
	if err := report.WriteTimeSeriesChart(chartPath, stats); err != nil {
		return fmt.Errorf("write time series chart: %w", err)
	}
	logger.Info("wrote monthly chart", "path", chartPath)

	if cfg.ZctaShapefilePath != "" {
		if err := writeChoropleth(cfg.ZctaShapefilePath, cfg.ZctaKeyField,
			filepath.Join(cfg.OutputDir, "bites_by_zip.svg"),
			"Dog bite incidents by ZIP", stats.ByZip, logger); err != nil {
			return err
		}
	}
	if cfg.BoroughShapefilePath != "" {
		boroughCounts := make(map[string]int, len(stats.ByBorough))
		for _, row := range stats.ByBorough {
			boroughCounts[row.Label] = row.Count
		}
		if err := writeChoropleth(cfg.BoroughShapefilePath, cfg.BoroughKeyField,
			filepath.Join(cfg.OutputDir, "bites_by_borough.svg"),
			"Dog bite incidents by borough", boroughCounts, logger); err != nil {
			return err
		}
	}
	return nil
}

func writeChoropleth(shpPath, keyField, outPath, title string, counts map[string]int, logger *slog.Logger) error {
	set, err := shapefile.Load(shpPath, keyField)
	if err != nil {
		return fmt.Errorf("load boundaries %s: %w", shpPath, err)
	}
	unmatched, err := report.WriteChoropleth(outPath, title, set, counts)
	if err != nil {
		return fmt.Errorf("write choropleth %s: %w", outPath, err)
	}
	if len(unmatched) > 0 {
		logger.Warn("counts without boundary geometry", "path", outPath, "keys", len(unmatched))
	}
	logger.Info("wrote choropleth", "path", outPath, "boundaries", len(set.Boundaries))
	return nil
}

func writeIncidentsJSON(path string, incidents []domain.Incident) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create incident file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(incidents); err != nil {
		return fmt.Errorf("encode incidents: %w", err)
	}
	return nil
}
