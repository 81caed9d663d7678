// Package config holds the run configuration. The endpoint, page-size
// override, and reference file paths are all explicit settings, supplied via
// flags or DOGBITE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the public dataset and its reference assets.
const (
	DefaultEndpoint = "https://data.cityofnewyork.us/resource/rsgh-akpg.json"

	// DefaultRecordLimit must stay comfortably above the table size; the
	// API's built-in page size (1000) silently truncates the dataset.
	DefaultRecordLimit = 100000

	DefaultFetchTimeout  = 60 * time.Second
	DefaultFetchMaxTries = 4
)

// Config holds all settings for one report run.
type Config struct {
	Endpoint      string
	RecordLimit   int
	FetchTimeout  time.Duration
	FetchMaxTries uint

	ZipReferencePath string
	AgeLookupPath    string

	BoroughShapefilePath string
	BoroughKeyField      string
	ZctaShapefilePath    string
	ZctaKeyField         string

	OutputDir string

	LogLevel  string
	LogFormat string

	// MetricsAddr enables the /metrics listener while the job runs; empty
	// disables it.
	MetricsAddr string
}

// FromViper reads and validates the configuration bound by the CLI layer.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Endpoint:      v.GetString("endpoint"),
		RecordLimit:   v.GetInt("record-limit"),
		FetchTimeout:  v.GetDuration("fetch-timeout"),
		FetchMaxTries: v.GetUint("fetch-max-tries"),

		ZipReferencePath: v.GetString("zip-reference"),
		AgeLookupPath:    v.GetString("age-lookup"),

		BoroughShapefilePath: v.GetString("borough-shapefile"),
		BoroughKeyField:      v.GetString("borough-key-field"),
		ZctaShapefilePath:    v.GetString("zcta-shapefile"),
		ZctaKeyField:         v.GetString("zcta-key-field"),

		OutputDir: v.GetString("out-dir"),

		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),

		MetricsAddr: v.GetString("metrics-addr"),
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.RecordLimit <= 0 {
		return nil, errors.New("record-limit must be a positive explicit override")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("fetch-timeout must be positive")
	}
	if cfg.FetchMaxTries == 0 {
		return nil, errors.New("fetch-max-tries must be at least 1")
	}
	if cfg.ZipReferencePath == "" {
		return nil, errors.New("zip-reference path is required")
	}
	if cfg.AgeLookupPath == "" {
		return nil, errors.New("age-lookup path is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("out-dir is required")
	}
	if cfg.BoroughShapefilePath != "" && cfg.BoroughKeyField == "" {
		return nil, fmt.Errorf("borough-key-field is required with borough-shapefile")
	}
	if cfg.ZctaShapefilePath != "" && cfg.ZctaKeyField == "" {
		return nil, fmt.Errorf("zcta-key-field is required with zcta-shapefile")
	}

	return cfg, nil
}
