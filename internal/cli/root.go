// Package cli defines the command-line interface for the dog-bite report job.
package cli

import (
	"strings"

	"github.com/couchcryptid/dog-bite-report/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dogbite",
	Short: "Build the NYC dog-bite incident report from the open-data API.",
	Long: `Fetches the DOHMH dog-bite dataset, normalizes and enriches it against
local reference data, and writes summary tables, a monthly chart, and
choropleth maps to the output directory.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().String("endpoint", config.DefaultEndpoint, "Socrata export endpoint URL")
	rootCmd.Flags().Int("record-limit", config.DefaultRecordLimit, "Explicit $limit override; must exceed the dataset size")
	rootCmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout, "HTTP timeout for the export request")
	rootCmd.Flags().Uint("fetch-max-tries", config.DefaultFetchMaxTries, "Total fetch attempts before the run fails")
	rootCmd.Flags().String("zip-reference", "data/zip_reference.csv", "Path to the ZIP code reference CSV")
	rootCmd.Flags().String("age-lookup", "data/dog_ages.xlsx", "Path to the curated age lookup spreadsheet")
	rootCmd.Flags().String("borough-shapefile", "", "Optional borough boundary shapefile for the borough choropleth")
	rootCmd.Flags().String("borough-key-field", "boro_name", "DBF attribute holding the borough name")
	rootCmd.Flags().String("zcta-shapefile", "", "Optional ZCTA boundary shapefile for the ZIP choropleth")
	rootCmd.Flags().String("zcta-key-field", "modzcta", "DBF attribute holding the ZIP-like code")
	rootCmd.Flags().String("out-dir", "out", "Directory for the generated report artifacts")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-format", "text", "Log format: text or json")
	rootCmd.Flags().String("metrics-addr", "", "Optional listen address for /metrics and /healthz during the run")

	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		panic(err)
	}
}

// initConfig wires DOGBITE_* environment variables into viper so every flag
// can also be set from the environment.
func initConfig() {
	viper.SetEnvPrefix("DOGBITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
