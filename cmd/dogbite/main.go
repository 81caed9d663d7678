package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/dog-bite-report/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("report run failed", "error", err)
		os.Exit(1)
	}
}
