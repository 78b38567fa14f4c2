// Package config assembles component configuration for the CLI from
// viper-bound flags, environment variables, and the optional config
// file.
package config

import (
	"fmt"
	"io"
	"os"

	"expense-reconciliation-service/internal/reconciler"
	"expense-reconciliation-service/internal/reporter"
	"expense-reconciliation-service/internal/store"

	"github.com/spf13/viper"
)

// DataDir returns the configured persisted-collection directory
func DataDir() string {
	dir := viper.GetString("data-dir")
	if dir == "" {
		dir = ".expenserec"
	}
	return dir
}

// NewService opens the file store at the configured data directory and
// builds a reconciliation service over it
func NewService() (*reconciler.Service, error) {
	st, err := store.NewFileStore(DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open collection store: %w", err)
	}

	return reconciler.NewService(st), nil
}

// ReportFormat validates and converts an output-format flag value
func ReportFormat(s string) (reporter.OutputFormat, error) {
	format := reporter.OutputFormat(s)
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format '%s'. Valid formats: console, json", s)
	}
	return format, nil
}

// OpenOutput returns the report destination for an --output-file value;
// empty means stdout. The returned closer is a no-op for stdout.
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return f, f.Close, nil
}
