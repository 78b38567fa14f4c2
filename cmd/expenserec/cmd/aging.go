package cmd

import (
	"context"
	"fmt"
	"time"

	"expense-reconciliation-service/cmd/expenserec/config"
	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
)

var (
	agingAsOf   string
	agingFormat string
	agingOutput string
)

// agingCmd buckets the unmatched bank transactions by age
var agingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Report unmatched transactions bucketed by age",
	Long: `Aging buckets the bank transactions not referenced by any match into
fixed day ranges for risk triage: Current (0-7), Warning (8-14),
Attention (15-30), Critical (31-60), and Overdue (61+). Ages are
computed against midnight UTC.

Examples:
  expenserec aging
  expenserec aging --as-of 2024-02-01 --output-format json`,

	RunE: runAging,
}

func init() {
	rootCmd.AddCommand(agingCmd)

	agingCmd.Flags().StringVar(&agingAsOf, "as-of", "", "reference date (YYYY-MM-DD, default: today)")
	agingCmd.Flags().StringVarP(&agingFormat, "output-format", "f", "console", "output format: console, json")
	agingCmd.Flags().StringVarP(&agingOutput, "output-file", "o", "", "output file path (default: stdout)")
}

func runAging(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	asOf := time.Now().UTC()
	if agingAsOf != "" {
		parsed, err := time.Parse(models.DateLayout, agingAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date, use YYYY-MM-DD: %w", err)
		}
		asOf = parsed
	}

	format, err := config.ReportFormat(agingFormat)
	if err != nil {
		return err
	}

	service, err := config.NewService()
	if err != nil {
		return err
	}

	buckets, err := service.Aging(ctx, asOf)
	if err != nil {
		return fmt.Errorf("aging analysis failed: %w", err)
	}

	generator, err := reporter.NewReportGenerator(format)
	if err != nil {
		return err
	}

	out, closeOut, err := config.OpenOutput(agingOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	return generator.AgingReport(buckets, asOf, out)
}
