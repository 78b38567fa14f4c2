package cmd

import (
	"context"
	"fmt"
	"os"

	"expense-reconciliation-service/cmd/expenserec/config"
	"expense-reconciliation-service/internal/reconciler"
	"expense-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	bankFiles    []string
	receiptFiles []string
	outputFormat string
	outputFile   string
)

// matchCmd loads statement and receipt batches and recomputes matches
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Import bank and receipt files and compute matches",
	Long: `Match imports one or more bank statement files (.csv or plain text)
and receipt export files (.csv, .xlsx, .xls), normalizes them into
canonical records, and recomputes the full match set.

A file that fails to parse is reported and skipped; records from the
other files in the batch are kept.

Examples:
  expenserec match --bank-files statement.csv --receipt-files expenses.xlsx
  expenserec match -b jan.csv,feb.txt -r receipts.csv --output-format json`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringSliceVarP(&bankFiles, "bank-files", "b", []string{}, "comma-separated bank statement files")
	matchCmd.Flags().StringSliceVarP(&receiptFiles, "receipt-files", "r", []string{}, "comma-separated receipt export files")
	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	viper.BindPFlag("bank-files", matchCmd.Flags().Lookup("bank-files"))
	viper.BindPFlag("receipt-files", matchCmd.Flags().Lookup("receipt-files"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	bankFiles = viper.GetStringSlice("bank-files")
	receiptFiles = viper.GetStringSlice("receipt-files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")

	if len(bankFiles) == 0 && len(receiptFiles) == 0 {
		return fmt.Errorf("at least one bank or receipt file is required")
	}

	if _, err := config.ReportFormat(outputFormat); err != nil {
		return err
	}

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	service, err := config.NewService()
	if err != nil {
		return err
	}

	if len(bankFiles) > 0 {
		result, err := service.ImportBankFiles(ctx, bankFiles)
		if err != nil {
			return fmt.Errorf("bank statement import failed: %w", err)
		}
		reportBatch("bank statements", result)
	}

	if len(receiptFiles) > 0 {
		result, err := service.ImportReceiptFiles(ctx, receiptFiles)
		if err != nil {
			return fmt.Errorf("receipt import failed: %w", err)
		}
		reportBatch("receipts", result)
	}

	run, err := service.Rematch(ctx)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	format, _ := config.ReportFormat(outputFormat)
	generator, err := reporter.NewReportGenerator(format)
	if err != nil {
		return err
	}

	out, closeOut, err := config.OpenOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	return generator.MatchReport(run, out)
}

// reportBatch prints the partial-success summary of one import batch
func reportBatch(kind string, result *reconciler.BatchResult) {
	fmt.Fprintf(os.Stderr, "Loaded %d %s from %d file(s); %d file(s) failed\n",
		result.RecordsLoaded, kind, result.FilesProcessed, result.FilesFailed)

	for path, err := range result.Failures {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
	}
}
