package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"expense-reconciliation-service/cmd/expenserec/config"
	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportType   string
)

// exportCmd writes the persisted collections as a single JSON document
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions, receipts, and matches as JSON",
	Long: `Export writes every stored bank transaction, receipt, and match into
a single JSON document. The default file name carries the export date,
e.g. expense-reconciliation-2024-01-15.json.

Examples:
  expenserec export
  expenserec export --output-file backup.json
  expenserec export --type debit`,

	PreRunE: validateExportFlags,
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output-file", "o", "", "output file path (default: expense-reconciliation-<date>.json)")
	exportCmd.Flags().StringVar(&exportType, "type", "", "restrict bank transactions to one type: debit, credit")
}

func validateExportFlags(cmd *cobra.Command, args []string) error {
	if exportType != "" && !models.TransactionType(exportType).IsValid() {
		return fmt.Errorf("invalid transaction type '%s'. Valid types: debit, credit", exportType)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	service, err := config.NewService()
	if err != nil {
		return err
	}

	transactions, receipts, matches, err := service.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored collections: %w", err)
	}

	var filter reporter.TransactionFilter
	if exportType != "" {
		filter = reporter.FilterByType(models.TransactionType(exportType))
	}

	now := time.Now().UTC()
	doc := reporter.NewExportDocument(transactions, receipts, matches, filter, now)

	path := exportOutput
	if path == "" {
		path = reporter.ExportFileName(now)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := doc.Write(f); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d transaction(s), %d receipt(s), %d match(es) to %s\n",
		len(doc.BankTransactions), len(doc.Receipts), len(doc.Matches), path)
	return nil
}
