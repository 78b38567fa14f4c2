package cmd

import (
	"context"
	"fmt"
	"os"

	"expense-reconciliation-service/cmd/expenserec/config"

	"github.com/spf13/cobra"
)

var (
	removeBankID    string
	removeReceiptID string
)

// removeCmd deletes a stored record and recomputes the match set
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a stored transaction or receipt and recompute matches",
	Long: `Remove deletes one bank transaction or one receipt from the stored
collections by its id. The full match set is recomputed afterwards, so
any match that referenced the removed record disappears and its
counterpart becomes available for pairing again.

Examples:
  expenserec remove --bank-id 3f2c8a1e-...
  expenserec remove --receipt-id 9b7d40c2-...`,

	PreRunE: validateRemoveFlags,
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeBankID, "bank-id", "", "id of the bank transaction to remove")
	removeCmd.Flags().StringVar(&removeReceiptID, "receipt-id", "", "id of the receipt to remove")
}

func validateRemoveFlags(cmd *cobra.Command, args []string) error {
	if removeBankID == "" && removeReceiptID == "" {
		return fmt.Errorf("either --bank-id or --receipt-id is required")
	}
	if removeBankID != "" && removeReceiptID != "" {
		return fmt.Errorf("--bank-id and --receipt-id are mutually exclusive")
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	service, err := config.NewService()
	if err != nil {
		return err
	}

	if removeBankID != "" {
		if err := service.RemoveBankTransaction(ctx, removeBankID); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Removed bank transaction %s and recomputed matches\n", removeBankID)
		return nil
	}

	if err := service.RemoveReceipt(ctx, removeReceiptID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Removed receipt %s and recomputed matches\n", removeReceiptID)
	return nil
}
