package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"expense-reconciliation-service/internal/models"
)

// ExportDocument is the single JSON document produced for download: the
// currently filtered bank transactions, the full receipt and match
// collections, and the export timestamp.
type ExportDocument struct {
	BankTransactions []*models.BankTransaction `json:"bankTransactions"`
	Receipts         []*models.Receipt         `json:"receipts"`
	Matches          []*models.Match           `json:"matches"`
	ExportedAt       string                    `json:"exportedAt"`
}

// TransactionFilter selects the bank transactions included in an
// export. A nil filter includes everything.
type TransactionFilter func(*models.BankTransaction) bool

// FilterByType keeps only transactions of the given type
func FilterByType(txType models.TransactionType) TransactionFilter {
	return func(tx *models.BankTransaction) bool {
		return tx.Type == txType
	}
}

// NewExportDocument assembles an export document at the given time,
// applying the filter to the bank transactions only.
func NewExportDocument(
	transactions []*models.BankTransaction,
	receipts []*models.Receipt,
	matches []*models.Match,
	filter TransactionFilter,
	now time.Time,
) *ExportDocument {
	filtered := transactions
	if filter != nil {
		filtered = make([]*models.BankTransaction, 0, len(transactions))
		for _, tx := range transactions {
			if filter(tx) {
				filtered = append(filtered, tx)
			}
		}
	}

	if filtered == nil {
		filtered = []*models.BankTransaction{}
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}
	if matches == nil {
		matches = []*models.Match{}
	}

	return &ExportDocument{
		BankTransactions: filtered,
		Receipts:         receipts,
		Matches:          matches,
		ExportedAt:       now.UTC().Format(time.RFC3339),
	}
}

// Write renders the export document as indented JSON
func (d *ExportDocument) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// ExportFileName returns the dated default file name for an export
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("expense-reconciliation-%s.json", now.UTC().Format(models.DateLayout))
}
