package parsers

import (
	"fmt"
	"testing"

	"expense-reconciliation-service/internal/models"
	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"
)

// newTestStatementParser returns a parser with deterministic record ids
func newTestStatementParser() *BankStatementParser {
	n := 0
	return &BankStatementParser{
		logger: logger.WithComponent("test"),
		newID: func() string {
			n++
			return fmt.Sprintf("tx-%d", n)
		},
	}
}

func TestParseStatementCSV(t *testing.T) {
	text := `Date,Description,Amount
2024-01-05,Coffee Shop,-12.50
2024-01-06,Payroll Deposit,2500.00
2024-01-07,"Office Supplies, Inc",-45.00`

	p := newTestStatementParser()
	transactions, stats, err := p.ParseStatement("statement.csv", text)
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}

	if len(transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(transactions))
	}

	first := transactions[0]
	if first.DateString() != "2024-01-05" {
		t.Errorf("Date = %s, want 2024-01-05", first.DateString())
	}
	if first.Description != "Coffee Shop" {
		t.Errorf("Description = %q, want %q", first.Description, "Coffee Shop")
	}
	if first.Amount.StringFixed(2) != "12.50" {
		t.Errorf("Amount = %s, want 12.50", first.Amount.StringFixed(2))
	}
	if first.Type != models.TransactionTypeDebit {
		t.Errorf("Type = %s, want debit", first.Type)
	}

	if transactions[1].Type != models.TransactionTypeCredit {
		t.Errorf("positive amount should be credit, got %s", transactions[1].Type)
	}

	if stats.RecordsValid != 3 || stats.HasErrors() {
		t.Errorf("unexpected stats: %s", stats)
	}
}

func TestParseStatementCSVSkipsPreamble(t *testing.T) {
	text := `First National Bank
Account ****1234
Statement Period: Jan 2024

Date,Description,Amount
2024-01-05,Coffee Shop,-12.50`

	p := newTestStatementParser()
	transactions, _, err := p.ParseStatement("statement.csv", text)
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}

	if len(transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(transactions))
	}
}

func TestParseStatementCSVSkipsBadRows(t *testing.T) {
	text := `Date,Description,Amount
2024-01-05,Coffee Shop,-12.50
not-a-date,Mystery,-1.00
2024-01-06,AB,-5.00
2024-01-07,Valid Vendor,abc
2024-01-08,Another Vendor,-20.00`

	p := newTestStatementParser()
	transactions, stats, err := p.ParseStatement("statement.csv", text)
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}

	if len(transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(transactions))
	}
	if stats.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", stats.ErrorCount)
	}

	fields := map[string]bool{}
	for _, rowErr := range stats.Errors {
		fields[rowErr.Field] = true
	}
	for _, want := range []string{"date", "description", "amount"} {
		if !fields[want] {
			t.Errorf("missing row error for field %q", want)
		}
	}
}

func TestParseStatementFreeText(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		date        string
		description string
		amount      string
		txType      models.TransactionType
	}{
		{
			name:        "slash date with dollar amount",
			line:        "01/05/2024  COFFEE SHOP #42  -$12.50",
			date:        "2024-01-05",
			description: "COFFEE SHOP 42",
			amount:      "12.50",
			txType:      models.TransactionTypeDebit,
		},
		{
			name:        "canonical date positive amount",
			line:        "2024-01-06 PAYROLL DEPOSIT 2,500.00",
			date:        "2024-01-06",
			description: "PAYROLL DEPOSIT",
			amount:      "2500.00",
			txType:      models.TransactionTypeCredit,
		},
		{
			name:        "two digit year",
			line:        "1/5/24 VENDING MACHINE -3.00",
			date:        "2024-01-05",
			description: "VENDING MACHINE",
			amount:      "3.00",
			txType:      models.TransactionTypeDebit,
		},
		{
			name:        "last currency token wins",
			line:        "01/05/2024 REFUND FOR 10.00 PURCHASE 25.00",
			date:        "2024-01-05",
			description: "REFUND FOR 10 00 PURCHASE",
			amount:      "25.00",
			txType:      models.TransactionTypeCredit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestStatementParser()
			transactions, _, err := p.ParseStatement("statement.txt", tt.line)
			if err != nil {
				t.Fatalf("ParseStatement failed: %v", err)
			}
			if len(transactions) != 1 {
				t.Fatalf("got %d transactions, want 1", len(transactions))
			}

			tx := transactions[0]
			if tx.DateString() != tt.date {
				t.Errorf("Date = %s, want %s", tx.DateString(), tt.date)
			}
			if tx.Description != tt.description {
				t.Errorf("Description = %q, want %q", tx.Description, tt.description)
			}
			if tx.Amount.StringFixed(2) != tt.amount {
				t.Errorf("Amount = %s, want %s", tx.Amount.StringFixed(2), tt.amount)
			}
			if tx.Type != tt.txType {
				t.Errorf("Type = %s, want %s", tx.Type, tt.txType)
			}
			if tx.RawText == "" {
				t.Error("RawText should keep the original line")
			}
		})
	}
}

func TestParseStatementFreeTextSkips(t *testing.T) {
	text := `01/05/2024  COFFEE SHOP  -12.50
NO DATE ON THIS LINE 45.00
01/06/2024 nothing numeric on this line
01/07/2024 -9.99`

	p := newTestStatementParser()
	transactions, stats, err := p.ParseStatement("statement.txt", text)
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}

	if len(transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(transactions))
	}
	if stats.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", stats.ErrorCount)
	}
}

func TestParseStatementEmptyInput(t *testing.T) {
	p := newTestStatementParser()

	_, _, err := p.ParseStatement("statement.csv", "\n\n\n")
	if !apperrors.HasCode(err, apperrors.CodeEmptyInput) {
		t.Errorf("expected empty-input error, got %v", err)
	}
}

func TestParseStatementUnrecognizedColumns(t *testing.T) {
	text := `Date,Description,Amount
x,y,z
a,b,c`

	p := newTestStatementParser()
	_, stats, err := p.ParseStatement("statement.csv", text)
	if !apperrors.HasCode(err, apperrors.CodeUnrecognizedColumns) {
		t.Errorf("expected unrecognized-columns error, got %v", err)
	}
	if stats.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2", stats.RowsScanned)
	}
}

func TestParseStatementUnsupportedExtension(t *testing.T) {
	p := newTestStatementParser()

	_, _, err := p.ParseStatement("statement.pdf", "anything")
	if !apperrors.HasCode(err, apperrors.CodeUnsupportedFileType) {
		t.Errorf("expected unsupported-file-type error, got %v", err)
	}
}

func TestIsHeaderLine(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"Date,Description,Amount", true},
		{"Date Description Amount", true},
		{"Posted Balance", true},
		{"First National Bank", false},
		{"date desc amount one two three", false},
		{"2024-01-05,Coffee Shop,-12.50", false},
	}

	for _, tt := range tests {
		if got := isHeaderLine(tt.line); got != tt.expected {
			t.Errorf("isHeaderLine(%q) = %v, want %v", tt.line, got, tt.expected)
		}
	}
}
