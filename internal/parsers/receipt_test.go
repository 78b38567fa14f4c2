package parsers

import (
	"fmt"
	"testing"

	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"
)

func newTestReceiptParser() *ReceiptParser {
	n := 0
	return &ReceiptParser{
		logger: logger.WithComponent("test"),
		newID: func() string {
			n++
			return fmt.Sprintf("rc-%d", n)
		},
	}
}

func TestParseReceiptsAliasResolution(t *testing.T) {
	data := []byte(`Date, Team Member, Job #, Total, Memo
1/5/2024, jane doe, abc123, $12.50, lunch`)

	p := newTestReceiptParser()
	receipts, stats, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}

	r := receipts[0]
	if r.DateString() != "2024-01-05" {
		t.Errorf("Date = %s, want 2024-01-05", r.DateString())
	}
	if r.Employee != "Jane Doe" {
		t.Errorf("Employee = %q, want %q", r.Employee, "Jane Doe")
	}
	if r.Job != "ABC123" {
		t.Errorf("Job = %q, want %q", r.Job, "ABC123")
	}
	if r.Amount.StringFixed(2) != "12.50" {
		t.Errorf("Amount = %s, want 12.50", r.Amount.StringFixed(2))
	}
	if r.Description != "lunch" {
		t.Errorf("Description = %q, want %q", r.Description, "lunch")
	}

	if stats.RecordsValid != 1 || stats.HasErrors() {
		t.Errorf("unexpected stats: %s", stats)
	}
}

func TestParseReceiptsDefaults(t *testing.T) {
	data := []byte(`Expense Date,Amount
2024-01-05,45.00`)

	p := newTestReceiptParser()
	receipts, _, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	r := receipts[0]
	if r.Employee != "Unknown" {
		t.Errorf("Employee = %q, want default %q", r.Employee, "Unknown")
	}
	if r.Job != "GENERAL" {
		t.Errorf("Job = %q, want default %q", r.Job, "GENERAL")
	}
}

func TestParseReceiptsCategory(t *testing.T) {
	data := []byte(`Date,Total,Expense Type
2024-01-05,30.00,Travel`)

	p := newTestReceiptParser()
	receipts, _, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	if receipts[0].Category != "Travel" {
		t.Errorf("Category = %q, want %q", receipts[0].Category, "Travel")
	}
}

func TestParseReceiptsSkipsBadRows(t *testing.T) {
	data := []byte(`Date,Employee,Amount
2024-01-05,Jane Doe,12.50
,John Smith,10.00
2024-01-06,Kate Roe,0.00
2024-01-07,Mark Poe,(5.00)
2024-01-08,Anne Loe,not-a-number
2024-01-09,Beth Moe,20.00`)

	p := newTestReceiptParser()
	receipts, stats, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	// The parenthesized refund normalizes to its magnitude and stays.
	if len(receipts) != 3 {
		t.Fatalf("got %d receipts, want 3", len(receipts))
	}
	if receipts[1].Amount.StringFixed(2) != "5.00" {
		t.Errorf("refund amount = %s, want magnitude 5.00", receipts[1].Amount.StringFixed(2))
	}
	if stats.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", stats.ErrorCount)
	}

	dateErrors, amountErrors := 0, 0
	for _, rowErr := range stats.Errors {
		switch rowErr.Field {
		case "date":
			dateErrors++
		case "amount":
			amountErrors++
		}
	}
	if dateErrors != 1 {
		t.Errorf("date errors = %d, want 1", dateErrors)
	}
	if amountErrors != 2 {
		t.Errorf("amount errors = %d, want 2", amountErrors)
	}
}

func TestParseReceiptsRecoversFromMalformedLine(t *testing.T) {
	// The unterminated quote must sink only its own line; the rows
	// after it still parse and the skip is counted.
	data := []byte(`Date,Employee,Amount
2024-01-05,Jane Doe,12.50
2024-01-06,"broken quote,10.00
2024-01-07,John Smith,8.00`)

	p := newTestReceiptParser()
	receipts, stats, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	if len(receipts) != 2 {
		t.Fatalf("got %d receipts, want 2", len(receipts))
	}
	if receipts[0].DateString() != "2024-01-05" || receipts[1].DateString() != "2024-01-07" {
		t.Errorf("wrong survivors: %s, %s", receipts[0].DateString(), receipts[1].DateString())
	}

	if stats.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d, want 1", stats.ErrorCount)
	}
	rowErr := stats.Errors[0]
	if rowErr.Line != 3 {
		t.Errorf("skipped line = %d, want 3", rowErr.Line)
	}
	if rowErr.Message != "malformed csv line" {
		t.Errorf("message = %q", rowErr.Message)
	}
}

func TestParseReceiptsSkipsEmptyRows(t *testing.T) {
	data := []byte(`Date,Amount
2024-01-05,12.50
,
2024-01-06,8.00`)

	p := newTestReceiptParser()
	receipts, stats, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	if len(receipts) != 2 {
		t.Fatalf("got %d receipts, want 2", len(receipts))
	}
	if stats.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2 (empty row not scanned)", stats.RowsScanned)
	}
}

func TestParseReceiptsEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no rows at all", []byte("")},
		{"header only", []byte("Date,Amount\n")},
	}

	p := newTestReceiptParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.ParseReceipts("expenses.csv", tt.data)
			if !apperrors.HasCode(err, apperrors.CodeEmptyInput) {
				t.Errorf("expected empty-input error, got %v", err)
			}
		})
	}
}

func TestParseReceiptsUnrecognizedColumns(t *testing.T) {
	data := []byte(`Foo,Bar
x,y
a,b`)

	p := newTestReceiptParser()
	_, stats, err := p.ParseReceipts("expenses.csv", data)
	if !apperrors.HasCode(err, apperrors.CodeUnrecognizedColumns) {
		t.Errorf("expected unrecognized-columns error, got %v", err)
	}
	if stats.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2", stats.RowsScanned)
	}
}

func TestParseReceiptsUnsupportedExtension(t *testing.T) {
	p := newTestReceiptParser()

	_, _, err := p.ParseReceipts("expenses.json", []byte("{}"))
	if !apperrors.HasCode(err, apperrors.CodeUnsupportedFileType) {
		t.Errorf("expected unsupported-file-type error, got %v", err)
	}
}

func TestParseReceiptsCorruptWorkbook(t *testing.T) {
	p := newTestReceiptParser()

	_, _, err := p.ParseReceipts("expenses.xlsx", []byte("this is not a zip archive"))
	if !apperrors.HasCode(err, apperrors.CodeCorruptWorkbook) {
		t.Errorf("expected corrupt-workbook error, got %v", err)
	}
}

func TestParseReceiptsAliasPriority(t *testing.T) {
	// "date" outranks "created"; "amount" outranks "total".
	data := []byte(`Created,Date,Total,Amount
2023-12-01,2024-01-05,99.99,12.50`)

	p := newTestReceiptParser()
	receipts, _, err := p.ParseReceipts("expenses.csv", data)
	if err != nil {
		t.Fatalf("ParseReceipts failed: %v", err)
	}

	r := receipts[0]
	if r.DateString() != "2024-01-05" {
		t.Errorf("Date = %s, want the higher-priority column value", r.DateString())
	}
	if r.Amount.StringFixed(2) != "12.50" {
		t.Errorf("Amount = %s, want the higher-priority column value", r.Amount.StringFixed(2))
	}
}
