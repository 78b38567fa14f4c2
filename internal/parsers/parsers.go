// Package parsers turns raw financial export files into canonical
// records despite unknown column names, date formats, and currency
// notations.
//
// Two parsers are provided:
//   - BankStatementParser: raw statement text, either CSV or free text
//     extracted from PDFs, into BankTransaction records
//   - ReceiptParser: tabular receipt exports, CSV or spreadsheet, into
//     Receipt records via header-alias resolution
//
// Both parsers skip malformed rows silently and record them in
// ParseStats; a file fails only when it yields zero valid records,
// distinguishing "no data rows" from "rows with no recognizable
// columns".
package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "expense-reconciliation-service/pkg/errors"
)

// FileKind identifies how a file's contents should be interpreted.
type FileKind string

const (
	KindCSV         FileKind = "csv"
	KindSpreadsheet FileKind = "spreadsheet"
	KindText        FileKind = "text"
)

// DetectBankFileKind maps a bank statement file name to its parse mode.
// CSV files get the column-positional CSV mode; plain text (including
// PDF-extracted text) gets the free-text scanner. Anything else is
// rejected before parsing is attempted.
func DetectBankFileKind(filename string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV, nil
	case ".txt", ".text", "":
		return KindText, nil
	default:
		return "", apperrors.FileError(apperrors.CodeUnsupportedFileType, filename, nil)
	}
}

// DetectReceiptFileKind maps a receipt export file name to its parse
// mode. Receipts are tabular only: CSV or a spreadsheet's first sheet.
func DetectReceiptFileKind(filename string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV, nil
	case ".xlsx", ".xls":
		return KindSpreadsheet, nil
	default:
		return "", apperrors.FileError(apperrors.CodeUnsupportedFileType, filename, nil)
	}
}

// RowError records a single skipped row. Row errors never abort a file;
// they accumulate in ParseStats for the aggregate report.
type RowError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row error at line %d (%s='%s'): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("row error at line %d (%s='%s'): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseStats holds statistics about a single file's parsing outcome
type ParseStats struct {
	TotalLines   int
	RowsScanned  int
	RecordsValid int
	ErrorCount   int
	Errors       []*RowError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*RowError, 0),
	}
}

// AddError records a skipped row
func (ps *ParseStats) AddError(err *RowError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if any rows were skipped
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Scanned %d lines, %d rows (%d valid), %d skipped",
		ps.TotalLines, ps.RowsScanned, ps.RecordsValid, ps.ErrorCount)
}

// SampleErrors returns up to maxSamples skipped-row descriptions for
// logging
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}

	return samples
}

// headerKeywords is the fixed keyword set of the statement header
// heuristic.
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit",
	"balance", "transaction", "posted",
}

// isHeaderLine reports whether a statement line looks like a column
// header: it contains at least one header keyword and at most five
// whitespace-separated tokens.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)

	found := false
	for _, keyword := range headerKeywords {
		if strings.Contains(lower, keyword) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	return len(strings.Fields(line)) <= 5
}

// stripQuotes removes one pair of enclosing double quotes from a field
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
