package parsers

import (
	"bytes"
	"encoding/csv"
	"strings"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/normalize"
	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Alias priority lists for receipt field resolution. Each list is tried
// in order through normalize.ResolveField; the first non-empty value
// wins.
var (
	receiptDateAliases = []string{
		"date", "report date", "expense date", "transaction date",
		"created", "submitted", "date created", "purchase date", "receipt date",
	}
	receiptEmployeeAliases = []string{
		"employee", "team member", "submitted by", "user", "staff", "person", "name",
	}
	receiptJobAliases = []string{
		"job", "job number", "project", "work order", "wo", "site", "job #",
	}
	receiptAmountAliases = []string{
		"amount", "total", "total amount", "cost", "value", "price", "expense amount",
	}
	receiptDescriptionAliases = []string{
		"description", "expense name", "details", "memo", "note", "item", "expense",
	}
	receiptCategoryAliases = []string{
		"category", "expense type", "type", "account",
	}
)

// Defaults applied when a field resolves to nothing.
const (
	defaultEmployee = "Unknown"
	defaultJob      = "General"
)

// ReceiptParser turns tabular receipt exports into Receipt records.
// Column names are resolved through alias priority lists, so exports
// from different expense systems parse without per-vendor
// configuration.
type ReceiptParser struct {
	logger logger.Logger
	newID  func() string
}

// NewReceiptParser creates a new ReceiptParser
func NewReceiptParser() *ReceiptParser {
	return &ReceiptParser{
		logger: logger.WithComponent("receipt_parser"),
		newID:  uuid.NewString,
	}
}

// ParseReceipts parses one receipt export file. CSV input is read as
// comma-delimited text; spreadsheet input is read as the first sheet's
// cells with row 0 as the header.
func (p *ReceiptParser) ParseReceipts(filename string, data []byte) ([]*models.Receipt, *ParseStats, error) {
	kind, err := DetectReceiptFileKind(filename)
	if err != nil {
		return nil, nil, err
	}

	stats := NewParseStats()

	var rows [][]string
	switch kind {
	case KindSpreadsheet:
		rows, err = readWorkbookRows(filename, data)
		if err != nil {
			return nil, nil, err
		}
	default:
		rows = readCSVRows(data, stats)
	}

	return p.parseRows(filename, rows, stats)
}

// parseRows extracts receipts from header-plus-data rows.
func (p *ReceiptParser) parseRows(filename string, rows [][]string, stats *ParseStats) ([]*models.Receipt, *ParseStats, error) {
	// Lines the reader already rejected are counted in the stats.
	stats.TotalLines = len(rows) + stats.ErrorCount

	if len(rows) <= 1 {
		return nil, stats, apperrors.EmptyInputError(filename)
	}

	headers := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		headers[i] = normalize.NormalizeHeader(cell)
	}

	var receipts []*models.Receipt
	for i, row := range rows[1:] {
		lineNum := i + 2

		if isEmptyRow(row) {
			continue
		}

		stats.RowsScanned++

		fields := make(map[string]string, len(headers))
		for j, cell := range row {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			fields[headers[j]] = cell
		}

		receipt := p.parseRow(fields, lineNum, stats)
		if receipt == nil {
			continue
		}

		receipts = append(receipts, receipt)
		stats.RecordsValid++
	}

	p.logger.WithFields(logger.Fields{
		"file":    filename,
		"valid":   stats.RecordsValid,
		"skipped": stats.ErrorCount,
	}).Debug("Parsed receipt export")

	if len(receipts) == 0 {
		if stats.RowsScanned == 0 {
			return nil, stats, apperrors.EmptyInputError(filename)
		}
		return nil, stats, apperrors.UnrecognizedColumnsError(filename, stats.RowsScanned)
	}

	return receipts, stats, nil
}

// parseRow extracts one receipt from a resolved field map; nil means
// the row was skipped.
func (p *ReceiptParser) parseRow(fields map[string]string, lineNum int, stats *ParseStats) *models.Receipt {
	dateStr := normalize.ResolveField(fields, receiptDateAliases)
	date, err := normalize.NormalizeDate(dateStr)
	if err != nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "date",
			Value:   dateStr,
			Message: "no recognizable date field",
			Err:     err,
		})
		return nil
	}

	// A bad amount value is treated as zero, which the >0 rule rejects.
	amountStr := normalize.ResolveField(fields, receiptAmountAliases)
	amount, err := normalize.NormalizeAmount(amountStr)
	if err != nil {
		amount = decimal.Zero
	}
	if !amount.IsPositive() {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "amount",
			Value:   amountStr,
			Message: "amount must be greater than zero",
		})
		return nil
	}

	employee := normalize.ResolveField(fields, receiptEmployeeAliases)
	if employee == "" {
		employee = defaultEmployee
	}

	job := normalize.ResolveField(fields, receiptJobAliases)
	if job == "" {
		job = defaultJob
	}

	description := normalize.ResolveField(fields, receiptDescriptionAliases)

	receipt := models.NewReceipt(p.newID(), date, employee, job, amount, description)
	receipt.Category = normalize.ResolveField(fields, receiptCategoryAliases)

	return receipt
}

// readCSVRows reads comma-delimited text into rows of cells. Each line
// is parsed as its own CSV record so a malformed line, such as an
// unterminated quote, skips only itself; quoted fields therefore
// cannot span lines. Skipped lines are recorded in stats.
func readCSVRows(data []byte, stats *ParseStats) [][]string {
	var rows [][]string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		reader := csv.NewReader(strings.NewReader(line))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true

		record, err := reader.Read()
		if err != nil {
			stats.AddError(&RowError{
				Line:    i + 1,
				Value:   strings.TrimSpace(line),
				Message: "malformed csv line",
				Err:     err,
			})
			continue
		}

		rows = append(rows, record)
	}

	return rows
}

// readWorkbookRows reads the first sheet of an xlsx/xls workbook as
// rows of string cells
func readWorkbookRows(filename string, data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryParse, apperrors.CodeCorruptWorkbook,
			"failed to open workbook").
			WithSuggestion("verify the file is a valid Excel workbook").
			WithContext("file_path", filename)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.EmptyInputError(filename)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryParse, apperrors.CodeCorruptWorkbook,
			"failed to read worksheet rows").
			WithContext("file_path", filename).
			WithContext("sheet", sheets[0])
	}

	return rows, nil
}

// isEmptyRow checks if all cells in a row are empty or whitespace
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
