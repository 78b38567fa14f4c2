package parsers

import (
	"regexp"
	"strings"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/normalize"
	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// Free-text extraction patterns. Date patterns are tried in order and
// the first hit wins; the amount pattern collects every currency-shaped
// token on the line and the last occurrence is taken as the amount.
var (
	textDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2}\b`),
	}

	textAmountPattern = regexp.MustCompile(`-?\$?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`)

	nonWordPattern = regexp.MustCompile(`[^\w\s]`)
)

// minDescriptionLength is the shortest description a statement line may
// carry and still produce a record.
const minDescriptionLength = 3

// BankStatementParser turns raw statement text into BankTransaction
// records. The file name selects the mode: CSV files are parsed
// positionally, everything else goes through the free-text scanner.
type BankStatementParser struct {
	logger logger.Logger
	newID  func() string
}

// NewBankStatementParser creates a new BankStatementParser
func NewBankStatementParser() *BankStatementParser {
	return &BankStatementParser{
		logger: logger.WithComponent("bank_statement_parser"),
		newID:  uuid.NewString,
	}
}

// ParseStatement parses the decoded text of one statement file. Line
// failures are silent skips; the file as a whole fails only when it
// yields zero valid records.
func (p *BankStatementParser) ParseStatement(filename, text string) ([]*models.BankTransaction, *ParseStats, error) {
	kind, err := DetectBankFileKind(filename)
	if err != nil {
		return nil, nil, err
	}

	stats := NewParseStats()

	var transactions []*models.BankTransaction
	switch kind {
	case KindCSV:
		transactions = p.parseCSV(text, stats)
	default:
		transactions = p.parseFreeText(text, stats)
	}

	p.logger.WithFields(logger.Fields{
		"file":    filename,
		"mode":    string(kind),
		"valid":   stats.RecordsValid,
		"skipped": stats.ErrorCount,
	}).Debug("Parsed bank statement")

	if len(transactions) == 0 {
		if stats.RowsScanned == 0 {
			return nil, stats, apperrors.EmptyInputError(filename)
		}
		return nil, stats, apperrors.UnrecognizedColumnsError(filename, stats.RowsScanned)
	}

	return transactions, stats, nil
}

// parseCSV scans statement text in CSV mode: lines before the header
// heuristic are preamble and skipped, then each line is split on commas
// with date, description, and amount taken positionally.
func (p *BankStatementParser) parseCSV(text string, stats *ParseStats) []*models.BankTransaction {
	var transactions []*models.BankTransaction

	headerSeen := false
	for i, line := range strings.Split(text, "\n") {
		stats.TotalLines++
		lineNum := i + 1

		if strings.TrimSpace(line) == "" {
			continue
		}

		if !headerSeen {
			if isHeaderLine(line) {
				headerSeen = true
			}
			continue
		}

		stats.RowsScanned++

		tx := p.parseCSVLine(line, lineNum, stats)
		if tx == nil {
			continue
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	return transactions
}

// parseCSVLine parses one data line; nil means the line was skipped.
func (p *BankStatementParser) parseCSVLine(line string, lineNum int, stats *ParseStats) *models.BankTransaction {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		stats.AddError(&RowError{
			Line:    lineNum,
			Value:   line,
			Message: "fewer than 3 fields",
		})
		return nil
	}

	for i := range fields {
		fields[i] = stripQuotes(fields[i])
	}

	dateStr := fields[0]
	description := fields[1]
	amountStr := fields[len(fields)-1]

	date, err := normalize.NormalizeDate(dateStr)
	if err != nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "date",
			Value:   dateStr,
			Message: "unparseable date",
			Err:     err,
		})
		return nil
	}

	signed, err := normalize.ParseAmount(amountStr)
	if err != nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "amount",
			Value:   amountStr,
			Message: "unparseable amount",
			Err:     err,
		})
		return nil
	}

	if len(strings.TrimSpace(description)) <= 2 {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "description",
			Value:   description,
			Message: "description too short",
		})
		return nil
	}

	txType := models.TransactionTypeCredit
	if signed.IsNegative() {
		txType = models.TransactionTypeDebit
	}

	return models.NewBankTransaction(p.newID(), date, description, signed.Abs().Round(2), txType)
}

// parseFreeText scans non-CSV statement text, such as text extracted
// from a PDF, pulling a date and the last currency-shaped token out of
// each line and treating the cleaned remainder as the description.
func (p *BankStatementParser) parseFreeText(text string, stats *ParseStats) []*models.BankTransaction {
	var transactions []*models.BankTransaction

	for i, line := range strings.Split(text, "\n") {
		stats.TotalLines++
		lineNum := i + 1

		if strings.TrimSpace(line) == "" || isHeaderLine(line) {
			continue
		}

		stats.RowsScanned++

		tx := p.parseTextLine(line, lineNum, stats)
		if tx == nil {
			continue
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	return transactions
}

// parseTextLine extracts one record from a free-text line; nil means
// the line was skipped.
func (p *BankStatementParser) parseTextLine(line string, lineNum int, stats *ParseStats) *models.BankTransaction {
	var dateLoc []int
	for _, pattern := range textDatePatterns {
		if loc := pattern.FindStringIndex(line); loc != nil {
			dateLoc = loc
			break
		}
	}
	if dateLoc == nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Value:   line,
			Message: "no date found",
		})
		return nil
	}

	amountLocs := textAmountPattern.FindAllStringIndex(line, -1)
	if len(amountLocs) == 0 {
		stats.AddError(&RowError{
			Line:    lineNum,
			Value:   line,
			Message: "no amount token found",
		})
		return nil
	}
	amountLoc := amountLocs[len(amountLocs)-1]

	dateStr := line[dateLoc[0]:dateLoc[1]]
	amountStr := line[amountLoc[0]:amountLoc[1]]

	date, err := normalize.NormalizeDate(dateStr)
	if err != nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "date",
			Value:   dateStr,
			Message: "unparseable date",
			Err:     err,
		})
		return nil
	}

	signed, err := normalize.ParseAmount(amountStr)
	if err != nil {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "amount",
			Value:   amountStr,
			Message: "unparseable amount",
			Err:     err,
		})
		return nil
	}

	description := cleanTextDescription(line, dateLoc, amountLoc)
	if len(description) < minDescriptionLength {
		stats.AddError(&RowError{
			Line:    lineNum,
			Field:   "description",
			Value:   description,
			Message: "description too short",
		})
		return nil
	}

	txType := models.TransactionTypeCredit
	if signed.IsNegative() {
		txType = models.TransactionTypeDebit
	}

	tx := models.NewBankTransaction(p.newID(), date, description, signed.Abs().Round(2), txType)
	tx.RawText = strings.TrimSpace(line)
	return tx
}

// cleanTextDescription removes the matched date and amount spans from a
// line, strips remaining non-word characters, and collapses whitespace.
func cleanTextDescription(line string, dateLoc, amountLoc []int) string {
	// Remove the later span first so the earlier offsets stay valid.
	first, second := dateLoc, amountLoc
	if first[0] > second[0] {
		first, second = second, first
	}
	if second[0] < first[1] {
		second = []int{first[1], max(first[1], second[1])}
	}

	cleaned := line[:first[0]] + " " + line[first[1]:second[0]] + " " + line[second[1]:]
	cleaned = nonWordPattern.ReplaceAllString(cleaned, " ")

	return strings.Join(strings.Fields(cleaned), " ")
}
