// Package reconciler orchestrates the ingestion, matching, and aging
// pipeline over a persisted collection store.
//
// Batch imports are sequential and failure-isolated: a file that fails
// to parse is counted and skipped, never discarding records already
// accepted from other files in the same batch. Any change to either
// input collection triggers a full rebuild of the match collection;
// there is no incremental re-matching.
package reconciler

import (
	"context"
	"fmt"
	"os"
	"time"

	"expense-reconciliation-service/internal/aging"
	"expense-reconciliation-service/internal/matcher"
	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/parsers"
	"expense-reconciliation-service/internal/store"
	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"
)

// Service wires the parsers, matching engine, and collection store
type Service struct {
	statementParser *parsers.BankStatementParser
	receiptParser   *parsers.ReceiptParser
	engine          *matcher.MatchingEngine
	store           store.Store
	logger          logger.Logger
}

// BatchResult reports the aggregate outcome of one batch import.
// Partial success is overall success: failed files are counted
// alongside the records loaded from the files that parsed.
type BatchResult struct {
	FilesProcessed int
	FilesFailed    int
	RecordsLoaded  int
	Failures       map[string]error
	Stats          map[string]*parsers.ParseStats
}

// NewService creates a Service over the given collection store
func NewService(st store.Store) *Service {
	return &Service{
		statementParser: parsers.NewBankStatementParser(),
		receiptParser:   parsers.NewReceiptParser(),
		engine:          matcher.NewMatchingEngine(),
		store:           st,
		logger:          logger.WithComponent("reconciler"),
	}
}

// ImportBankFiles parses a batch of bank statement files sequentially,
// appends the accepted records to the stored collection, and rebuilds
// the match set. Per-file failures are isolated; cancellation is
// honored between files.
func (s *Service) ImportBankFiles(ctx context.Context, paths []string) (*BatchResult, error) {
	result := newBatchResult()

	transactions, err := s.store.LoadBankTransactions()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.FilesProcessed++

		if _, err := parsers.DetectBankFileKind(path); err != nil {
			result.fail(path, err)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			result.fail(path, readError(path, err))
			continue
		}

		parsed, stats, err := s.statementParser.ParseStatement(path, string(data))
		result.Stats[path] = stats
		if err != nil {
			result.fail(path, err)
			continue
		}

		transactions = append(transactions, parsed...)
		result.RecordsLoaded += len(parsed)
	}

	if result.RecordsLoaded > 0 {
		if err := s.store.SaveBankTransactions(transactions); err != nil {
			return result, err
		}
		if _, err := s.Rematch(ctx); err != nil {
			return result, err
		}
	}

	s.logger.WithFields(logger.Fields{
		"files_processed": result.FilesProcessed,
		"files_failed":    result.FilesFailed,
		"records_loaded":  result.RecordsLoaded,
	}).Info("Imported bank statement batch")

	return result, nil
}

// ImportReceiptFiles parses a batch of receipt export files with the
// same sequential, failure-isolated policy as ImportBankFiles.
func (s *Service) ImportReceiptFiles(ctx context.Context, paths []string) (*BatchResult, error) {
	result := newBatchResult()

	receipts, err := s.store.LoadReceipts()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.FilesProcessed++

		if _, err := parsers.DetectReceiptFileKind(path); err != nil {
			result.fail(path, err)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			result.fail(path, readError(path, err))
			continue
		}

		parsed, stats, err := s.receiptParser.ParseReceipts(path, data)
		result.Stats[path] = stats
		if err != nil {
			result.fail(path, err)
			continue
		}

		receipts = append(receipts, parsed...)
		result.RecordsLoaded += len(parsed)
	}

	if result.RecordsLoaded > 0 {
		if err := s.store.SaveReceipts(receipts); err != nil {
			return result, err
		}
		if _, err := s.Rematch(ctx); err != nil {
			return result, err
		}
	}

	s.logger.WithFields(logger.Fields{
		"files_processed": result.FilesProcessed,
		"files_failed":    result.FilesFailed,
		"records_loaded":  result.RecordsLoaded,
	}).Info("Imported receipt batch")

	return result, nil
}

// Rematch discards the stored match collection and rebuilds it from the
// current bank transaction and receipt snapshots.
func (s *Service) Rematch(ctx context.Context) (*matcher.MatchRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transactions, err := s.store.LoadBankTransactions()
	if err != nil {
		return nil, err
	}

	receipts, err := s.store.LoadReceipts()
	if err != nil {
		return nil, err
	}

	run := s.engine.Match(transactions, receipts)

	if err := s.store.SaveMatches(run.Matches); err != nil {
		return nil, err
	}

	return run, nil
}

// RemoveBankTransaction deletes one bank transaction by id. Matches
// referencing it disappear through the full match rebuild.
func (s *Service) RemoveBankTransaction(ctx context.Context, id string) error {
	transactions, err := s.store.LoadBankTransactions()
	if err != nil {
		return err
	}

	remaining := make([]*models.BankTransaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.ID != id {
			remaining = append(remaining, tx)
		}
	}

	if len(remaining) == len(transactions) {
		return fmt.Errorf("bank transaction not found: %s", id)
	}

	if err := s.store.SaveBankTransactions(remaining); err != nil {
		return err
	}

	_, err = s.Rematch(ctx)
	return err
}

// RemoveReceipt deletes one receipt by id with the same cascade policy
// as RemoveBankTransaction.
func (s *Service) RemoveReceipt(ctx context.Context, id string) error {
	receipts, err := s.store.LoadReceipts()
	if err != nil {
		return err
	}

	remaining := make([]*models.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.ID != id {
			remaining = append(remaining, r)
		}
	}

	if len(remaining) == len(receipts) {
		return fmt.Errorf("receipt not found: %s", id)
	}

	if err := s.store.SaveReceipts(remaining); err != nil {
		return err
	}

	_, err = s.Rematch(ctx)
	return err
}

// Aging buckets the currently unmatched bank transactions by age as of
// the given reference time.
func (s *Service) Aging(ctx context.Context, now time.Time) ([]*models.AgingBucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transactions, err := s.store.LoadBankTransactions()
	if err != nil {
		return nil, err
	}

	matches, err := s.store.LoadMatches()
	if err != nil {
		return nil, err
	}

	unmatched := matcher.UnmatchedTransactions(transactions, matches)
	return aging.NewAnalyzerAt(now).Analyze(unmatched), nil
}

// Snapshot returns the current stored collections
func (s *Service) Snapshot(ctx context.Context) ([]*models.BankTransaction, []*models.Receipt, []*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	transactions, err := s.store.LoadBankTransactions()
	if err != nil {
		return nil, nil, nil, err
	}

	receipts, err := s.store.LoadReceipts()
	if err != nil {
		return nil, nil, nil, err
	}

	matches, err := s.store.LoadMatches()
	if err != nil {
		return nil, nil, nil, err
	}

	return transactions, receipts, matches, nil
}

func newBatchResult() *BatchResult {
	return &BatchResult{
		Failures: make(map[string]error),
		Stats:    make(map[string]*parsers.ParseStats),
	}
}

func (r *BatchResult) fail(path string, err error) {
	r.FilesFailed++
	r.Failures[path] = err
}

// readError maps a file read failure to the categorized error type
func readError(path string, err error) error {
	if os.IsNotExist(err) {
		return apperrors.FileError(apperrors.CodeFileNotFound, path, err)
	}
	if os.IsPermission(err) {
		return apperrors.FileError(apperrors.CodeFilePermission, path, err)
	}
	return apperrors.FileError("", path, err)
}
