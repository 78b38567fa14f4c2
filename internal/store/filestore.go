package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"expense-reconciliation-service/internal/models"
	apperrors "expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"
)

// FileStore persists each collection as one JSON file under a data
// directory. Writes go through a temp file and rename so a crashed save
// never leaves a half-written collection behind.
type FileStore struct {
	dir    string
	logger logger.Logger
}

// NewFileStore creates a FileStore rooted at the given directory,
// creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeLoadFailed, dir, err)
	}

	return &FileStore{
		dir:    dir,
		logger: logger.WithComponent("file_store"),
	}, nil
}

// LoadBankTransactions loads the bank transaction collection
func (s *FileStore) LoadBankTransactions() ([]*models.BankTransaction, error) {
	var transactions []*models.BankTransaction
	if err := s.load(KeyBankTransactions, &transactions); err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*models.BankTransaction{}
	}
	return transactions, nil
}

// SaveBankTransactions replaces the bank transaction collection
func (s *FileStore) SaveBankTransactions(transactions []*models.BankTransaction) error {
	return s.save(KeyBankTransactions, transactions)
}

// LoadReceipts loads the receipt collection
func (s *FileStore) LoadReceipts() ([]*models.Receipt, error) {
	var receipts []*models.Receipt
	if err := s.load(KeyReceipts, &receipts); err != nil {
		return nil, err
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}
	return receipts, nil
}

// SaveReceipts replaces the receipt collection
func (s *FileStore) SaveReceipts(receipts []*models.Receipt) error {
	return s.save(KeyReceipts, receipts)
}

// LoadMatches loads the match collection
func (s *FileStore) LoadMatches() ([]*models.Match, error) {
	var matches []*models.Match
	if err := s.load(KeyMatches, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

// SaveMatches replaces the match collection
func (s *FileStore) SaveMatches(matches []*models.Match) error {
	return s.save(KeyMatches, matches)
}

// load reads one collection file into target; a missing file is an
// empty collection, not an error.
func (s *FileStore) load(key string, target interface{}) error {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.StoreError(apperrors.CodeLoadFailed, key, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return apperrors.StoreError(apperrors.CodeLoadFailed, key, err)
	}

	return nil
}

// save writes one collection file atomically
func (s *FileStore) save(key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return apperrors.StoreError(apperrors.CodeSaveFailed, key, err)
	}

	path := s.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.StoreError(apperrors.CodeSaveFailed, key, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.StoreError(apperrors.CodeSaveFailed, key, err)
	}

	s.logger.WithFields(logger.Fields{
		"collection": key,
		"path":       path,
	}).Debug("Saved collection")

	return nil
}

// path maps a collection key to its file location
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
