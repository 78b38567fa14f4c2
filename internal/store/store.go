// Package store persists the three record collections (bank
// transactions, receipts, matches) as whole snapshots. The core never
// performs partial updates: it loads a collection, computes a new one,
// and saves it back.
package store

import (
	"expense-reconciliation-service/internal/models"
)

// Collection keys used by file-backed implementations.
const (
	KeyBankTransactions = "bank_transactions"
	KeyReceipts         = "receipts"
	KeyMatches          = "matches"
)

// Store is the persisted collection contract. A missing collection
// loads as an empty list, never an error.
type Store interface {
	LoadBankTransactions() ([]*models.BankTransaction, error)
	SaveBankTransactions(transactions []*models.BankTransaction) error

	LoadReceipts() ([]*models.Receipt, error)
	SaveReceipts(receipts []*models.Receipt) error

	LoadMatches() ([]*models.Match, error)
	SaveMatches(matches []*models.Match) error
}

// MemoryStore is an in-memory Store used by tests and one-shot CLI
// runs that do not need persistence.
type MemoryStore struct {
	transactions []*models.BankTransaction
	receipts     []*models.Receipt
	matches      []*models.Match
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadBankTransactions returns the current bank transaction snapshot
func (s *MemoryStore) LoadBankTransactions() ([]*models.BankTransaction, error) {
	return append([]*models.BankTransaction(nil), s.transactions...), nil
}

// SaveBankTransactions replaces the bank transaction snapshot
func (s *MemoryStore) SaveBankTransactions(transactions []*models.BankTransaction) error {
	s.transactions = append([]*models.BankTransaction(nil), transactions...)
	return nil
}

// LoadReceipts returns the current receipt snapshot
func (s *MemoryStore) LoadReceipts() ([]*models.Receipt, error) {
	return append([]*models.Receipt(nil), s.receipts...), nil
}

// SaveReceipts replaces the receipt snapshot
func (s *MemoryStore) SaveReceipts(receipts []*models.Receipt) error {
	s.receipts = append([]*models.Receipt(nil), receipts...)
	return nil
}

// LoadMatches returns the current match snapshot
func (s *MemoryStore) LoadMatches() ([]*models.Match, error) {
	return append([]*models.Match(nil), s.matches...), nil
}

// SaveMatches replaces the match snapshot
func (s *MemoryStore) SaveMatches(matches []*models.Match) error {
	s.matches = append([]*models.Match(nil), matches...)
	return nil
}
