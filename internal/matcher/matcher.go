// Package matcher pairs bank transactions with receipts of identical
// amount.
//
// The algorithm is deliberately greedy rather than globally optimal:
// transactions are bucketed by exact amount in input order, receipts
// are walked most-recent-first, and each receipt consumes the first
// unconsumed transaction in its amount bucket. A receipt processed
// earlier can therefore take a transaction that would have given a
// smaller date gap to a later receipt with the same amount. Downstream
// consumers depend on this pairing order; do not replace it with an
// optimal assignment.
package matcher

import (
	"sort"
	"time"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// exactConfidenceMaxDays is the largest date gap, in whole days, still
// classified as an exact-confidence match.
const exactConfidenceMaxDays = 7

// MatchingEngine computes the full match set for a pair of input
// collections. It holds no state between runs; every call to Match is
// a recomputation from scratch.
type MatchingEngine struct {
	logger logger.Logger
	newID  func() string
	now    func() time.Time
}

// MatchRun is the outcome of one full matching pass
type MatchRun struct {
	Matches               []*models.Match
	UnmatchedTransactions []*models.BankTransaction
	UnmatchedReceipts     []*models.Receipt
	Summary               Summary
}

// Summary provides aggregate statistics about one matching pass
type Summary struct {
	TotalTransactions     int
	TotalReceipts         int
	MatchedPairs          int
	UnmatchedTransactions int
	UnmatchedReceipts     int
	ExactMatches          int
	FuzzyMatches          int
	MatchedAmount         decimal.Decimal
	UnmatchedAmount       decimal.Decimal
}

// amountBucket keys bank transactions by their exact amount at cent
// precision, preserving original input order within each bucket.
type amountBucket map[string][]*models.BankTransaction

// NewMatchingEngine creates a new MatchingEngine
func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{
		logger: logger.WithComponent("matching_engine"),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Match computes the complete match set between the given bank
// transactions and receipts. It never fails: empty inputs yield an
// empty match set.
func (me *MatchingEngine) Match(transactions []*models.BankTransaction, receipts []*models.Receipt) *MatchRun {
	buckets := bucketByAmount(transactions)

	// Receipts are processed most-recent-first. This ordering is the
	// explicit tie-break policy when several receipts share an amount.
	ordered := make([]*models.Receipt, len(receipts))
	copy(ordered, receipts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.After(ordered[j].Date)
	})

	matchDate := me.now()
	consumedBank := make(map[string]bool)
	consumedReceipts := make(map[string]bool)

	var matches []*models.Match
	for _, receipt := range ordered {
		if consumedReceipts[receipt.ID] {
			continue
		}

		tx := firstAvailable(buckets[amountKey(receipt.Amount)], consumedBank)
		if tx == nil {
			continue
		}

		gap := models.DayGap(tx.Date, receipt.Date)

		confidence := models.ConfidenceFuzzy
		if gap <= exactConfidenceMaxDays {
			confidence = models.ConfidenceExact
		}

		matches = append(matches, &models.Match{
			ID:             me.newID(),
			BankID:         tx.ID,
			ReceiptID:      receipt.ID,
			Amount:         receipt.Amount,
			MatchDate:      matchDate,
			Confidence:     confidence,
			DaysSinceMatch: gap,
		})

		consumedBank[tx.ID] = true
		consumedReceipts[receipt.ID] = true
	}

	run := &MatchRun{Matches: matches}

	for _, tx := range transactions {
		if !consumedBank[tx.ID] {
			run.UnmatchedTransactions = append(run.UnmatchedTransactions, tx)
		}
	}

	for _, receipt := range receipts {
		if !consumedReceipts[receipt.ID] {
			run.UnmatchedReceipts = append(run.UnmatchedReceipts, receipt)
		}
	}

	run.Summary = me.summarize(run, transactions, receipts)

	me.logger.WithFields(logger.Fields{
		"transactions": len(transactions),
		"receipts":     len(receipts),
		"matches":      len(matches),
	}).Debug("Completed matching pass")

	return run
}

// UnmatchedTransactions returns the transactions whose id appears in no
// match of the given collection.
func UnmatchedTransactions(transactions []*models.BankTransaction, matches []*models.Match) []*models.BankTransaction {
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		matched[m.BankID] = true
	}

	var unmatched []*models.BankTransaction
	for _, tx := range transactions {
		if !matched[tx.ID] {
			unmatched = append(unmatched, tx)
		}
	}

	return unmatched
}

// bucketByAmount groups transactions by exact amount, preserving input
// order inside each bucket.
func bucketByAmount(transactions []*models.BankTransaction) amountBucket {
	buckets := make(amountBucket)
	for _, tx := range transactions {
		key := amountKey(tx.Amount)
		buckets[key] = append(buckets[key], tx)
	}
	return buckets
}

// amountKey renders an amount as its cent-precision bucket key
func amountKey(amount decimal.Decimal) string {
	return amount.Round(2).StringFixed(2)
}

// firstAvailable returns the first transaction in a bucket not yet
// consumed, or nil
func firstAvailable(bucket []*models.BankTransaction, consumed map[string]bool) *models.BankTransaction {
	for _, tx := range bucket {
		if !consumed[tx.ID] {
			return tx
		}
	}
	return nil
}

// summarize computes aggregate statistics for a completed pass
func (me *MatchingEngine) summarize(run *MatchRun, transactions []*models.BankTransaction, receipts []*models.Receipt) Summary {
	summary := Summary{
		TotalTransactions:     len(transactions),
		TotalReceipts:         len(receipts),
		MatchedPairs:          len(run.Matches),
		UnmatchedTransactions: len(run.UnmatchedTransactions),
		UnmatchedReceipts:     len(run.UnmatchedReceipts),
		MatchedAmount:         decimal.Zero,
		UnmatchedAmount:       decimal.Zero,
	}

	for _, m := range run.Matches {
		switch m.Confidence {
		case models.ConfidenceExact:
			summary.ExactMatches++
		case models.ConfidenceFuzzy:
			summary.FuzzyMatches++
		}
		summary.MatchedAmount = summary.MatchedAmount.Add(m.Amount)
	}

	for _, tx := range run.UnmatchedTransactions {
		summary.UnmatchedAmount = summary.UnmatchedAmount.Add(tx.Amount)
	}

	return summary
}
