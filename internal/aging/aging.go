// Package aging buckets unmatched bank transactions by elapsed age for
// risk triage.
//
// Ages are computed in whole days with both the reference clock and the
// stored dates truncated to midnight UTC, so a bucket boundary never
// shifts with the caller's time zone.
package aging

import (
	"fmt"
	"time"

	"expense-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// The fixed bucket ranges, inclusive on both bounds. The last bucket is
// unbounded above. Boundary ages fall in the lower bucket: day 7 is
// Current, day 8 is Warning.
var bucketDefs = []struct {
	label   string
	minDays int
	maxDays int // -1 means unbounded
}{
	{"Current", 0, 7},
	{"Warning", 8, 14},
	{"Attention", 15, 30},
	{"Critical", 31, 60},
	{"Overdue", 61, -1},
}

// Analyzer buckets unmatched transactions by age in days
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an Analyzer using the system clock
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerAt creates an Analyzer with a fixed reference clock,
// mainly for reporting as-of a chosen date and for tests
func NewAnalyzerAt(now time.Time) *Analyzer {
	return &Analyzer{now: func() time.Time { return now }}
}

// Analyze places every transaction into its age bucket and aggregates
// per-bucket counts and amount totals. It never fails: an empty input
// yields the fixed buckets with zero members.
func (a *Analyzer) Analyze(unmatched []*models.BankTransaction) []*models.AgingBucket {
	buckets := newBuckets()
	reference := midnightUTC(a.now())

	for _, tx := range unmatched {
		age := ageDays(reference, tx.Date)
		bucket := pick(buckets, age)

		bucket.Count++
		bucket.TotalAmount = bucket.TotalAmount.Add(tx.Amount)
		bucket.Transactions = append(bucket.Transactions, tx)
	}

	return buckets
}

// newBuckets builds the fixed empty bucket set
func newBuckets() []*models.AgingBucket {
	buckets := make([]*models.AgingBucket, 0, len(bucketDefs))
	for _, def := range bucketDefs {
		rangeStr := fmt.Sprintf("%d-%d days", def.minDays, def.maxDays)
		if def.maxDays < 0 {
			rangeStr = fmt.Sprintf("%d+ days", def.minDays)
		}

		buckets = append(buckets, &models.AgingBucket{
			Range:        rangeStr,
			Label:        def.label,
			MinDays:      def.minDays,
			MaxDays:      def.maxDays,
			TotalAmount:  decimal.Zero,
			Transactions: []*models.BankTransaction{},
		})
	}
	return buckets
}

// pick selects the bucket containing the given age. With the
// open-ended last bucket every non-negative age lands somewhere; the
// fallback covers the impossible case.
func pick(buckets []*models.AgingBucket, age int) *models.AgingBucket {
	for _, bucket := range buckets {
		if bucket.Contains(age) {
			return bucket
		}
	}
	return buckets[len(buckets)-1]
}

// ageDays returns the whole-day age of a transaction date against the
// reference midnight. Future-dated transactions clamp to zero.
func ageDays(reference time.Time, date time.Time) int {
	age := int(reference.Sub(midnightUTC(date)) / (24 * time.Hour))
	if age < 0 {
		return 0
	}
	return age
}

// midnightUTC truncates a time to midnight in UTC
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
