// Package reporter renders matching and aging results for people and
// programs: a console summary for terminal use and a JSON form for
// downstream tooling, plus the downloadable export document.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"expense-reconciliation-service/internal/matcher"
	"expense-reconciliation-service/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportGenerator renders reconciliation results in a chosen format
type ReportGenerator struct {
	format OutputFormat
}

// NewReportGenerator creates a generator for the given format
func NewReportGenerator(format OutputFormat) (*ReportGenerator, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &ReportGenerator{format: format}, nil
}

// MatchReport writes a report of one matching pass
func (rg *ReportGenerator) MatchReport(run *matcher.MatchRun, w io.Writer) error {
	if run == nil {
		return fmt.Errorf("match run cannot be nil")
	}

	switch rg.format {
	case FormatJSON:
		return writeJSON(w, matchReportDoc(run))
	default:
		return consoleMatchReport(run, w)
	}
}

// AgingReport writes a report of the unmatched-transaction age buckets
func (rg *ReportGenerator) AgingReport(buckets []*models.AgingBucket, asOf time.Time, w io.Writer) error {
	switch rg.format {
	case FormatJSON:
		return writeJSON(w, agingReportDoc(buckets, asOf))
	default:
		return consoleAgingReport(buckets, asOf, w)
	}
}

func consoleMatchReport(run *matcher.MatchRun, w io.Writer) error {
	s := run.Summary

	fmt.Fprintf(w, "RECONCILIATION REPORT\n\n")

	fmt.Fprintf(w, "=== SUMMARY ===\n")
	fmt.Fprintf(w, "%-26s %d\n", "Bank transactions:", s.TotalTransactions)
	fmt.Fprintf(w, "%-26s %d\n", "Receipts:", s.TotalReceipts)
	fmt.Fprintf(w, "%-26s %d\n", "Matched pairs:", s.MatchedPairs)
	fmt.Fprintf(w, "%-26s %d\n", "Unmatched transactions:", s.UnmatchedTransactions)
	fmt.Fprintf(w, "%-26s %d\n", "Unmatched receipts:", s.UnmatchedReceipts)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "=== CONFIDENCE BREAKDOWN ===\n")
	fmt.Fprintf(w, "%-26s %d\n", "Exact (gap <= 7 days):", s.ExactMatches)
	fmt.Fprintf(w, "%-26s %d\n", "Fuzzy (gap > 7 days):", s.FuzzyMatches)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "=== AMOUNTS ===\n")
	fmt.Fprintf(w, "%-26s $%s\n", "Matched total:", s.MatchedAmount.StringFixed(2))
	fmt.Fprintf(w, "%-26s $%s\n", "Unmatched total:", s.UnmatchedAmount.StringFixed(2))

	if len(run.UnmatchedTransactions) > 0 {
		fmt.Fprintf(w, "\n=== UNMATCHED TRANSACTIONS ===\n")
		for _, tx := range run.UnmatchedTransactions {
			fmt.Fprintf(w, "%s  %-8s $%10s  %s\n",
				tx.DateString(), tx.Type, tx.Amount.StringFixed(2), tx.Description)
		}
	}

	if len(run.UnmatchedReceipts) > 0 {
		fmt.Fprintf(w, "\n=== UNMATCHED RECEIPTS ===\n")
		for _, r := range run.UnmatchedReceipts {
			fmt.Fprintf(w, "%s  %-20s %-10s $%10s  %s\n",
				r.DateString(), r.Employee, r.Job, r.Amount.StringFixed(2), r.Description)
		}
	}

	return nil
}

func consoleAgingReport(buckets []*models.AgingBucket, asOf time.Time, w io.Writer) error {
	fmt.Fprintf(w, "AGING REPORT (as of %s)\n\n", asOf.UTC().Format(models.DateLayout))
	fmt.Fprintf(w, "%-12s %-12s %8s %14s\n", "Bucket", "Range", "Count", "Total")

	for _, bucket := range buckets {
		fmt.Fprintf(w, "%-12s %-12s %8d %14s\n",
			bucket.Label, bucket.Range, bucket.Count, "$"+bucket.TotalAmount.StringFixed(2))
	}

	return nil
}

// matchReportDoc shapes a MatchRun for JSON output
func matchReportDoc(run *matcher.MatchRun) map[string]interface{} {
	return map[string]interface{}{
		"summary": map[string]interface{}{
			"totalTransactions":     run.Summary.TotalTransactions,
			"totalReceipts":         run.Summary.TotalReceipts,
			"matchedPairs":          run.Summary.MatchedPairs,
			"unmatchedTransactions": run.Summary.UnmatchedTransactions,
			"unmatchedReceipts":     run.Summary.UnmatchedReceipts,
			"exactMatches":          run.Summary.ExactMatches,
			"fuzzyMatches":          run.Summary.FuzzyMatches,
			"matchedAmount":         run.Summary.MatchedAmount.StringFixed(2),
			"unmatchedAmount":       run.Summary.UnmatchedAmount.StringFixed(2),
		},
		"matches":               run.Matches,
		"unmatchedTransactions": run.UnmatchedTransactions,
		"unmatchedReceipts":     run.UnmatchedReceipts,
	}
}

// agingReportDoc shapes aging buckets for JSON output
func agingReportDoc(buckets []*models.AgingBucket, asOf time.Time) map[string]interface{} {
	return map[string]interface{}{
		"asOf":    asOf.UTC().Format(models.DateLayout),
		"buckets": buckets,
	}
}

func writeJSON(w io.Writer, doc interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
