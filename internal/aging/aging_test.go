package aging

import (
	"testing"
	"time"

	"expense-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

var reference = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func tx(id, day, amount string) *models.BankTransaction {
	d, err := time.Parse(models.DateLayout, day)
	if err != nil {
		panic(err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return &models.BankTransaction{
		ID:     id,
		Date:   d,
		Amount: a,
		Type:   models.TransactionTypeDebit,
	}
}

func findBucket(t *testing.T, buckets []*models.AgingBucket, label string) *models.AgingBucket {
	t.Helper()
	for _, b := range buckets {
		if b.Label == label {
			return b
		}
	}
	t.Fatalf("bucket %q not found", label)
	return nil
}

func TestAnalyzeEmptyInput(t *testing.T) {
	buckets := NewAnalyzerAt(reference).Analyze(nil)

	if len(buckets) != 5 {
		t.Fatalf("got %d buckets, want 5", len(buckets))
	}

	labels := []string{"Current", "Warning", "Attention", "Critical", "Overdue"}
	for i, label := range labels {
		if buckets[i].Label != label {
			t.Errorf("bucket %d label = %q, want %q", i, buckets[i].Label, label)
		}
		if buckets[i].Count != 0 {
			t.Errorf("bucket %q count = %d, want 0", label, buckets[i].Count)
		}
		if !buckets[i].TotalAmount.IsZero() {
			t.Errorf("bucket %q amount = %s, want 0", label, buckets[i].TotalAmount)
		}
	}

	if buckets[0].Range != "0-7 days" {
		t.Errorf("first range = %q, want %q", buckets[0].Range, "0-7 days")
	}
	if buckets[4].Range != "61+ days" {
		t.Errorf("last range = %q, want %q", buckets[4].Range, "61+ days")
	}
}

func TestAnalyzeBoundaries(t *testing.T) {
	// Reference clock is 2024-03-01; ages below are whole days.
	tests := []struct {
		name   string
		day    string
		bucket string
	}{
		{"same day", "2024-03-01", "Current"},
		{"seven days old", "2024-02-23", "Current"},
		{"eight days old", "2024-02-22", "Warning"},
		{"fourteen days old", "2024-02-16", "Warning"},
		{"fifteen days old", "2024-02-15", "Attention"},
		{"thirty days old", "2024-01-31", "Attention"},
		{"thirty one days old", "2024-01-30", "Critical"},
		{"sixty days old", "2024-01-01", "Critical"},
		{"sixty one days old", "2023-12-31", "Overdue"},
		{"a year old", "2023-03-01", "Overdue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := NewAnalyzerAt(reference).Analyze([]*models.BankTransaction{
				tx("tx-1", tt.day, "10.00"),
			})

			got := findBucket(t, buckets, tt.bucket)
			if got.Count != 1 {
				t.Errorf("bucket %q count = %d, want 1", tt.bucket, got.Count)
			}

			for _, b := range buckets {
				if b.Label != tt.bucket && b.Count != 0 {
					t.Errorf("transaction leaked into bucket %q", b.Label)
				}
			}
		})
	}
}

func TestAnalyzeFutureDatesClampToZero(t *testing.T) {
	buckets := NewAnalyzerAt(reference).Analyze([]*models.BankTransaction{
		tx("tx-1", "2024-03-15", "10.00"),
	})

	if findBucket(t, buckets, "Current").Count != 1 {
		t.Error("future-dated transaction should land in Current")
	}
}

func TestAnalyzeAggregation(t *testing.T) {
	buckets := NewAnalyzerAt(reference).Analyze([]*models.BankTransaction{
		tx("tx-1", "2024-02-28", "10.00"),
		tx("tx-2", "2024-02-27", "15.50"),
		tx("tx-3", "2024-02-20", "99.99"),
	})

	current := findBucket(t, buckets, "Current")
	if current.Count != 2 {
		t.Errorf("Current count = %d, want 2", current.Count)
	}
	if current.TotalAmount.StringFixed(2) != "25.50" {
		t.Errorf("Current amount = %s, want 25.50", current.TotalAmount.StringFixed(2))
	}
	if len(current.Transactions) != 2 {
		t.Errorf("Current holds %d transactions, want 2", len(current.Transactions))
	}

	warning := findBucket(t, buckets, "Warning")
	if warning.Count != 1 || warning.TotalAmount.StringFixed(2) != "99.99" {
		t.Errorf("Warning = %d / %s, want 1 / 99.99", warning.Count, warning.TotalAmount.StringFixed(2))
	}
}

func TestAnalyzeReferenceTimeOfDayIgnored(t *testing.T) {
	morning := time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	input := []*models.BankTransaction{tx("tx-1", "2024-02-22", "10.00")}

	a := findBucket(t, NewAnalyzerAt(morning).Analyze(input), "Warning")
	b := findBucket(t, NewAnalyzerAt(evening).Analyze(input), "Warning")

	if a.Count != 1 || b.Count != 1 {
		t.Error("bucket placement changed with reference time of day")
	}
}
