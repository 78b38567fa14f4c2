// Package models defines the canonical record types shared by the
// parsing, matching, and aging stages.
//
// All amounts are decimal.Decimal at cent precision and all dates are
// day-granular time.Time values; a record is never mutated after its
// parser creates it.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical date format used across the system.
const DateLayout = "2006-01-02"

// MaxDescriptionLength is the hard cap applied to record descriptions.
const MaxDescriptionLength = 150

// TransactionType classifies a bank transaction by money direction.
type TransactionType string

const (
	// TransactionTypeDebit marks money leaving the account.
	TransactionTypeDebit TransactionType = "debit"
	// TransactionTypeCredit marks money entering the account.
	TransactionTypeCredit TransactionType = "credit"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDebit || t == TransactionTypeCredit
}

// MatchConfidence classifies a match by the date proximity of its pair.
// It says nothing about amount certainty; amounts always match exactly.
type MatchConfidence string

const (
	// ConfidenceExact means the paired dates are at most 7 days apart.
	ConfidenceExact MatchConfidence = "exact"
	// ConfidenceFuzzy means the paired dates are more than 7 days apart.
	ConfidenceFuzzy MatchConfidence = "fuzzy"
)

// String returns the string representation of MatchConfidence
func (c MatchConfidence) String() string {
	return string(c)
}

// IsValid checks if the confidence value is valid
func (c MatchConfidence) IsValid() bool {
	return c == ConfidenceExact || c == ConfidenceFuzzy
}

// BankTransaction is a normalized bank statement line.
type BankTransaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	RawText     string          `json:"rawText,omitempty"`
}

// NewBankTransaction creates a new BankTransaction, truncating the
// description to the canonical limit.
func NewBankTransaction(id string, date time.Time, description string, amount decimal.Decimal, txType TransactionType) *BankTransaction {
	return &BankTransaction{
		ID:          id,
		Date:        date,
		Description: TruncateDescription(description),
		Amount:      amount,
		Type:        txType,
	}
}

// Validate performs basic validation on the BankTransaction
func (bt *BankTransaction) Validate() error {
	if strings.TrimSpace(bt.ID) == "" {
		return fmt.Errorf("bank transaction ID cannot be empty")
	}

	if bt.Date.IsZero() {
		return fmt.Errorf("bank transaction date cannot be zero")
	}

	if bt.Amount.IsNegative() {
		return fmt.Errorf("bank transaction amount cannot be negative")
	}

	if !bt.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", bt.Type)
	}

	if utf8.RuneCountInString(bt.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}

	return nil
}

// DateString returns the canonical YYYY-MM-DD form of the transaction date
func (bt *BankTransaction) DateString() string {
	return bt.Date.Format(DateLayout)
}

// IsDebit returns true if the transaction is a debit
func (bt *BankTransaction) IsDebit() bool {
	return bt.Type == TransactionTypeDebit
}

// IsCredit returns true if the transaction is a credit
func (bt *BankTransaction) IsCredit() bool {
	return bt.Type == TransactionTypeCredit
}

// String returns a string representation of the BankTransaction
func (bt *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, Date: %s, Amount: %s, Type: %s, Description: %s}",
		bt.ID, bt.DateString(), bt.Amount.String(), bt.Type, bt.Description)
}

// MarshalJSON implements custom JSON marshaling for BankTransaction
func (bt *BankTransaction) MarshalJSON() ([]byte, error) {
	type Alias BankTransaction
	return json.Marshal(&struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Date:   bt.Date.Format(DateLayout),
		Amount: bt.Amount.StringFixed(2),
		Alias:  (*Alias)(bt),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for BankTransaction
func (bt *BankTransaction) UnmarshalJSON(data []byte) error {
	type Alias BankTransaction
	aux := &struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(bt),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	bt.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	bt.Date, err = time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Receipt is a normalized third-party expense record.
type Receipt struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Employee    string          `json:"employee"`
	Job         string          `json:"job"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
}

// NewReceipt creates a new Receipt, applying the canonical employee,
// job, and description normalizations.
func NewReceipt(id string, date time.Time, employee, job string, amount decimal.Decimal, description string) *Receipt {
	return &Receipt{
		ID:          id,
		Date:        date,
		Employee:    TitleCase(employee),
		Job:         strings.ToUpper(job),
		Amount:      amount,
		Description: TruncateDescription(description),
	}
}

// Validate performs basic validation on the Receipt
func (r *Receipt) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("receipt ID cannot be empty")
	}

	if r.Date.IsZero() {
		return fmt.Errorf("receipt date cannot be zero")
	}

	if !r.Amount.IsPositive() {
		return fmt.Errorf("receipt amount must be positive, got %s", r.Amount.String())
	}

	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}

	return nil
}

// DateString returns the canonical YYYY-MM-DD form of the receipt date
func (r *Receipt) DateString() string {
	return r.Date.Format(DateLayout)
}

// String returns a string representation of the Receipt
func (r *Receipt) String() string {
	return fmt.Sprintf("Receipt{ID: %s, Date: %s, Employee: %s, Job: %s, Amount: %s}",
		r.ID, r.DateString(), r.Employee, r.Job, r.Amount.String())
}

// MarshalJSON implements custom JSON marshaling for Receipt
func (r *Receipt) MarshalJSON() ([]byte, error) {
	type Alias Receipt
	return json.Marshal(&struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Date:   r.Date.Format(DateLayout),
		Amount: r.Amount.StringFixed(2),
		Alias:  (*Alias)(r),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Receipt
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type Alias Receipt
	aux := &struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	r.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	r.Date, err = time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Match pairs one bank transaction with one receipt of identical
// amount. The match collection as a whole forms a partial injective
// mapping: each BankID and each ReceiptID appears in at most one Match.
type Match struct {
	ID             string          `json:"id"`
	BankID         string          `json:"bankId"`
	ReceiptID      string          `json:"receiptId"`
	Amount         decimal.Decimal `json:"amount"`
	MatchDate      time.Time       `json:"matchDate"`
	Confidence     MatchConfidence `json:"confidence"`
	DaysSinceMatch int             `json:"daysSinceMatch"`
}

// Validate performs basic validation on the Match
func (m *Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match ID cannot be empty")
	}

	if strings.TrimSpace(m.BankID) == "" {
		return fmt.Errorf("match bank ID cannot be empty")
	}

	if strings.TrimSpace(m.ReceiptID) == "" {
		return fmt.Errorf("match receipt ID cannot be empty")
	}

	if !m.Confidence.IsValid() {
		return fmt.Errorf("invalid match confidence: %s", m.Confidence)
	}

	if m.DaysSinceMatch < 0 {
		return fmt.Errorf("days since match cannot be negative, got %d", m.DaysSinceMatch)
	}

	return nil
}

// String returns a string representation of the Match
func (m *Match) String() string {
	return fmt.Sprintf("Match{ID: %s, BankID: %s, ReceiptID: %s, Amount: %s, Confidence: %s, Gap: %dd}",
		m.ID, m.BankID, m.ReceiptID, m.Amount.String(), m.Confidence, m.DaysSinceMatch)
}

// MarshalJSON implements custom JSON marshaling for Match
func (m *Match) MarshalJSON() ([]byte, error) {
	type Alias Match
	return json.Marshal(&struct {
		Amount    string `json:"amount"`
		MatchDate string `json:"matchDate"`
		*Alias
	}{
		Amount:    m.Amount.StringFixed(2),
		MatchDate: m.MatchDate.UTC().Format(time.RFC3339),
		Alias:     (*Alias)(m),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Match
func (m *Match) UnmarshalJSON(data []byte) error {
	type Alias Match
	aux := &struct {
		Amount    string `json:"amount"`
		MatchDate string `json:"matchDate"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	m.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	m.MatchDate, err = time.Parse(time.RFC3339, aux.MatchDate)
	if err != nil {
		return fmt.Errorf("invalid match date format: %w", err)
	}

	return nil
}

// AgingBucket aggregates the unmatched transactions whose age in days
// falls inside an inclusive [MinDays, MaxDays] range. The last bucket
// is unbounded above (MaxDays < 0).
type AgingBucket struct {
	Range        string             `json:"range"`
	Label        string             `json:"label"`
	MinDays      int                `json:"minDays"`
	MaxDays      int                `json:"maxDays"`
	Count        int                `json:"count"`
	TotalAmount  decimal.Decimal    `json:"totalAmount"`
	Transactions []*BankTransaction `json:"transactions"`
}

// Contains reports whether an age in whole days falls inside the bucket.
func (b *AgingBucket) Contains(ageDays int) bool {
	if ageDays < b.MinDays {
		return false
	}
	return b.MaxDays < 0 || ageDays <= b.MaxDays
}

// Utility functions shared by the parsers

// TruncateDescription trims a description and caps it at the canonical
// maximum length, cutting on a rune boundary so multibyte text stays
// valid UTF-8.
func TruncateDescription(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= MaxDescriptionLength {
		return s
	}

	runes := []rune(s)
	if len(runes) <= MaxDescriptionLength {
		return s
	}
	return string(runes[:MaxDescriptionLength])
}

// TitleCase upper-cases the first rune of every whitespace-separated
// word, lowering the rest ("jane doe" -> "Jane Doe").
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

// DayGap returns the absolute difference between two dates in whole
// days, comparing both at midnight UTC.
func DayGap(a, b time.Time) int {
	am := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bm := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := am.Sub(bm)
	if diff < 0 {
		diff = -diff
	}

	return int(diff / (24 * time.Hour))
}
