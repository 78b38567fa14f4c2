// Package normalize provides the pure value-normalization primitives
// shared by the bank statement and receipt parsers: heuristic date
// parsing, currency-notation stripping, and alias-driven field lookup
// over rows with unknown column names.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"expense-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	slashDateRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDateRe     = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	shortYearRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
	canonicalRe    = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	nonHeaderChars = regexp.MustCompile(`[^a-z0-9 ]`)
)

// Fallback formats tried when no explicit date rule matches. Mirrors
// the loose calendar parse that spreadsheet exports tend to need.
var genericDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// NormalizeDate parses a raw date string into a day-granular UTC time.
//
// Recognized forms, in order: canonical YYYY-MM-DD, M/D/YYYY, M-D-YYYY,
// and M/D/YY with a two-digit-year pivot (values below 50 become 20xx,
// the rest 19xx). Anything else falls through to a generic multi-format
// parse. Returns an error when no rule matches or the matched parts do
// not form a valid calendar date.
func NormalizeDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	if canonicalRe.MatchString(s) {
		return parseYMD(s, "-")
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[1], m[2])
	}

	if m := dashDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[1], m[2])
	}

	if m := shortYearRe.FindStringSubmatch(s); m != nil {
		yy, _ := strconv.Atoi(m[3])
		// Two-digit-year pivot: <50 -> 2000s, else 1900s. Known to be
		// ambiguous for mid-century dates; kept as observed behavior.
		year := 1900 + yy
		if yy < 50 {
			year = 2000 + yy
		}
		return buildDate(strconv.Itoa(year), m[1], m[2])
	}

	var lastErr error
	for _, format := range genericDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// parseYMD parses a YYYY-M-D string with the given separator, rejecting
// impossible dates such as 2024-02-30.
func parseYMD(s, sep string) (time.Time, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date '%s'", s)
	}
	return buildDate(parts[0], parts[1], parts[2])
}

// buildDate assembles a validated UTC date from string components.
func buildDate(yearStr, monthStr, dayStr string) (time.Time, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year '%s'", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month '%s'", monthStr)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day '%s'", dayStr)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month out of range: %d", month)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject that.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("invalid calendar date %d-%02d-%02d", year, month, day)
	}

	return t, nil
}

// CanonicalDate renders a parsed date in the canonical YYYY-MM-DD form.
func CanonicalDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ParseAmount parses a raw currency string into a signed decimal.
//
// Currency symbols and thousands separators are stripped, and a value
// wrapped in parentheses is treated as negative. Returns an error when
// the remainder is not numeric; callers that tolerate bad amounts treat
// the failure as zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", raw, err)
	}

	if negative {
		d = d.Neg()
	}

	return d, nil
}

// NormalizeAmount parses a raw currency string and returns its absolute
// magnitude at cent precision.
func NormalizeAmount(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs().Round(2), nil
}

// NormalizeHeader lowers a header cell and strips every character
// outside [a-z0-9 ], collapsing the result to single spaces.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonHeaderChars.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// ResolveField returns the first non-empty value found by trying each
// alias against a row keyed by normalized header names, then retrying
// each alias as a literal key. Returns "" when nothing matches.
func ResolveField(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := row[NormalizeHeader(alias)]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	for _, alias := range aliases {
		if v, ok := row[alias]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
