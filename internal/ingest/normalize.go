package ingest

// normalize.go holds the field normalization library: total functions that
// turn raw cell text into typed domain values. Every function returns a
// zero/default value on unrecognized input, never an error, because each
// cell is independently messy and a bad cell must not sink the row.
//
// Locale notes that are deliberate and must not be "fixed":
//   - Ambiguous two-digit day/month ordering is day-first (Malaysian
//     convention), matching the source system's report templates.
//   - Currency is ringgit; "RM" prefixes appear alongside plain symbols.
//   - Phone numbers normalize to the local leading-zero form.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// serialEpoch is day zero for spreadsheet serial dates. Day 1 is
// 1900-01-01, with the off-by-two venerable Lotus leap-year bug included.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dayFirstLayouts are tried in order for string dates. ISO before the
// generic fallbacks so unambiguous input never hits a guess.
var dayFirstLayouts = []string{
	"2/1/2006", "02/01/2006",
	"2-1-2006", "02-01-2006",
	"2006-01-02",
	"2.1.2006", "02.01.2006",
	"2 Jan 2006", "2 January 2006", "Jan 2, 2006",
	"2006/01/02", "20060102",
}

var (
	trailingPercentRe = regexp.MustCompile(`([-+]?[0-9]*\.?[0-9]+)\s*%?\s*$`)
	amountWithPctRe   = regexp.MustCompile(`^(.*?)\s*\(([^)]*)\)\s*$`)
	phoneSeparatorRe  = regexp.MustCompile(`[\s\-\.\(\)/]`)
	durationUnitRe    = regexp.MustCompile(`(?i)\s*(minutes?|mins?|hours?|hrs?)\s*`)
)

// ParseMoney converts a currency cell to a float. Currency symbols,
// thousands separators and whitespace are stripped; a parenthesized value
// is accounting notation for a negative. Non-numeric residue yields 0.
func ParseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	upper := strings.ToUpper(s)
	upper = strings.TrimPrefix(upper, "RM")
	upper = strings.ReplaceAll(upper, "$", "")
	upper = strings.ReplaceAll(upper, ",", "")
	upper = strings.TrimSpace(upper)

	v, err := strconv.ParseFloat(upper, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -v
	}
	return v
}

// ParseDate converts a cell to canonical YYYY-MM-DD, or "" when the value
// is unrecognizable. Accepts spreadsheet serial numbers and the three
// string shapes the exports produce, then falls back to a layout sweep.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Spreadsheet serial date. The plausible window keeps 8-digit
	// compact dates (20240101) out of the serial path; numbers outside
	// the window fall through to the layout sweep.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 200000 {
		days := int(serial)
		return serialEpoch.AddDate(0, 0, days).Format(dateLayout)
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}

	return ""
}

// ParseClock converts a time cell to HH:MM:SS. Accepts HH:MM[:SS] text or
// a spreadsheet fraction-of-day number. Returns "" on unrecognized input.
func ParseClock(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if frac, err := strconv.ParseFloat(s, 64); err == nil {
		if frac < 0 || frac >= 2 {
			return ""
		}
		// A serial datetime carries the fraction in its decimal part.
		frac = frac - float64(int(frac))
		seconds := int(frac*86400 + 0.5)
		return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ""
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return ""
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 {
		return ""
	}
	sec := 0
	if len(nums) == 3 {
		if nums[2] > 59 {
			return ""
		}
		sec = nums[2]
	}
	return fmt.Sprintf("%02d:%02d:%02d", nums[0], nums[1], sec)
}

// ParsePhone normalizes a contact number to the local leading-zero form.
// Country-code prefixes (+60, 60, 00 60) collapse to "0". The result is
// kept when it fits the local mobile (10-11 digit) or landline (9-10
// digit) envelope; a leading-zero number of otherwise plausible length is
// kept too, anything else yields "".
func ParsePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	hadPlus := strings.HasPrefix(s, "+")
	digits := phoneSeparatorRe.ReplaceAllString(s, "")
	digits = strings.TrimPrefix(digits, "+")
	digits = keepDigits(digits)
	if digits == "" {
		return ""
	}

	switch {
	case hadPlus && strings.HasPrefix(digits, "60"):
		digits = "0" + digits[2:]
	case strings.HasPrefix(digits, "0060"):
		digits = "0" + digits[4:]
	case strings.HasPrefix(digits, "60") && len(digits) >= 11:
		digits = "0" + digits[2:]
	}

	n := len(digits)
	mobile := strings.HasPrefix(digits, "01") && (n == 10 || n == 11)
	landline := strings.HasPrefix(digits, "0") && (n == 9 || n == 10)
	if mobile || landline {
		return digits
	}
	if strings.HasPrefix(digits, "0") && n >= 8 && n <= 12 {
		return digits
	}
	return ""
}

// ParsePercent extracts the numeric rate from a percentage cell. Trailing
// "%" and any rate name prefixed to the number ("SST 6%") are stripped.
func ParsePercent(s string) float64 {
	m := trailingPercentRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseOutstanding splits a compound "<amount> (<percentage>%)" cell into
// its parts. Without a parenthesized part the whole cell parses as the
// amount and the percentage is 0.
func ParseOutstanding(s string) (amount, percent float64) {
	s = strings.TrimSpace(s)
	if m := amountWithPctRe.FindStringSubmatch(s); m != nil {
		return ParseMoney(m[1]), ParsePercent(m[2])
	}
	return ParseMoney(s), 0
}

// ParseQuantity parses an integer quantity, defaulting to 1.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 1
}

// ParseDurationMinutes parses a treatment duration, stripping unit words
// before the numeric parse. The second return is false when the cell has
// no usable number.
func ParseDurationMinutes(s string) (float64, bool) {
	s = durationUnitRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
