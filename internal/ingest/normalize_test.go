package ingest

import "testing"

// ----------------------------------------------------------------------------
// ParseMoney Tests
// ----------------------------------------------------------------------------

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain integer", input: "123", want: 123},
		{name: "plain decimal", input: "123.45", want: 123.45},
		{name: "ringgit prefix", input: "RM 1,500.00", want: 1500},
		{name: "lowercase ringgit", input: "rm250", want: 250},
		{name: "dollar sign", input: "$99.90", want: 99.9},
		{name: "thousands separators", input: "1,234,567.89", want: 1234567.89},
		{name: "accounting negative", input: "(123.45)", want: -123.45},
		{name: "accounting negative with currency", input: "(RM 1,000)", want: -1000},
		{name: "surrounding whitespace", input: "  42.50  ", want: 42.5},
		{name: "empty", input: "", want: 0},
		{name: "non-numeric residue", input: "N/A", want: 0},
		{name: "garbage inside parens", input: "(abc)", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMoney(tt.input); got != tt.want {
				t.Errorf("ParseMoney(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// Property from the cleaning contract: for all "(n)" the result is -n.
func TestParseMoneyParenthesesNegate(t *testing.T) {
	values := []string{"1", "10.5", "999", "1234.56", "0.01"}
	for _, v := range values {
		plain := ParseMoney(v)
		wrapped := ParseMoney("(" + v + ")")
		if wrapped != -plain {
			t.Errorf("ParseMoney(%q) = %v, want %v", "("+v+")", wrapped, -plain)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "slash day first", input: "15/03/2024", want: "2024-03-15"},
		{name: "dash day first", input: "15-03-2024", want: "2024-03-15"},
		{name: "iso", input: "2024-03-15", want: "2024-03-15"},
		{name: "single digit day and month", input: "5/3/2024", want: "2024-03-05"},
		{name: "ambiguous resolved day first", input: "01/02/2024", want: "2024-02-01"},
		{name: "spreadsheet serial", input: "45366", want: "2024-03-15"},
		{name: "serial with time fraction", input: "45366.75", want: "2024-03-15"},
		{name: "textual month fallback", input: "15 Mar 2024", want: "2024-03-15"},
		{name: "compact digits beyond serial window", input: "20240101", want: "2024-01-01"},
		{name: "numeric but neither serial nor date", input: "999999", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "garbage", input: "not a date", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.input); got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// The three supported string shapes must agree on the canonical value.
func TestParseDateShapesAgree(t *testing.T) {
	shapes := []string{"07/08/2023", "07-08-2023", "2023-08-07"}
	for _, s := range shapes {
		if got := ParseDate(s); got != "2023-08-07" {
			t.Errorf("ParseDate(%q) = %q, want 2023-08-07", s, got)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseClock Tests
// ----------------------------------------------------------------------------

func TestParseClock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "hours and minutes", input: "14:30", want: "14:30:00"},
		{name: "full clock", input: "09:15:42", want: "09:15:42"},
		{name: "noon fraction", input: "0.5", want: "12:00:00"},
		{name: "quarter day fraction", input: "0.25", want: "06:00:00"},
		{name: "out of range hour", input: "25:00", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "garbage", input: "morning", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseClock(tt.input); got != tt.want {
				t.Errorf("ParseClock(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParsePhone Tests
// ----------------------------------------------------------------------------

func TestParsePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mobile with separators", input: "012-345 6789", want: "0123456789"},
		{name: "mobile eleven digits", input: "011-2345 6789", want: "01123456789"},
		{name: "plus country code", input: "+60 12-345 6789", want: "0123456789"},
		{name: "bare country code", input: "60123456789", want: "0123456789"},
		{name: "international call prefix", input: "0060123456789", want: "0123456789"},
		{name: "landline kl", input: "03-1234 5678", want: "0312345678"},
		{name: "landline nine digits", input: "04-123 4567", want: "041234567"},
		{name: "plausible but outside envelope", input: "0123456789012", want: ""},
		{name: "no leading zero", input: "12345678", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePhone(tt.input); got != tt.want {
				t.Errorf("ParsePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParsePercent / ParseOutstanding Tests
// ----------------------------------------------------------------------------

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "bare number", input: "6", want: 6},
		{name: "trailing percent", input: "6%", want: 6},
		{name: "rate name prefix", input: "SST 6%", want: 6},
		{name: "decimal rate", input: "7.5 %", want: 7.5},
		{name: "empty", input: "", want: 0},
		{name: "no number", input: "exempt", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePercent(tt.input); got != tt.want {
				t.Errorf("ParsePercent(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseOutstanding(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantAmount  float64
		wantPercent float64
	}{
		{name: "amount with percentage", input: "150.00 (25%)", wantAmount: 150, wantPercent: 25},
		{name: "currency amount with percentage", input: "RM 1,200.50 (10.5%)", wantAmount: 1200.5, wantPercent: 10.5},
		{name: "amount only", input: "300", wantAmount: 300, wantPercent: 0},
		{name: "empty", input: "", wantAmount: 0, wantPercent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, percent := ParseOutstanding(tt.input)
			if amount != tt.wantAmount || percent != tt.wantPercent {
				t.Errorf("ParseOutstanding(%q) = (%v, %v), want (%v, %v)",
					tt.input, amount, percent, tt.wantAmount, tt.wantPercent)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseQuantity / ParseDurationMinutes Tests
// ----------------------------------------------------------------------------

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "integer", input: "3", want: 3},
		{name: "float truncates", input: "2.0", want: 2},
		{name: "empty defaults to one", input: "", want: 1},
		{name: "garbage defaults to one", input: "two", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuantity(tt.input); got != tt.want {
				t.Errorf("ParseQuantity(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "bare number", input: "60", want: 60, wantOK: true},
		{name: "minutes suffix", input: "90 minutes", want: 90, wantOK: true},
		{name: "mins suffix", input: "45 mins", want: 45, wantOK: true},
		{name: "hours suffix", input: "2 hours", want: 2, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "unit only", input: "minutes", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotOK := ParseDurationMinutes(tt.input)
			if gotOK != tt.wantOK || (gotOK && got != tt.want) {
				t.Errorf("ParseDurationMinutes(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, gotOK, tt.want, tt.wantOK)
			}
		})
	}
}
