package ingest

import (
	"testing"
	"time"
)

func TestCleanVisitFrequencies(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	customers := IdentifierMap{"M001": "1", "M002": "2", "M003": "3", "M004": "4"}

	rows := []RawRow{
		// Active VIP: recent visit, heavy spend.
		rawRow(map[string]string{
			"Membership Number": "M001",
			"Jan":               "2", "Feb": "1", "Mar": "3",
			"Total Spend": "RM 8,000",
			"Last Visit":  "15/05/2024",
		}),
		// At risk: last visit 4 months back.
		rawRow(map[string]string{
			"Membership Number": "M002",
			"Total Spend":       "1200",
			"Last Visit":        "01/02/2024",
		}),
		// Dormant: last visit a year back.
		rawRow(map[string]string{
			"Membership Number": "M003",
			"Last Visit":        "01/06/2023",
		}),
		// No last-visit date at all counts as dormant.
		rawRow(map[string]string{"Membership Number": "M004"}),
		// Unresolvable membership.
		rawRow(map[string]string{"Membership Number": "M999"}),
	}

	records, rejects := cleanVisitFrequenciesAt(rows, customers, now)
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (rejects: %v)", len(records), rejects)
	}
	if rejects[RejectUnresolvedRef] != 1 {
		t.Errorf("unresolved rejects = %d, want 1", rejects[RejectUnresolvedRef])
	}

	vip := records[0]
	if vip.TotalVisits != 6 {
		t.Errorf("total visits = %d, want sum of monthly counters 6", vip.TotalVisits)
	}
	if vip.Monthly[0] != 2 || vip.Monthly[2] != 3 {
		t.Errorf("monthly counters = %v", vip.Monthly)
	}
	if !vip.VIP || !vip.Active || vip.AtRisk || vip.Dormant {
		t.Errorf("segment flags = %+v, want active VIP", vip)
	}

	atRisk := records[1]
	if atRisk.VIP || atRisk.Active || !atRisk.AtRisk || atRisk.Dormant {
		t.Errorf("segment flags = %+v, want at-risk", atRisk)
	}

	dormant := records[2]
	if dormant.Active || dormant.AtRisk || !dormant.Dormant {
		t.Errorf("segment flags = %+v, want dormant", dormant)
	}

	noDate := records[3]
	if !noDate.Dormant {
		t.Errorf("segment flags = %+v, want dormant when last visit unknown", noDate)
	}
}

// One visit-frequency row per customer: a repeated membership number keeps
// the first row, like the other tiers.
func TestCleanVisitFrequenciesDuplicateMembership(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	customers := IdentifierMap{"M001": "1"}

	rows := []RawRow{
		rawRow(map[string]string{"Membership Number": "M001", "Jan": "4"}),
		rawRow(map[string]string{"Membership Number": "M001", "Jan": "9"}),
	}

	records, rejects := cleanVisitFrequenciesAt(rows, customers, now)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Monthly[0] != 4 {
		t.Errorf("kept record Jan = %d, want the first row's 4", records[0].Monthly[0])
	}
	if rejects[RejectDuplicateKey] != 1 {
		t.Errorf("duplicate rejects = %d, want 1", rejects[RejectDuplicateKey])
	}
}

func TestParseQuantityZero(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"3", 3},
		{"2.0", 2},
		{"garbage", 0},
		{"-1", 0},
	}

	for _, tt := range tests {
		if got := ParseQuantityZero(tt.input); got != tt.want {
			t.Errorf("ParseQuantityZero(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestRecencyFlagsBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastVisit   string
		wantActive  bool
		wantAtRisk  bool
		wantDormant bool
	}{
		{name: "same day", lastVisit: "2024-06-01", wantActive: true},
		{name: "window edge", lastVisit: "2024-03-03", wantActive: true},
		{name: "just past window", lastVisit: "2024-03-02", wantAtRisk: true},
		{name: "dormant edge", lastVisit: "2023-12-04", wantAtRisk: true},
		{name: "past dormant edge", lastVisit: "2023-12-03", wantDormant: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, atRisk, dormant := recencyFlags(tt.lastVisit, now)
			if active != tt.wantActive || atRisk != tt.wantAtRisk || dormant != tt.wantDormant {
				t.Errorf("recencyFlags(%q) = (%v, %v, %v), want (%v, %v, %v)",
					tt.lastVisit, active, atRisk, dormant,
					tt.wantActive, tt.wantAtRisk, tt.wantDormant)
			}
		})
	}
}
