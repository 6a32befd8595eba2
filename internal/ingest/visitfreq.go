package ingest

import (
	"strconv"
	"strings"
	"time"
)

// Segmentation thresholds. Tunable package variables rather than
// constants so deployments with different retention economics can adjust
// them without a rebuild of the cleaning rules.
var (
	// VIPSpendThreshold is the lifetime spend above which a customer is VIP.
	VIPSpendThreshold = 5000.0

	// ActiveWindowDays is the recency window for an "active" customer.
	ActiveWindowDays = 90

	// DormantAfterDays is the recency beyond which a customer is dormant;
	// between the active window and this bound the customer is at risk.
	DormantAfterDays = 180
)

var visitLabels = struct {
	membership []string
	totalSpend []string
	lastVisit  []string
}{
	membership: []string{"Membership Number", "Membership No", "Member No", "Member ID"},
	totalSpend: []string{"Total Spend", "Total Spent", "Total Amount", "Lifetime Spend"},
	lastVisit:  []string{"Last Visit", "Last Visit Date", "Last Purchase"},
}

// Candidate labels for the twelve monthly counters, index 0 = January.
var monthLabels = [12][]string{
	{"Jan", "January"}, {"Feb", "February"}, {"Mar", "March"},
	{"Apr", "April"}, {"May"}, {"Jun", "June"},
	{"Jul", "July"}, {"Aug", "August"}, {"Sep", "Sept", "September"},
	{"Oct", "October"}, {"Nov", "November"}, {"Dec", "December"},
}

// CleanVisitFrequencies normalizes visit-frequency rows against the
// customer identifier map and derives the segmentation flags. The total
// visit count falls back to the sum of the monthly counters when the
// export omits a total column.
func CleanVisitFrequencies(rows []RawRow, customers IdentifierMap) ([]VisitFrequency, RejectStats) {
	return cleanVisitFrequenciesAt(rows, customers, time.Now())
}

// cleanVisitFrequenciesAt is the clock-injected form used by tests.
func cleanVisitFrequenciesAt(rows []RawRow, customers IdentifierMap, now time.Time) ([]VisitFrequency, RejectStats) {
	records := make([]VisitFrequency, 0, len(rows))
	rejects := make(RejectStats)
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		membership := pick(row, visitLabels.membership...)
		if membership == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		if seen[membership] {
			rejects.add(RejectDuplicateKey)
			continue
		}
		seen[membership] = true
		customerID, ok := customers[membership]
		if !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		var monthly [12]int
		total := 0
		for i, labels := range monthLabels {
			monthly[i] = ParseQuantityZero(pick(row, labels...))
			total += monthly[i]
		}

		spend := ParseMoney(pick(row, visitLabels.totalSpend...))
		lastVisit := ParseDate(pick(row, visitLabels.lastVisit...))

		v := VisitFrequency{
			CustomerID:  customerID,
			Monthly:     monthly,
			TotalVisits: total,
			TotalSpend:  spend,
			LastVisit:   lastVisit,
			VIP:         spend >= VIPSpendThreshold,
		}
		v.Active, v.AtRisk, v.Dormant = recencyFlags(lastVisit, now)

		records = append(records, v)
	}

	return records, rejects
}

// recencyFlags buckets a last-visit date into exactly one recency segment.
// An unparseable or missing date counts as dormant.
func recencyFlags(lastVisit string, now time.Time) (active, atRisk, dormant bool) {
	if lastVisit == "" {
		return false, false, true
	}
	t, err := time.Parse(dateLayout, lastVisit)
	if err != nil {
		return false, false, true
	}

	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= ActiveWindowDays:
		return true, false, false
	case days <= DormantAfterDays:
		return false, true, false
	default:
		return false, false, true
	}
}

// ParseQuantityZero parses a counter cell, defaulting to 0 rather than
// the sales-quantity default of 1: a blank or garbled month means no visits.
func ParseQuantityZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}
