package ingest

import "testing"

func TestCleanTransactions(t *testing.T) {
	customers := IdentifierMap{"M001": "1", "M002": "2"}
	rows := []RawRow{
		rawRow(map[string]string{
			"SO Number":         "SO100",
			"Membership Number": "M001",
			"Transaction Date":  "15/03/2024",
			"Total Amount":      "RM 1,500.00",
			"Discount":          "100",
			"Tax":               "90",
			"Net Amount":        "1490",
			"Outstanding":       "500 (33%)",
			"Status":            "Completed",
		}),
	}

	records, rejects := CleanTransactions(rows, customers)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (rejects: %v)", len(records), rejects)
	}

	tx := records[0]
	if tx.SONumber != "SO100" || tx.CustomerID != "1" {
		t.Errorf("keys = (%q, %q), want (SO100, 1)", tx.SONumber, tx.CustomerID)
	}
	if tx.Date != "2024-03-15" {
		t.Errorf("date = %q, want 2024-03-15", tx.Date)
	}
	if tx.TotalAmount != 1500 || tx.NetAmount != 1490 {
		t.Errorf("amounts = (%v, %v), want (1500, 1490)", tx.TotalAmount, tx.NetAmount)
	}
	if tx.OutstandingAmount != 500 || tx.OutstandingPercent != 33 {
		t.Errorf("outstanding = (%v, %v), want (500, 33)", tx.OutstandingAmount, tx.OutstandingPercent)
	}
	if tx.Cancelled {
		t.Error("completed order marked cancelled")
	}
}

func TestCleanTransactionsUnresolvedReference(t *testing.T) {
	customers := IdentifierMap{"M001": "1"}
	rows := []RawRow{
		rawRow(map[string]string{"SO Number": "SO1", "Membership Number": "M999"}),
		rawRow(map[string]string{"SO Number": "SO2"}),
	}

	records, rejects := CleanTransactions(rows, customers)
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
	if rejects[RejectUnresolvedRef] != 2 {
		t.Errorf("unresolved rejects = %d, want 2", rejects[RejectUnresolvedRef])
	}
}

func TestCleanTransactionsDuplicateSONumber(t *testing.T) {
	customers := IdentifierMap{"M001": "1"}
	rows := []RawRow{
		rawRow(map[string]string{"SO Number": "SO1", "Membership Number": "M001", "Total Amount": "100"}),
		rawRow(map[string]string{"SO Number": "SO1", "Membership Number": "M001", "Total Amount": "200"}),
	}

	records, rejects := CleanTransactions(rows, customers)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].TotalAmount != 100 {
		t.Errorf("kept total = %v, want the first occurrence 100", records[0].TotalAmount)
	}
	if rejects[RejectDuplicateKey] != 1 {
		t.Errorf("duplicate rejects = %d, want 1", rejects[RejectDuplicateKey])
	}
}

func TestCleanTransactionsCancelledStatus(t *testing.T) {
	customers := IdentifierMap{"M001": "1"}
	for _, status := range []string{"Cancelled", "cancelled", "VOID", "Batal"} {
		rows := []RawRow{rawRow(map[string]string{
			"SO Number": "SO1", "Membership Number": "M001", "Status": status,
		})}
		records, _ := CleanTransactions(rows, customers)
		if len(records) != 1 || !records[0].Cancelled {
			t.Errorf("status %q not marked cancelled", status)
		}
	}
}

// ----------------------------------------------------------------------------
// Payment / Item / ServiceSale cleaners
// ----------------------------------------------------------------------------

func TestCleanPayments(t *testing.T) {
	transactions := IdentifierMap{"SO1": "10"}
	rows := []RawRow{
		rawRow(map[string]string{
			"SO Number":      "SO1",
			"Payment Method": "Credit Card",
			"Payment Amount": "RM 250.00",
			"Payment Date":   "01/04/2024",
		}),
		rawRow(map[string]string{"SO Number": "SO404", "Payment Amount": "10"}),
	}

	records, rejects := CleanPayments(rows, transactions)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].TransactionID != "10" || records[0].Amount != 250 {
		t.Errorf("payment = %+v", records[0])
	}
	if records[0].Date != "2024-04-01" {
		t.Errorf("date = %q, want 2024-04-01", records[0].Date)
	}
	if rejects[RejectUnresolvedRef] != 1 {
		t.Errorf("unresolved rejects = %d, want 1", rejects[RejectUnresolvedRef])
	}
}

func TestCleanItems(t *testing.T) {
	transactions := IdentifierMap{"SO1": "10"}
	rows := []RawRow{
		rawRow(map[string]string{
			"SO Number":  "SO1",
			"Item Name":  "Vitamin C Serum",
			"Quantity":   "2",
			"Unit Price": "80",
		}),
		rawRow(map[string]string{"SO Number": "SO1", "Item Name": "  "}),
	}

	records, rejects := CleanItems(rows, transactions)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	item := records[0]
	if item.Quantity != 2 || item.UnitPrice != 80 {
		t.Errorf("item = %+v", item)
	}
	// Line total falls back to qty * unit price when the export leaves it blank.
	if item.TotalPrice != 160 {
		t.Errorf("total = %v, want 160", item.TotalPrice)
	}
	if rejects[RejectMissingRequired] != 1 {
		t.Errorf("missing-required rejects = %d, want 1", rejects[RejectMissingRequired])
	}
}

func TestCleanServiceSales(t *testing.T) {
	transactions := IdentifierMap{"SO1": "10"}
	customers := IdentifierMap{"M001": "1"}
	rows := []RawRow{
		rawRow(map[string]string{
			"SO Number":         "SO1",
			"Membership Number": "M001",
			"Service Name":      "Facial Treatment",
			"Therapist":         "Aida",
			"Duration":          "90 minutes",
			"Amount":            "RM 350",
		}),
		rawRow(map[string]string{
			"SO Number":         "SO1",
			"Membership Number": "M999",
			"Service Name":      "Massage",
		}),
	}

	records, rejects := CleanServiceSales(rows, transactions, customers)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	sale := records[0]
	if sale.TransactionID != "10" || sale.CustomerID != "1" {
		t.Errorf("refs = (%q, %q), want (10, 1)", sale.TransactionID, sale.CustomerID)
	}
	if !sale.HasDuration || sale.DurationMinutes != 90 {
		t.Errorf("duration = (%v, %v), want (90, true)", sale.DurationMinutes, sale.HasDuration)
	}
	if sale.Quantity != 1 {
		t.Errorf("quantity = %d, want default 1", sale.Quantity)
	}
	if rejects[RejectUnresolvedRef] != 1 {
		t.Errorf("unresolved rejects = %d, want 1", rejects[RejectUnresolvedRef])
	}
}
