package ingest

var transactionLabels = struct {
	soNumber    []string
	membership  []string
	date        []string
	total       []string
	discount    []string
	tax         []string
	net         []string
	outstanding []string
	status      []string
}{
	soNumber:    []string{"SO Number", "SO No", "SO No.", "Order Number", "Order No", "Receipt No"},
	membership:  []string{"Membership Number", "Membership No", "Member No", "Member ID"},
	date:        []string{"Transaction Date", "Date", "SO Date", "Order Date"},
	total:       []string{"Total Amount", "Total", "Gross Amount", "Amount"},
	discount:    []string{"Discount", "Discount Amount", "Total Discount"},
	tax:         []string{"Tax", "Tax Amount", "SST", "GST"},
	net:         []string{"Net Amount", "Nett Amount", "Net Total", "Grand Total"},
	outstanding: []string{"Outstanding", "Outstanding Amount", "Balance"},
	status:      []string{"Status", "SO Status", "Order Status"},
}

// CleanTransactions normalizes sales-detail rows against the customer
// identifier map. A row drops when its order number is blank or repeated
// within the batch, or when its membership number has no entry in the map
// (the source exports carry no foreign keys, so an unresolvable natural
// key cannot be loaded at all).
func CleanTransactions(rows []RawRow, customers IdentifierMap) ([]Transaction, RejectStats) {
	records := make([]Transaction, 0, len(rows))
	rejects := make(RejectStats)
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		so := pick(row, transactionLabels.soNumber...)
		if so == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		if seen[so] {
			rejects.add(RejectDuplicateKey)
			continue
		}

		membership := pick(row, transactionLabels.membership...)
		customerID, ok := customers[membership]
		if membership == "" || !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		outstanding, outstandingPct := ParseOutstanding(pick(row, transactionLabels.outstanding...))
		total := ParseMoney(pick(row, transactionLabels.total...))
		discount := ParseMoney(pick(row, transactionLabels.discount...))
		tax := ParseMoney(pick(row, transactionLabels.tax...))
		net := ParseMoney(pick(row, transactionLabels.net...))
		if net == 0 && total != 0 {
			net = total - discount + tax
		}

		seen[so] = true
		records = append(records, Transaction{
			SONumber:           so,
			CustomerID:         customerID,
			Date:               ParseDate(pick(row, transactionLabels.date...)),
			TotalAmount:        total,
			DiscountAmount:     discount,
			TaxAmount:          tax,
			NetAmount:          net,
			OutstandingAmount:  outstanding,
			OutstandingPercent: outstandingPct,
			Cancelled:          isCancelled(pick(row, transactionLabels.status...)),
		})
	}

	return records, rejects
}

// isCancelled reports whether a status cell marks the order cancelled.
func isCancelled(status string) bool {
	switch normalizeLabel(status) {
	case "cancelled", "canceled", "void", "voided", "batal":
		return true
	}
	return false
}
