package ingest

import "strings"

var serviceLabels = struct {
	soNumber   []string
	membership []string
	service    []string
	staff      []string
	duration   []string
	quantity   []string
	amount     []string
	date       []string
}{
	soNumber:   []string{"SO Number", "SO No", "Order Number", "Order No", "Receipt No"},
	membership: []string{"Membership Number", "Membership No", "Member No", "Member ID"},
	service:    []string{"Service Name", "Service", "Treatment", "Treatment Name", "Description"},
	staff:      []string{"Therapist", "Staff Name", "Staff", "Served By", "Consultant"},
	duration:   []string{"Duration", "Treatment Duration", "Time"},
	quantity:   []string{"Quantity", "Qty", "Session"},
	amount:     []string{"Amount", "Price", "Total", "Total Price"},
	date:       []string{"Service Date", "Date", "Treatment Date"},
}

// CleanServiceSales normalizes service-sale rows. This tier needs both
// identifier maps: the order number resolves the owning transaction and
// the membership number resolves the customer directly, so per-customer
// treatment history never needs a join through transactions.
func CleanServiceSales(rows []RawRow, transactions, customers IdentifierMap) ([]ServiceSale, RejectStats) {
	records := make([]ServiceSale, 0, len(rows))
	rejects := make(RejectStats)

	for _, row := range rows {
		so := pick(row, serviceLabels.soNumber...)
		if so == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		transactionID, ok := transactions[so]
		if !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		membership := pick(row, serviceLabels.membership...)
		customerID, ok := customers[membership]
		if membership == "" || !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		service := strings.TrimSpace(pick(row, serviceLabels.service...))
		if service == "" {
			rejects.add(RejectMissingRequired)
			continue
		}

		duration, hasDuration := ParseDurationMinutes(pick(row, serviceLabels.duration...))

		records = append(records, ServiceSale{
			TransactionID:   transactionID,
			CustomerID:      customerID,
			ServiceName:     service,
			StaffName:       strings.TrimSpace(pick(row, serviceLabels.staff...)),
			DurationMinutes: duration,
			HasDuration:     hasDuration,
			Quantity:        ParseQuantity(pick(row, serviceLabels.quantity...)),
			Amount:          ParseMoney(pick(row, serviceLabels.amount...)),
			Date:            ParseDate(pick(row, serviceLabels.date...)),
		})
	}

	return records, rejects
}
