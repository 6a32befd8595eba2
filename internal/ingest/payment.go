package ingest

import "strings"

var paymentLabels = struct {
	soNumber  []string
	method    []string
	amount    []string
	date      []string
	reference []string
}{
	soNumber:  []string{"SO Number", "SO No", "Order Number", "Order No", "Receipt No"},
	method:    []string{"Payment Method", "Payment Type", "Method", "Mode of Payment"},
	amount:    []string{"Payment Amount", "Amount Paid", "Amount", "Paid"},
	date:      []string{"Payment Date", "Date", "Paid Date"},
	reference: []string{"Reference No", "Reference", "Ref No", "Cheque No", "Card No"},
}

// CleanPayments normalizes payment rows against the transaction identifier
// map. Payments are a dependent tier: a row whose order number does not
// resolve is dropped and counted, never partially inserted.
func CleanPayments(rows []RawRow, transactions IdentifierMap) ([]Payment, RejectStats) {
	records := make([]Payment, 0, len(rows))
	rejects := make(RejectStats)

	for _, row := range rows {
		so := pick(row, paymentLabels.soNumber...)
		if so == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		transactionID, ok := transactions[so]
		if !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		records = append(records, Payment{
			TransactionID: transactionID,
			Method:        strings.TrimSpace(pick(row, paymentLabels.method...)),
			Amount:        ParseMoney(pick(row, paymentLabels.amount...)),
			Date:          ParseDate(pick(row, paymentLabels.date...)),
			ReferenceNo:   strings.TrimSpace(pick(row, paymentLabels.reference...)),
		})
	}

	return records, rejects
}
