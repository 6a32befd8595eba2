package ingest

import "strings"

var itemLabels = struct {
	soNumber  []string
	itemName  []string
	category  []string
	quantity  []string
	unitPrice []string
	total     []string
}{
	soNumber:  []string{"SO Number", "SO No", "Order Number", "Order No", "Receipt No"},
	itemName:  []string{"Item Name", "Item", "Product Name", "Product", "Description"},
	category:  []string{"Category", "Item Category", "Product Category", "Group"},
	quantity:  []string{"Quantity", "Qty", "Unit"},
	unitPrice: []string{"Unit Price", "Price", "Selling Price"},
	total:     []string{"Total Price", "Total", "Amount", "Sub Total"},
}

// CleanItems normalizes item-sales rows against the transaction
// identifier map. An item needs a resolvable order number and a non-blank
// item name; quantity defaults to 1 and the line total falls back to
// quantity times unit price when the export leaves it blank.
func CleanItems(rows []RawRow, transactions IdentifierMap) ([]SaleItem, RejectStats) {
	records := make([]SaleItem, 0, len(rows))
	rejects := make(RejectStats)

	for _, row := range rows {
		so := pick(row, itemLabels.soNumber...)
		if so == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		transactionID, ok := transactions[so]
		if !ok {
			rejects.add(RejectUnresolvedRef)
			continue
		}

		name := strings.TrimSpace(pick(row, itemLabels.itemName...))
		if name == "" {
			rejects.add(RejectMissingRequired)
			continue
		}

		qty := ParseQuantity(pick(row, itemLabels.quantity...))
		unitPrice := ParseMoney(pick(row, itemLabels.unitPrice...))
		total := ParseMoney(pick(row, itemLabels.total...))
		if total == 0 && unitPrice != 0 {
			total = unitPrice * float64(qty)
		}

		records = append(records, SaleItem{
			TransactionID: transactionID,
			ItemName:      name,
			Category:      strings.TrimSpace(pick(row, itemLabels.category...)),
			Quantity:      qty,
			UnitPrice:     unitPrice,
			TotalPrice:    total,
		})
	}

	return records, rejects
}
