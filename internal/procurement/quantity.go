package procurement

import "github.com/shopspring/decimal"

// InvoicedQuantity sums the usages of lineID. Usages of excludeInvoiceID are
// skipped so an invoice being edited does not count against itself; zero
// excludes nothing.
func InvoicedQuantity(lineID int64, usages []Usage, excludeInvoiceID int64) decimal.Decimal {
	total := decimal.Zero
	for _, u := range usages {
		if u.LineItemID != lineID {
			continue
		}
		if excludeInvoiceID != 0 && u.InvoiceID == excludeInvoiceID {
			continue
		}
		total = total.Add(u.Quantity)
	}
	return total
}

// AvailableQuantity is the ordered quantity minus what is already invoiced.
// It is not floored at zero, so an over-allocated line reads negative.
func AvailableQuantity(line LineItem, usages []Usage, excludeInvoiceID int64) decimal.Decimal {
	return line.Quantity.Sub(InvoicedQuantity(line.ID, usages, excludeInvoiceID))
}

// CheckAllocation verifies that requested more units fit on line given the
// quantity already invoiced elsewhere.
func CheckAllocation(line LineItem, invoiced, requested decimal.Decimal) error {
	available := line.Quantity.Sub(invoiced)
	if requested.GreaterThan(available) {
		return &OverAllocationError{
			LineID:        line.ID,
			SublineNumber: line.SublineNumber,
			Description:   line.SublineDescription,
			Requested:     requested,
			Available:     available,
			Ordered:       line.Quantity,
			Invoiced:      invoiced,
		}
	}
	return nil
}

// Availability builds the read model for line.
func Availability(line LineItem, invoiced decimal.Decimal) LineAvailability {
	return LineAvailability{
		ID:                line.ID,
		SublineNumber:     line.SublineNumber,
		Description:       line.SublineDescription,
		Quantity:          line.Quantity,
		InvoicedQuantity:  invoiced,
		AvailableQuantity: line.Quantity.Sub(invoiced),
		Price:             line.Price,
		UOMCode:           line.UOMCode,
	}
}
