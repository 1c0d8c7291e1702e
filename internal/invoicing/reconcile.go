package invoicing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/procurement"
)

// checkAllocations verifies that items, the complete item set inv will hold
// after the write, stay within the quantities still available on their PO
// lines. The lines are locked first, in id order, so concurrent writers
// against the same line serialize. Quantities already invoiced by inv are
// excluded because items replaces them.
func checkAllocations(ctx context.Context, tx TxRepository, inv Invoice, items []Item) error {
	requested := map[int64]decimal.Decimal{}
	for _, it := range items {
		if it.POLineItemID == nil {
			continue
		}
		requested[*it.POLineItemID] = requested[*it.POLineItemID].Add(it.Quantity)
	}
	if len(requested) == 0 {
		return nil
	}
	if inv.POReferenceID == nil {
		return validationf("items reference purchase order lines but the invoice has no purchase order")
	}

	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines, err := tx.LockPOLines(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]procurement.LineItem, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}
	invoiced, err := tx.InvoicedQuantities(ctx, ids, inv.ID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		line, ok := byID[id]
		if !ok {
			return validationf("purchase order line %d not found", id)
		}
		if line.PurchaseOrderID != *inv.POReferenceID {
			return fmt.Errorf("%w: line %d", ErrLineNotOnPO, id)
		}
		if err := procurement.CheckAllocation(line, invoiced[id], requested[id]); err != nil {
			return err
		}
	}
	return nil
}
