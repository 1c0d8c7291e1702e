package invoicing

import (
	"fmt"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/procurement"
)

var (
	// ErrNotFound indicates the invoice or item does not exist for the caller.
	ErrNotFound = fmt.Errorf("invoicing: %w", httpx.ErrNotFound)
	// ErrValidation wraps invalid input.
	ErrValidation = fmt.Errorf("invoicing: %w", httpx.ErrValidation)
	// ErrNumberTaken is returned when the invoice number already exists.
	ErrNumberTaken = fmt.Errorf("invoicing: invoice number %w", httpx.ErrDuplicate)
	// ErrLineNotOnPO is returned when an item points at a line of another purchase order.
	ErrLineNotOnPO = fmt.Errorf("%w: purchase order line does not belong to the invoice's purchase order", ErrValidation)
	// ErrQuantityExceeded is matched by every OverAllocationError.
	ErrQuantityExceeded = procurement.ErrQuantityExceeded
)

// OverAllocationError reports an item write that would invoice more of a PO
// line than remains available.
type OverAllocationError = procurement.OverAllocationError

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
