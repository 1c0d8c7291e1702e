package procurement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the purchase order or line does not exist for the caller.
	ErrNotFound = fmt.Errorf("procurement: %w", httpx.ErrNotFound)
	// ErrValidation wraps input problems.
	ErrValidation = fmt.Errorf("procurement: %w", httpx.ErrValidation)
	// ErrDuplicate is returned when the PO number already exists for the company.
	ErrDuplicate = fmt.Errorf("procurement: po number %w", httpx.ErrDuplicate)
	// ErrQuantityExceeded is matched by every OverAllocationError.
	ErrQuantityExceeded = errors.New("quantity exceeds available purchase order quantity")
)

// OverAllocationError reports a write that would invoice more of a PO line
// than was ordered.
type OverAllocationError struct {
	LineID        int64
	SublineNumber string
	Description   string
	Requested     decimal.Decimal
	Available     decimal.Decimal
	Ordered       decimal.Decimal
	Invoiced      decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("quantity (%s) for %q exceeds available PO quantity (%s): ordered %s, already invoiced %s",
		e.Requested, e.Description, e.Available, e.Ordered, e.Invoiced)
}

// Is matches ErrQuantityExceeded and httpx.ErrValidation.
func (e *OverAllocationError) Is(target error) bool {
	return target == ErrQuantityExceeded || target == httpx.ErrValidation
}

// ProblemExtensions exposes the quantity figures to API clients.
func (e *OverAllocationError) ProblemExtensions() map[string]any {
	return map[string]any{
		"po_line_item_id": e.LineID,
		"subline_number":  e.SublineNumber,
		"requested":       e.Requested.String(),
		"available":       e.Available.String(),
		"ordered":         e.Ordered.String(),
		"invoiced":        e.Invoiced.String(),
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
