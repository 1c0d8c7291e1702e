package shared

import (
	"fmt"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
)

var (
	ErrNotFound      = httpx.ErrNotFound
	ErrDuplicate     = httpx.ErrDuplicate
	ErrValidation    = httpx.ErrValidation
	ErrInvalidID     = fmt.Errorf("%w: invalid ID", httpx.ErrValidation)
	ErrRequiredField = fmt.Errorf("%w: field is required", httpx.ErrValidation)
)
