package companies

import (
	"context"
	"fmt"
	"time"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

// Service manages the companies owned by a user.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the clock used for invoice numbering.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, userID int64) ([]Company, error) {
	return s.repo.List(ctx, userID)
}

// Get returns a company owned by userID; other users' companies are reported
// as not found.
func (s *Service) Get(ctx context.Context, userID, id int64) (Company, error) {
	if id <= 0 {
		return Company{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, userID, id)
}

// Create stores a new company. Flagging it default clears the flag on the
// user's other companies first, in the same transaction, because the
// one-default index is checked per statement.
func (s *Service) Create(ctx context.Context, userID int64, c Company) (Company, error) {
	c = normalize(c)
	c.UserID = userID
	if err := s.validate(c); err != nil {
		return Company{}, err
	}
	var created Company
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if c.IsDefault {
			if err := tx.ClearDefault(ctx, userID, 0); err != nil {
				return fmt.Errorf("companies: clear default: %w", err)
			}
		}
		var err error
		created, err = tx.Insert(ctx, c)
		if err != nil {
			return fmt.Errorf("companies: insert: %w", err)
		}
		return nil
	})
	return created, err
}

func (s *Service) Update(ctx context.Context, userID, id int64, c Company) (Company, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return Company{}, err
	}
	c = normalize(c)
	c.ID = existing.ID
	c.UserID = userID
	c.StampPath = existing.StampPath
	if err := s.validate(c); err != nil {
		return Company{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if c.IsDefault {
			if err := tx.ClearDefault(ctx, userID, c.ID); err != nil {
				return fmt.Errorf("companies: clear default: %w", err)
			}
		}
		return tx.Update(ctx, c)
	})
	if err != nil {
		return Company{}, err
	}
	return s.repo.Get(ctx, userID, id)
}

// Delete refuses to remove a company that has invoices.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	n, err := s.repo.CountInvoices(ctx, id)
	if err != nil {
		return fmt.Errorf("companies: count invoices: %w", err)
	}
	if n > 0 {
		return &internalShared.ReferentialBlockError{Entity: "company", Name: c.Name, Dependent: "invoices", Count: n}
	}
	return s.repo.Delete(ctx, userID, id)
}

// Default returns the user's default company, falling back to the first
// active one.
func (s *Service) Default(ctx context.Context, userID int64) (Company, error) {
	return s.repo.FindDefault(ctx, userID)
}

// NextInvoiceNumber previews the number the next invoice of the company
// would receive this year. Allocation itself happens under a row lock when
// the invoice is created, so the preview can be overtaken.
func (s *Service) NextInvoiceNumber(ctx context.Context, userID, id int64) (string, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	year := s.now().Year()
	existing, err := s.repo.InvoiceNumbers(ctx, c.ID, SequencePrefix(c.InvoicePrefix, year))
	if err != nil {
		return "", err
	}
	return NextInvoiceNumber(c.InvoicePrefix, year, existing), nil
}

// SetStampPath records where the company stamp image is stored.
func (s *Service) SetStampPath(ctx context.Context, userID, id int64, path string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.SetStampPath(ctx, userID, id, path)
}
