package clients

import (
	"context"
	"fmt"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters internalShared.ListFilter) ([]Client, int, error) {
	return s.repo.List(ctx, filters.Normalize())
}

func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Client) (Client, error) {
	c = normalize(c)
	if err := s.validate(c); err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c Client) (Client, error) {
	if id <= 0 {
		return Client{}, shared.ErrInvalidID
	}
	c = normalize(c)
	if err := s.validate(c); err != nil {
		return Client{}, err
	}
	if err := s.repo.Update(ctx, id, c); err != nil {
		return Client{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses to remove a client that still has invoices.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repo.CountInvoices(ctx, id)
	if err != nil {
		return fmt.Errorf("clients: count invoices: %w", err)
	}
	if n > 0 {
		return &internalShared.ReferentialBlockError{Entity: "client", Name: c.Name, Dependent: "invoices", Count: n}
	}
	return s.repo.Delete(ctx, id)
}
