package units

import (
	"context"
	"errors"
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

func (s *Service) List(ctx context.Context, filters internalShared.ListFilter) ([]Unit, int, error) {
	return s.repo.List(ctx, filters.Normalize())
}

func (s *Service) Get(ctx context.Context, id int64) (Unit, error) {
	if id <= 0 {
		return Unit{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, unit Unit) (Unit, error) {
	unit = normalize(unit)
	if err := s.validate(unit); err != nil {
		return Unit{}, err
	}
	return s.repo.Create(ctx, unit)
}

func (s *Service) Update(ctx context.Context, id int64, unit Unit) (Unit, error) {
	if id <= 0 {
		return Unit{}, shared.ErrInvalidID
	}
	unit = normalize(unit)
	if err := s.validate(unit); err != nil {
		return Unit{}, err
	}
	if err := s.repo.Update(ctx, id, unit); err != nil {
		return Unit{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses to remove a unit still used by purchase order lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	unit, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountLineReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("units: count references: %w", err)
	}
	if refs > 0 {
		return &internalShared.ReferentialBlockError{Entity: "unit", Name: unit.Name, Dependent: "purchase order lines", Count: refs}
	}
	return s.repo.Delete(ctx, id)
}

// SeedDefaults creates any missing default unit and returns how many were added.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, def := range Defaults {
		_, err := s.repo.GetByName(ctx, def.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return created, err
		}
		def.IsActive = true
		if _, err := s.repo.Create(ctx, def); err != nil {
			return created, fmt.Errorf("units: seed %s: %w", def.Name, err)
		}
		created++
	}
	return created, nil
}
