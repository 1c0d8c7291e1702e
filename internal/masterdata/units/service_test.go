package units

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

type memoryRepo struct {
	nextID int64
	units  map[int64]Unit
	refs   map[int64]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{units: map[int64]Unit{}, refs: map[int64]int{}}
}

func (m *memoryRepo) List(_ context.Context, _ internalShared.ListFilter) ([]Unit, int, error) {
	out := make([]Unit, 0, len(m.units))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.units[id]; ok {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return Unit{}, fmt.Errorf("unit %d: %w", id, shared.ErrNotFound)
	}
	return u, nil
}

func (m *memoryRepo) GetByName(_ context.Context, name string) (Unit, error) {
	for _, u := range m.units {
		if strings.EqualFold(u.Name, name) {
			return u, nil
		}
	}
	return Unit{}, shared.ErrNotFound
}

func (m *memoryRepo) Create(_ context.Context, unit Unit) (Unit, error) {
	for _, u := range m.units {
		if strings.EqualFold(u.Name, unit.Name) {
			return Unit{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	unit.ID = m.nextID
	m.units[unit.ID] = unit
	return unit, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, unit Unit) error {
	if _, ok := m.units[id]; !ok {
		return shared.ErrNotFound
	}
	unit.ID = id
	m.units[id] = unit
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	delete(m.units, id)
	return nil
}

func (m *memoryRepo) CountLineReferences(_ context.Context, id int64) (int, error) {
	return m.refs[id], nil
}

func TestServiceCreateNormalizesAndValidates(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.Create(ctx, Unit{Name: "  Hours ", Code: "hr", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "Hours", u.Name)
	assert.Equal(t, "HR", u.Code)

	_, err = svc.Create(ctx, Unit{Name: " "})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Unit{Name: "hours"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestServiceDeleteBlockedByLineReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Create(ctx, Unit{Name: "Days"})
	require.NoError(t, err)
	repo.refs[u.ID] = 3

	err = svc.Delete(ctx, u.ID)
	var block *internalShared.ReferentialBlockError
	require.ErrorAs(t, err, &block)
	assert.Equal(t, 3, block.Count)
	assert.ErrorIs(t, err, httpx.ErrConflict)

	repo.refs[u.ID] = 0
	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(Defaults), n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandlerCreateAndConflict(t *testing.T) {
	repo := newMemoryRepo()
	h := NewHandler(nil, NewService(repo))
	r := chi.NewRouter()
	r.Route("/uoms", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uoms", strings.NewReader(`{"name":"Lot","code":"lot"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"LOT"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uoms", strings.NewReader(`{"code":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	repo.refs[1] = 1
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/uoms/1", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dependent_count":1`)
}
