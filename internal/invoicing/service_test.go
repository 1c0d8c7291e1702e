package invoicing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/procurement"
	"github.com/invoicepro/invoicepro/internal/shared"
)

type memoryRepo struct {
	nextInvoice int64
	nextItem    int64
	invoices    map[int64]Invoice
	items       map[int64]Item
	lines       map[int64]procurement.LineItem
	owners      map[int64]int64 // company id -> user id
	collisions  int
	lockedLines [][]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: map[int64]Invoice{},
		items:    map[int64]Item{},
		lines:    map[int64]procurement.LineItem{},
		owners:   map[int64]int64{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	invoices := make(map[int64]Invoice, len(m.invoices))
	for k, v := range m.invoices {
		invoices[k] = v
	}
	items := make(map[int64]Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	if err := fn(ctx, m); err != nil {
		m.invoices, m.items = invoices, items
		return err
	}
	return nil
}

func (m *memoryRepo) visible(userID int64, inv Invoice) bool {
	if inv.CompanyID != nil {
		return m.owners[*inv.CompanyID] == userID
	}
	return inv.CreatedBy == userID
}

func (m *memoryRepo) Get(ctx context.Context, userID, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || !m.visible(userID, inv) {
		return Invoice{}, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	inv.Items, _ = m.Items(ctx, id)
	return inv, nil
}

func (m *memoryRepo) List(ctx context.Context, userID int64, filter ListFilter) ([]Invoice, int, error) {
	var out []Invoice
	for id := m.nextInvoice; id >= 1; id-- {
		inv, ok := m.invoices[id]
		if !ok || !m.visible(userID, inv) {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *memoryRepo) LockInvoice(ctx context.Context, userID, id int64) (Invoice, error) {
	return m.Get(ctx, userID, id)
}

func (m *memoryRepo) LockNumbering(context.Context, int64) error { return nil }

func (m *memoryRepo) InvoiceNumbers(_ context.Context, companyID int64, stem string) ([]string, error) {
	var out []string
	for _, inv := range m.invoices {
		if companyID != 0 && (inv.CompanyID == nil || *inv.CompanyID != companyID) {
			continue
		}
		if strings.HasPrefix(inv.InvoiceNumber, stem) {
			out = append(out, inv.InvoiceNumber)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertInvoice(_ context.Context, inv Invoice) (int64, error) {
	if m.collisions > 0 {
		m.collisions--
		return 0, fmt.Errorf("%q: %w", inv.InvoiceNumber, ErrNumberTaken)
	}
	for _, existing := range m.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return 0, fmt.Errorf("%q: %w", inv.InvoiceNumber, ErrNumberTaken)
		}
	}
	m.nextInvoice++
	inv.ID = m.nextInvoice
	inv.Items = nil
	m.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (m *memoryRepo) UpdateInvoice(_ context.Context, inv Invoice) error {
	inv.Items = nil
	m.invoices[inv.ID] = inv
	return nil
}

func (m *memoryRepo) DeleteInvoice(_ context.Context, id int64) error {
	delete(m.invoices, id)
	for itemID, it := range m.items {
		if it.InvoiceID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *memoryRepo) Items(_ context.Context, invoiceID int64) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) InsertItem(_ context.Context, it Item) (int64, error) {
	m.nextItem++
	it.ID = m.nextItem
	m.items[it.ID] = it
	return it.ID, nil
}

func (m *memoryRepo) UpdateItem(_ context.Context, it Item) error {
	m.items[it.ID] = it
	return nil
}

func (m *memoryRepo) DeleteItem(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) LockPOLines(_ context.Context, ids []int64) ([]procurement.LineItem, error) {
	m.lockedLines = append(m.lockedLines, append([]int64(nil), ids...))
	var out []procurement.LineItem
	for _, id := range ids {
		if l, ok := m.lines[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryRepo) InvoicedQuantities(_ context.Context, ids []int64, exclude int64) (map[int64]decimal.Decimal, error) {
	var usages []procurement.Usage
	for _, it := range m.items {
		if it.POLineItemID != nil {
			usages = append(usages, procurement.Usage{InvoiceID: it.InvoiceID, LineItemID: *it.POLineItemID, Quantity: it.Quantity})
		}
	}
	out := map[int64]decimal.Decimal{}
	for _, id := range ids {
		if q := procurement.InvoicedQuantity(id, usages, exclude); !q.IsZero() {
			out[id] = q
		}
	}
	return out, nil
}

type fakeCompanies map[int64]companies.Company

func (f fakeCompanies) Get(_ context.Context, userID, id int64) (companies.Company, error) {
	if c, ok := f[id]; ok && c.UserID == userID {
		return c, nil
	}
	return companies.Company{}, fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
}

type fakeClients map[int64]clients.Client

func (f fakeClients) Get(_ context.Context, id int64) (clients.Client, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return clients.Client{}, fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
}

type fakePOs struct {
	pos       map[int64]procurement.PurchaseOrder
	companies fakeCompanies
}

func (f fakePOs) Get(ctx context.Context, userID, id int64) (procurement.PurchaseOrder, error) {
	po, ok := f.pos[id]
	if !ok {
		return procurement.PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, httpx.ErrNotFound)
	}
	if _, err := f.companies.Get(ctx, userID, po.CompanyID); err != nil {
		return procurement.PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, httpx.ErrNotFound)
	}
	return po, nil
}

const (
	owner     int64 = 1
	stranger  int64 = 2
	companyID int64 = 10
	clientID  int64 = 100
	poID      int64 = 500
	otherPOID int64 = 501
	lineA     int64 = 900
	lineB     int64 = 901
	foreign   int64 = 950
)

var fixedNow = time.Date(2025, 1, 30, 9, 0, 0, 0, time.UTC)

func newService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	repo.owners[companyID] = owner
	repo.lines[lineA] = procurement.LineItem{ID: lineA, PurchaseOrderID: poID, SublineNumber: "1.1", SublineDescription: "Cabling", Quantity: dec("100"), Price: dec("10")}
	repo.lines[lineB] = procurement.LineItem{ID: lineB, PurchaseOrderID: poID, SublineNumber: "1.2", SublineDescription: "Switches", Quantity: dec("4"), Price: dec("2500")}
	repo.lines[foreign] = procurement.LineItem{ID: foreign, PurchaseOrderID: otherPOID, SublineNumber: "9.1", Quantity: dec("10"), Price: dec("1")}

	comps := fakeCompanies{companyID: {
		ID: companyID, UserID: owner, Name: "Acme Infra", GSTIN: "29ABCDE1234F1Z5",
		InvoicePrefix: "ACME-", DefaultDueDays: 30, DefaultTaxRate: dec("18"),
	}}
	pos := fakePOs{companies: comps, pos: map[int64]procurement.PurchaseOrder{
		poID:      {ID: poID, CompanyID: companyID, PONumber: "PO-7781"},
		otherPOID: {ID: otherPOID, CompanyID: companyID, PONumber: "PO-9000"},
	}}
	svc := NewService(repo, comps, fakeClients{clientID: {ID: clientID, Name: "Globex"}}, pos, nil).
		WithClock(func() time.Time { return fixedNow })
	return svc, repo
}

func ptr[T any](v T) *T { return &v }

func poInvoice(items ...ItemInput) CreateInput {
	return CreateInput{
		HeaderInput: HeaderInput{
			CompanyID:     ptr(companyID),
			ClientID:      clientID,
			POReferenceID: ptr(poID),
			InvoiceDate:   shared.NewDate(2025, time.January, 30),
		},
		Items: items,
	}
}

func lineItem(line int64, qty string) ItemInput {
	return ItemInput{POLineItemID: ptr(line), Description: "Cabling", Quantity: dec(qty), Rate: dec("10")}
}

func TestCreateComputesTotalsAndDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "100")))
	require.NoError(t, err)

	assert.Equal(t, "ACME-2025-001", inv.InvoiceNumber)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "PO-7781", inv.PONumber)
	assert.Equal(t, "29", inv.StateCode)
	assert.True(t, inv.CGSTRate.Equal(dec("9")))
	assert.True(t, inv.TaxRate.Equal(dec("18")))
	assert.Equal(t, "2025-03-01", inv.DueDate.String())
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Total.Equal(dec("1000")))
	assert.True(t, inv.Subtotal.Equal(dec("1000")))
	assert.True(t, inv.CGSTAmount.Equal(dec("90")))
	assert.True(t, inv.SGSTAmount.Equal(dec("90")))
	assert.True(t, inv.Total.Equal(dec("1180")))

	second, err := svc.Create(ctx, owner, poInvoice())
	require.NoError(t, err)
	assert.Equal(t, "ACME-2025-002", second.InvoiceNumber)
}

func TestCreateNumberSkipsMalformedNeighbours(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	repo.invoices[77] = Invoice{ID: 77, InvoiceNumber: "ACME-2025-abc", CompanyID: ptr(companyID)}
	repo.invoices[78] = Invoice{ID: 78, InvoiceNumber: "ACME-2025-007", CompanyID: ptr(companyID)}
	repo.invoices[79] = Invoice{ID: 79, InvoiceNumber: "ACME-2024-050", CompanyID: ptr(companyID)}
	repo.nextInvoice = 79

	inv, err := svc.Create(ctx, owner, poInvoice())
	require.NoError(t, err)
	assert.Equal(t, "ACME-2025-008", inv.InvoiceNumber)
}

func TestCreateWithoutCompanyUsesGlobalSequence(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, stranger, CreateInput{HeaderInput: HeaderInput{ClientID: clientID}})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-001", inv.InvoiceNumber)
	assert.Nil(t, inv.CompanyID)
	assert.True(t, inv.CGSTRate.Equal(DefaultCGSTRate))
	assert.Equal(t, fixedNow.Format(shared.DateLayout), inv.InvoiceDate.String())

	_, err = svc.Get(ctx, stranger, inv.ID)
	require.NoError(t, err, "creator sees company-less invoices")
	_, err = svc.Get(ctx, owner, inv.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateRetriesNumberCollision(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	repo.collisions = 2
	inv, err := svc.Create(ctx, owner, poInvoice())
	require.NoError(t, err)
	assert.Equal(t, "ACME-2025-001", inv.InvoiceNumber)

	repo.collisions = maxNumberAttempts
	_, err = svc.Create(ctx, owner, poInvoice())
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	explicit := poInvoice()
	explicit.InvoiceNumber = "ACME-2025-001"
	_, err = svc.Create(ctx, owner, explicit)
	assert.ErrorIs(t, err, ErrNumberTaken, "caller supplied numbers are not reassigned")
}

func TestCreateRejectsOverAllocation(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "60")))
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner, poInvoice(lineItem(lineA, "50")))
	var over *OverAllocationError
	require.ErrorAs(t, err, &over)
	assert.ErrorIs(t, err, ErrQuantityExceeded)
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Equal(t, lineA, over.LineID)
	assert.True(t, over.Requested.Equal(dec("50")))
	assert.True(t, over.Available.Equal(dec("40")))
	assert.True(t, over.Ordered.Equal(dec("100")))
	assert.True(t, over.Invoiced.Equal(dec("60")))
	assert.Len(t, repo.invoices, 1, "rejected invoice is not stored")

	_, err = svc.Create(ctx, owner, poInvoice(lineItem(lineA, "40")))
	require.NoError(t, err)
}

func TestCreateSumsItemsOnSameLine(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "60"), lineItem(lineA, "50")))
	require.ErrorIs(t, err, ErrQuantityExceeded)

	_, err = svc.Create(ctx, owner, poInvoice(lineItem(lineB, "1"), lineItem(lineA, "60"), lineItem(lineA, "40")))
	require.NoError(t, err)
	assert.Equal(t, []int64{lineA, lineB}, repo.lockedLines[len(repo.lockedLines)-1], "lines locked in id order")
}

func TestCreateRejectsForeignLine(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, poInvoice(lineItem(foreign, "1")))
	assert.ErrorIs(t, err, ErrLineNotOnPO)

	noPO := poInvoice(lineItem(lineA, "1"))
	noPO.POReferenceID = nil
	_, err = svc.Create(ctx, owner, noPO)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, owner, poInvoice(lineItem(12345, "1")))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	in := poInvoice()
	in.ClientID = 0
	_, err := svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	in = poInvoice()
	in.ClientID = 404
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	in = poInvoice(ItemInput{Description: "Negative", Quantity: dec("-1"), Rate: dec("1")})
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	in = poInvoice()
	in.CGSTRate = ptr(dec("101"))
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, stranger, poInvoice())
	assert.ErrorIs(t, err, httpx.ErrValidation, "company of another user")
}

func TestCreateRejectsSubCentPrecision(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "50.005"), lineItem(lineA, "49.995")))
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "quantity")
	assert.Empty(t, repo.items, "nothing written")

	_, err = svc.Create(ctx, owner, poInvoice(ItemInput{Description: "Survey", Quantity: dec("1"), Rate: dec("100.005")}))
	assert.ErrorIs(t, err, httpx.ErrValidation)

	for _, mutate := range []func(*CreateInput){
		func(in *CreateInput) { in.Discount = dec("0.001") },
		func(in *CreateInput) { in.CGSTRate = ptr(dec("9.125")) },
		func(in *CreateInput) { in.SGSTRate = ptr(dec("9.001")) },
	} {
		in := poInvoice()
		mutate(&in)
		_, err = svc.Create(ctx, owner, in)
		assert.ErrorIs(t, err, httpx.ErrValidation)
	}

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "50.50"), lineItem(lineA, "49.50")))
	require.NoError(t, err, "2dp quantities up to the ordered amount are fine")
	assert.True(t, inv.Subtotal.Equal(dec("1000")))
}

func TestUpdateKeepsStoredInvoiceDate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	in := poInvoice()
	in.InvoiceDate = shared.NewDate(2024, time.November, 1)
	inv, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	require.Equal(t, "2024-12-01", inv.DueDate.String())

	header := headerOf(inv)
	header.InvoiceDate = shared.Date{}
	header.Notes = "resent"
	updated, err := svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: header})
	require.NoError(t, err)
	assert.Equal(t, "2024-11-01", updated.InvoiceDate.String())
	assert.Equal(t, "2024-12-01", updated.DueDate.String())
	assert.Equal(t, "resent", updated.Notes)
}

func TestUpdateExcludesOwnItems(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "60")))
	require.NoError(t, err)

	items := []ItemInput{{ID: inv.Items[0].ID, POLineItemID: ptr(lineA), Description: "Cabling", Quantity: dec("100"), Rate: dec("10")}}
	updated, err := svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: headerOf(inv), Items: &items})
	require.NoError(t, err, "the invoice's own 60 do not count against it")
	assert.True(t, updated.Items[0].Quantity.Equal(dec("100")))
	assert.True(t, updated.Total.Equal(dec("1180")))

	items[0].Quantity = dec("101")
	_, err = svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: headerOf(inv), Items: &items})
	assert.ErrorIs(t, err, ErrQuantityExceeded)
}

func TestUpdateReplacesItemSet(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(
		ItemInput{Description: "Survey", Quantity: dec("1"), Rate: dec("500")},
		ItemInput{Description: "Travel", Quantity: dec("2"), Rate: dec("100")},
	))
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	keep, drop := inv.Items[0], inv.Items[1]

	items := []ItemInput{
		{ID: keep.ID, Description: "Survey", Quantity: dec("2"), Rate: dec("500")},
		{Description: "Design", Quantity: dec("1"), Rate: dec("250")},
	}
	header := headerOf(inv)
	header.Discount = dec("50")
	updated, err := svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: header, Items: &items})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.Equal(t, keep.ID, updated.Items[0].ID)
	assert.True(t, updated.Items[0].Total.Equal(dec("1000")))
	assert.Equal(t, "Design", updated.Items[1].Description)
	_, stillThere := repo.items[drop.ID]
	assert.False(t, stillThere)
	assert.True(t, updated.Subtotal.Equal(dec("1250")))
	assert.True(t, updated.CGSTAmount.Equal(dec("108")))
	assert.True(t, updated.Total.Equal(dec("1416")))

	bad := []ItemInput{{ID: 9999, Description: "x", Quantity: dec("1"), Rate: dec("1")}}
	_, err = svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: header, Items: &bad})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateHeaderOnlyKeepsItems(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "10")))
	require.NoError(t, err)

	header := headerOf(inv)
	header.SGSTRate = ptr(dec("0"))
	updated, err := svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: header})
	require.NoError(t, err)
	assert.Len(t, updated.Items, 1)
	assert.True(t, updated.TaxRate.Equal(dec("9")))
	assert.True(t, updated.Total.Equal(dec("109")))

	header.POReferenceID = ptr(otherPOID)
	_, err = svc.Update(ctx, owner, inv.ID, UpdateInput{HeaderInput: header})
	assert.ErrorIs(t, err, ErrLineNotOnPO, "existing items draw on the previous purchase order")
}

func TestItemOperationsRecomputeTotals(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "50")))
	require.NoError(t, err)

	added, err := svc.AddItem(ctx, owner, inv.ID, lineItem(lineA, "50"))
	require.NoError(t, err)
	assert.True(t, repo.invoices[inv.ID].Subtotal.Equal(dec("1000")))

	_, err = svc.AddItem(ctx, owner, inv.ID, lineItem(lineA, "1"))
	assert.ErrorIs(t, err, ErrQuantityExceeded, "line fully drawn by the invoice's own items")

	_, err = svc.UpdateItem(ctx, owner, inv.ID, added.ID, lineItem(lineA, "20"))
	require.NoError(t, err)
	assert.True(t, repo.invoices[inv.ID].Subtotal.Equal(dec("700")))
	assert.True(t, repo.invoices[inv.ID].Total.Equal(dec("826")))

	require.NoError(t, svc.DeleteItem(ctx, owner, inv.ID, added.ID))
	assert.True(t, repo.invoices[inv.ID].Subtotal.Equal(dec("500")))

	assert.ErrorIs(t, svc.DeleteItem(ctx, owner, inv.ID, added.ID), httpx.ErrNotFound)
	_, err = svc.UpdateItem(ctx, stranger, inv.ID, inv.Items[0].ID, lineItem(lineA, "1"))
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSetStatusIsManualOverride(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice())
	require.NoError(t, err)

	paid, err := svc.SetStatus(ctx, owner, inv.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	back, err := svc.SetStatus(ctx, owner, inv.ID, StatusPending)
	require.NoError(t, err, "manual override may leave PAID")
	assert.Equal(t, StatusPending, back.Status)

	_, err = svc.SetStatus(ctx, owner, inv.ID, Status("VOID"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteInvoice(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, owner, poInvoice(lineItem(lineA, "100")))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, inv.ID), httpx.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, owner, inv.ID))
	assert.Empty(t, repo.items)

	_, err = svc.Create(ctx, owner, poInvoice(lineItem(lineA, "100")))
	require.NoError(t, err, "deleted invoice released its quantity")
}

func headerOf(inv Invoice) HeaderInput {
	return HeaderInput{
		InvoiceNumber: inv.InvoiceNumber,
		CompanyID:     inv.CompanyID,
		ClientID:      inv.ClientID,
		POReferenceID: inv.POReferenceID,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       &inv.DueDate,
		Discount:      inv.Discount,
	}
}
