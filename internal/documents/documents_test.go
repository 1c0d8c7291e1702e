package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
	"github.com/invoicepro/invoicepro/report"
)

const (
	owner     = int64(1)
	companyID = int64(10)
	clientID  = int64(100)
)

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInvoice() invoicing.Invoice {
	return invoicing.Invoice{
		ID:                  7,
		InvoiceNumber:       "ACME-2025-001",
		CompanyID:           ptr(companyID),
		ClientID:            clientID,
		PONumber:            "PO-77",
		PODate:              ptr(shared.NewDate(2025, 1, 5)),
		InvoiceDate:         shared.NewDate(2025, 1, 30),
		DueDate:             shared.NewDate(2025, 3, 1),
		CGSTRate:            dec("9"),
		SGSTRate:            dec("9"),
		Subtotal:            dec("1000"),
		CGSTAmount:          dec("90"),
		SGSTAmount:          dec("90"),
		TaxAmount:           dec("180"),
		Total:               dec("1180"),
		StateCode:           "27",
		ReverseChargeAmount: decimal.Zero,
		Status:              invoicing.StatusPending,
		Items: []invoicing.Item{
			{ID: 1, Description: "Site survey", SACCode: "998311", Quantity: dec("10"), Rate: dec("55.55"), Total: dec("555.50")},
			{ID: 2, Description: "Report <draft>", Quantity: dec("1"), Rate: dec("444.50"), Total: dec("444.50")},
		},
	}
}

func sampleCompany() companies.Company {
	return companies.Company{
		ID:      companyID,
		UserID:  owner,
		Name:    "Acme Services",
		GSTIN:   "27ABCDE1234F1Z5",
		PAN:     "ABCDE1234F",
		Address: "Plot 4, MIDC\nAndheri East, Mumbai",
	}
}

func sampleClient() clients.Client {
	return clients.Client{ID: clientID, Name: "Globex", GSTIN: "29XYZ", Address: "12 Residency Road, Bengaluru"}
}

func TestSplitAddress(t *testing.T) {
	assert.Equal(t, Address{Line1: "Plot 4, MIDC", Line2: "Andheri East, Mumbai", Place: "Mumbai"}, SplitAddress("Plot 4, MIDC\r\nAndheri East, Mumbai"))
	assert.Equal(t, Address{Line1: "Pune", Place: "Pune"}, SplitAddress("Pune"))
	assert.Equal(t, Address{}, SplitAddress("  "))
}

func TestBuildEWayBill(t *testing.T) {
	bill := BuildEWayBill(sampleInvoice(), sampleCompany(), sampleClient())
	assert.Equal(t, "1.0.0421", bill.Version)
	require.Len(t, bill.BillLists, 1)

	doc := bill.BillLists[0]
	assert.Equal(t, "O", doc.SupplyType)
	assert.Equal(t, "INV", doc.DocType)
	assert.Equal(t, "30/01/2025", doc.DocDate)
	assert.Equal(t, "Plot 4, MIDC", doc.FromAddr1)
	assert.Equal(t, "Andheri East, Mumbai", doc.FromAddr2)
	assert.Equal(t, "Mumbai", doc.FromPlace)
	assert.Equal(t, "27", doc.FromStateCode)
	assert.Equal(t, "29XYZ", doc.ToGSTIN)
	assert.Equal(t, "Bengaluru", doc.ToPlace)
	assert.Equal(t, "27", doc.ToStateCode)
	assert.Equal(t, 1180.0, doc.TotInvValue)
	assert.Equal(t, 90.0, doc.CGSTValue)
	assert.Zero(t, doc.IGSTValue)
	assert.Zero(t, doc.CessValue)

	require.Len(t, doc.ItemList, 2)
	first := doc.ItemList[0]
	assert.Equal(t, 1, first.ItemNo)
	assert.Equal(t, "998311", first.HSNCode)
	assert.Equal(t, 555.5, first.TaxableAmount)
	assert.Equal(t, 50.0, first.CGSTValue, "555.50 * 9% rounds to 50.00")
	assert.Equal(t, 50.0, first.SGSTValue)
	assert.Equal(t, 2, doc.ItemList[1].ItemNo)

	raw, err := json.Marshal(bill)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"totInvValue":1180`)
	assert.Contains(t, string(raw), `"billLists":[`)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{B: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestStampDataURIFitsImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamp.png")
	writePNG(t, path, 600, 300)

	uri, err := StampDataURI(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestRenderInvoiceHTML(t *testing.T) {
	html, err := RenderInvoiceHTML(InvoiceView{Invoice: sampleInvoice(), Company: sampleCompany(), Client: sampleClient()})
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "TAX INVOICE")
	assert.Contains(t, out, "ACME-2025-001")
	assert.Contains(t, out, "30/01/2025")
	assert.Contains(t, out, "05/01/2025")
	assert.Contains(t, out, "555.50")
	assert.Contains(t, out, "CGST (9.00%)")
	assert.Contains(t, out, "1180.00")
	assert.Contains(t, out, "Rupees One Thousand One Hundred Eighty Only")
	assert.Contains(t, out, "Report &lt;draft&gt;")
	assert.NotContains(t, out, "<img")
}

type fakeInvoices map[int64]invoicing.Invoice

func (f fakeInvoices) Get(_ context.Context, userID, id int64) (invoicing.Invoice, error) {
	inv, ok := f[id]
	if !ok || userID != owner {
		return invoicing.Invoice{}, invoicing.ErrNotFound
	}
	return inv, nil
}

type fakeCompanies struct {
	company companies.Company
	stamp   string
}

func (f *fakeCompanies) Get(_ context.Context, userID, id int64) (companies.Company, error) {
	if userID != owner || id != f.company.ID {
		return companies.Company{}, httpx.ErrNotFound
	}
	c := f.company
	c.StampPath = f.stamp
	return c, nil
}

func (f *fakeCompanies) SetStampPath(_ context.Context, _, _ int64, path string) error {
	f.stamp = path
	return nil
}

type fakeClients struct{}

func (fakeClients) Get(context.Context, int64) (clients.Client, error) { return sampleClient(), nil }

type fixture struct {
	router    chi.Router
	companies *fakeCompanies
	media     string
	renders   int
}

func newFixture(t *testing.T, gotenberg http.HandlerFunc) *fixture {
	t.Helper()
	fx := &fixture{companies: &fakeCompanies{company: sampleCompany()}, media: t.TempDir()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.renders++
		gotenberg(w, r)
	}))
	t.Cleanup(srv.Close)

	noCompany := sampleInvoice()
	noCompany.ID = 8
	noCompany.CompanyID = nil

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		fakeInvoices{7: sampleInvoice(), 8: noCompany},
		fx.companies,
		fakeClients{},
		report.NewClient(srv.URL),
		NewStampStore(fx.media),
		logger,
	)
	h := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithUser(req.Context(), owner)))
		})
	})
	r.Route("/invoices", h.MountInvoiceRoutes)
	r.Route("/companies", h.MountCompanyRoutes)
	fx.router = r
	return fx
}

func (fx *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func echoPDF(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)
	f, _, _ := r.FormFile("files")
	html, _ := io.ReadAll(f)
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(append([]byte("%PDF-"), html...))
}

func TestInvoicePDFEndpoint(t *testing.T) {
	fx := newFixture(t, echoPDF)

	rec := fx.do(httptest.NewRequest(http.MethodGet, "/invoices/7/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Invoice_ACME-2025-001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	assert.Contains(t, rec.Body.String(), "ACME-2025-001")
}

func TestInvoicePDFMissingStampIsSkipped(t *testing.T) {
	fx := newFixture(t, echoPDF)
	fx.companies.stamp = "company_stamps/gone.png"

	rec := fx.do(httptest.NewRequest(http.MethodGet, "/invoices/7/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<img")
}

func TestInvoicePDFRendererDown(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rec := fx.do(httptest.NewRequest(http.MethodGet, "/invoices/7/pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDocumentsRequireCompany(t *testing.T) {
	fx := newFixture(t, echoPDF)

	rec := fx.do(httptest.NewRequest(http.MethodGet, "/invoices/8/eway-bill", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = fx.do(httptest.NewRequest(http.MethodGet, "/invoices/8/pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fx.renders)

	rec = fx.do(httptest.NewRequest(http.MethodGet, "/invoices/99/pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEWayBillEndpoint(t *testing.T) {
	fx := newFixture(t, echoPDF)

	rec := fx.do(httptest.NewRequest(http.MethodGet, "/invoices/7/eway-bill", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="eway_bill_ACME-2025-001.json"`, rec.Header().Get("Content-Disposition"))

	var bill EWayBill
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bill))
	assert.Equal(t, "ACME-2025-001", bill.BillLists[0].DocNo)
}

func stampUpload(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("stamp", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/companies/10/stamp", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadStampThenPrint(t *testing.T) {
	fx := newFixture(t, echoPDF)
	src := filepath.Join(t.TempDir(), "seal.png")
	writePNG(t, src, 400, 400)
	content, err := os.ReadFile(src)
	require.NoError(t, err)

	rec := fx.do(stampUpload(t, "my seal!.png", content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, strings.HasPrefix(fx.companies.stamp, "company_stamps/"))
	assert.True(t, strings.HasSuffix(fx.companies.stamp, "-my_seal_.png"))
	_, err = os.Stat(filepath.Join(fx.media, filepath.FromSlash(fx.companies.stamp)))
	require.NoError(t, err)

	rec = fx.do(httptest.NewRequest(http.MethodGet, "/invoices/7/print", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="data:image/png;base64,`)
}

func TestUploadStampRejectsNonImage(t *testing.T) {
	fx := newFixture(t, echoPDF)

	rec := fx.do(stampUpload(t, "notes.txt", []byte("not an image")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fx.companies.stamp)
}
