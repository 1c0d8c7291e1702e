// Package documents renders printable invoice artefacts: the tax invoice
// PDF and the GSTN e-way bill upload file.
package documents

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/report"
)

// ErrNoCompany is returned for invoices that are not issued by a company.
var ErrNoCompany = fmt.Errorf("%w: invoice has no company", httpx.ErrValidation)

// InvoicePort loads a visible invoice with its items.
type InvoicePort interface {
	Get(ctx context.Context, userID, id int64) (invoicing.Invoice, error)
}

// CompanyPort reads and updates companies owned by the caller.
type CompanyPort interface {
	Get(ctx context.Context, userID, id int64) (companies.Company, error)
	SetStampPath(ctx context.Context, userID, id int64, path string) error
}

// ClientPort reads clients.
type ClientPort interface {
	Get(ctx context.Context, id int64) (clients.Client, error)
}

// Renderer converts HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html []byte, page report.Page) ([]byte, error)
}

// Service assembles documents for an invoice.
type Service struct {
	invoices  InvoicePort
	companies CompanyPort
	clients   ClientPort
	renderer  Renderer
	stamps    *StampStore
	logger    *slog.Logger
}

// NewService wires the document service.
func NewService(invoices InvoicePort, companies CompanyPort, clients ClientPort, renderer Renderer, stamps *StampStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, companies: companies, clients: clients, renderer: renderer, stamps: stamps, logger: logger}
}

type bundle struct {
	invoice invoicing.Invoice
	company companies.Company
	client  clients.Client
}

func (s *Service) load(ctx context.Context, userID, id int64) (bundle, error) {
	inv, err := s.invoices.Get(ctx, userID, id)
	if err != nil {
		return bundle{}, err
	}
	if inv.CompanyID == nil {
		return bundle{}, ErrNoCompany
	}
	company, err := s.companies.Get(ctx, userID, *inv.CompanyID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return bundle{}, ErrNoCompany
		}
		return bundle{}, err
	}
	client, err := s.clients.Get(ctx, inv.ClientID)
	if err != nil {
		return bundle{}, fmt.Errorf("documents: load client: %w", err)
	}
	return bundle{invoice: inv, company: company, client: client}, nil
}

// EWayBill builds the e-way bill upload document for an invoice.
func (s *Service) EWayBill(ctx context.Context, userID, id int64) (EWayBill, string, error) {
	b, err := s.load(ctx, userID, id)
	if err != nil {
		return EWayBill{}, "", err
	}
	return BuildEWayBill(b.invoice, b.company, b.client), "eway_bill_" + b.invoice.InvoiceNumber + ".json", nil
}

// InvoiceHTML renders the printable tax invoice.
func (s *Service) InvoiceHTML(ctx context.Context, userID, id int64) ([]byte, string, error) {
	b, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	html, err := RenderInvoiceHTML(InvoiceView{
		Invoice: b.invoice,
		Company: b.company,
		Client:  b.client,
		Stamp:   s.stampFor(b.company),
	})
	if err != nil {
		return nil, "", err
	}
	return html, b.invoice.InvoiceNumber, nil
}

// InvoicePDF renders the tax invoice and converts it to PDF.
func (s *Service) InvoicePDF(ctx context.Context, userID, id int64) ([]byte, string, error) {
	html, number, err := s.InvoiceHTML(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html, report.A4)
	if err != nil {
		return nil, "", fmt.Errorf("documents: render pdf: %w", err)
	}
	return pdf, "Invoice_" + number + ".pdf", nil
}

// stampFor returns the inline stamp, or nothing when the file is missing or
// unreadable.
func (s *Service) stampFor(company companies.Company) template.URL {
	if company.StampPath == "" || s.stamps == nil {
		return ""
	}
	uri, err := StampDataURI(s.stamps.Path(company.StampPath))
	if err != nil {
		s.logger.Warn("skipping company stamp", slog.Int64("company_id", company.ID), slog.Any("error", err))
		return ""
	}
	return template.URL(uri)
}

// UploadStamp stores a new stamp image for a company.
func (s *Service) UploadStamp(ctx context.Context, userID, companyID int64, filename string, r io.Reader) (string, error) {
	if _, err := s.companies.Get(ctx, userID, companyID); err != nil {
		return "", err
	}
	rel, err := s.stamps.Save(filename, r)
	if err != nil {
		return "", err
	}
	if err := s.companies.SetStampPath(ctx, userID, companyID, rel); err != nil {
		return "", err
	}
	return rel, nil
}
