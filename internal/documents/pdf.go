package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

var invoiceTemplate = template.Must(template.New("invoice.html").Funcs(template.FuncMap{
	"fixed": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(d shared.Date) string { return d.Format("02/01/2006") },
	"inc":   func(i int) int { return i + 1 },
	"truncate": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n])
	},
}).ParseFS(templateFS, "templates/invoice.html"))

// InvoiceView is everything the tax invoice template prints.
type InvoiceView struct {
	Invoice       invoicing.Invoice
	Company       companies.Company
	Client        clients.Client
	AmountInWords string
	Stamp         template.URL
}

// RenderInvoiceHTML executes the tax invoice template.
func RenderInvoiceHTML(view InvoiceView) ([]byte, error) {
	if view.AmountInWords == "" {
		view.AmountInWords = view.Invoice.AmountInWords()
	}
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("documents: render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
