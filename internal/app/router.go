package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/invoicepro/invoicepro/internal/dashboard"
	"github.com/invoicepro/invoicepro/internal/documents"
	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/masterdata/products"
	"github.com/invoicepro/invoicepro/internal/masterdata/units"
	"github.com/invoicepro/invoicepro/internal/observability"
	"github.com/invoicepro/invoicepro/internal/payments"
	"github.com/invoicepro/invoicepro/internal/procurement"
	"github.com/invoicepro/invoicepro/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers leave their routes unmounted.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	UnitsHandler       *units.Handler
	ProductsHandler    *products.Handler
	ClientsHandler     *clients.Handler
	CompaniesHandler   *companies.Handler
	ProcurementHandler *procurement.Handler
	InvoicingHandler   *invoicing.Handler
	PaymentsHandler    *payments.Handler
	DocumentsHandler   *documents.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with InvoicePro defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// writes that change dashboard figures drop the caller's cached stats
	invalidate := func(next http.Handler) http.Handler { return next }
	if params.DashboardHandler != nil {
		invalidate = params.DashboardHandler.InvalidateOnWrite
	}

	if params.UnitsHandler != nil {
		r.Route("/uoms", params.UnitsHandler.MountRoutes)
	}
	if params.ProductsHandler != nil {
		r.Route("/products", params.ProductsHandler.MountRoutes)
	}
	if params.ClientsHandler != nil {
		r.Route("/clients", func(r chi.Router) {
			r.Use(invalidate)
			params.ClientsHandler.MountRoutes(r)
		})
	}
	if params.CompaniesHandler != nil {
		r.Route("/companies", func(r chi.Router) {
			params.CompaniesHandler.MountRoutes(r)
			if params.ProcurementHandler != nil {
				r.Get("/{id}/purchase-orders", params.ProcurementHandler.ListForCompany)
			}
			if params.DocumentsHandler != nil {
				params.DocumentsHandler.MountCompanyRoutes(r)
			}
		})
	}
	if params.ProcurementHandler != nil {
		r.Route("/purchase-orders", params.ProcurementHandler.MountRoutes)
		r.Route("/po-line-items", params.ProcurementHandler.MountLineRoutes)
	}
	if params.InvoicingHandler != nil {
		r.Route("/invoices", func(r chi.Router) {
			r.Use(invalidate)
			params.InvoicingHandler.MountRoutes(r)
			if params.PaymentsHandler != nil {
				params.PaymentsHandler.MountInvoiceRoutes(r)
			}
			if params.DocumentsHandler != nil {
				params.DocumentsHandler.MountInvoiceRoutes(r)
			}
		})
	}
	if params.PaymentsHandler != nil {
		r.Route("/payments", func(r chi.Router) {
			r.Use(invalidate)
			params.PaymentsHandler.MountRoutes(r)
		})
	}
	if params.DashboardHandler != nil {
		r.Get("/dashboard", params.DashboardHandler.Dashboard)
		r.Get("/reports", params.DashboardHandler.Reports)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
