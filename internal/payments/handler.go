package payments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Handler exposes payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountInvoiceRoutes registers the payment routes nested under /invoices.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/{id}/payments", h.listForInvoice)
	r.Post("/{id}/payments", h.create)
}

// MountRoutes registers /payments routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type paymentResponse struct {
	Payment
	StatusClass string `json:"status_class"`
}

type listResponse struct {
	Items   []paymentResponse        `json:"items"`
	Summary invoicing.PaymentSummary `json:"summary"`
}

func toResponse(p Payment) paymentResponse {
	return paymentResponse{Payment: p, StatusClass: p.Status.StatusClass()}
}

func (h *Handler) listForInvoice(w http.ResponseWriter, r *http.Request) {
	userID, invoiceID, ok := scope(w, r)
	if !ok {
		return
	}
	payments, err := h.service.ListByInvoice(r.Context(), userID, invoiceID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), userID, invoiceID)
	if err != nil {
		h.logger.Error("payment summary", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
		httpx.RespondError(w, err)
		return
	}
	out := listResponse{Items: make([]paymentResponse, 0, len(payments)), Summary: summary}
	for _, p := range payments {
		out.Items = append(out.Items, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, invoiceID, ok := scope(w, r)
	if !ok {
		return
	}
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Add(r.Context(), userID, invoiceID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), userID, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func scope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	return userID, id, true
}
