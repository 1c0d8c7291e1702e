package invoicing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	payments SummaryPort
}

// NewHandler builds handler. payments may be nil, in which case details omit
// the payment summary.
func NewHandler(logger *slog.Logger, service *Service, payments SummaryPort) *Handler {
	return &Handler{logger: logger, service: service, payments: payments}
}

// MountRoutes registers /invoices routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/items", h.addItem)
	r.Put("/{id}/items/{itemID}", h.updateItem)
	r.Delete("/{id}/items/{itemID}", h.deleteItem)
	r.Post("/{id}/status", h.setStatus)
	r.Post("/{id}/recalculate", h.recalculate)
}

type invoiceResponse struct {
	Invoice
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	AmountInWords string          `json:"amount_in_words"`
	StatusClass   string          `json:"status_class"`
	Payments      *PaymentSummary `json:"payments,omitempty"`
}

func toResponse(inv Invoice) invoiceResponse {
	if inv.Items == nil {
		inv.Items = []Item{}
	}
	return invoiceResponse{
		Invoice:       inv,
		TaxableAmount: inv.TaxableAmount(),
		AmountInWords: inv.AmountInWords(),
		StatusClass:   inv.Status.StatusClass(),
	}
}

type statusRequest struct {
	Status Status `json:"status" validate:"required,oneof=DRAFT PENDING PAID OVERDUE"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.ParseListFilter(r)
	companyID, err := httpx.QueryInt64(r, "company_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clientID, err := httpx.QueryInt64(r, "client_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoices, total, err := h.service.List(r.Context(), userID, ListFilter{
		Status:    Status(r.URL.Query().Get("status")),
		CompanyID: companyID,
		ClientID:  clientID,
		Search:    page.Search,
		Limit:     page.PerPage,
		Offset:    page.Offset(),
	})
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err), slog.Int64("user_id", userID))
		httpx.RespondError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toResponse(inv))
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(out, page, total))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := toResponse(inv)
	if h.payments != nil {
		summary, err := h.payments.Summary(r.Context(), userID, id)
		if err != nil {
			h.logger.Error("invoice payment summary", slog.Any("error", err), slog.Int64("invoice_id", id))
			httpx.RespondError(w, err)
			return
		}
		resp.Payments = &summary
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), userID, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(inv))
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

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), userID, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	itemID, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), userID, id, itemID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	itemID, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), userID, id, itemID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.SetStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Recalculate(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(inv))
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
