package procurement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Handler exposes purchase order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /purchase-orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/line-items", h.lineItems)
}

// MountLineRoutes registers /po-line-items routes.
func (h *Handler) MountLineRoutes(r chi.Router) {
	r.Get("/{id}", h.lineItem)
}

type poResponse struct {
	PurchaseOrder
	Total   decimal.Decimal `json:"total"`
	Display string          `json:"display"`
}

func toResponse(po PurchaseOrder) poResponse {
	return poResponse{PurchaseOrder: po, Total: po.Total(), Display: po.Display()}
}

type poSummary struct {
	ID          int64  `json:"id"`
	PONumber    string `json:"po_number"`
	Description string `json:"description"`
	Display     string `json:"display"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.QueryInt64(r, "company_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.listFor(w, r, companyID)
}

// ListForCompany serves GET /companies/{id}/purchase-orders.
func (h *Handler) ListForCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.listFor(w, r, companyID)
}

func (h *Handler) listFor(w http.ResponseWriter, r *http.Request, companyID int64) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.ParseListFilter(r)
	pos, total, err := h.service.ListByCompany(r.Context(), userID, ListFilter{
		CompanyID: companyID,
		Search:    page.Search,
		Limit:     page.PerPage,
		Offset:    page.Offset(),
	})
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err), slog.Int64("company_id", companyID))
		httpx.RespondError(w, err)
		return
	}
	items := make([]poSummary, 0, len(pos))
	for _, po := range pos {
		items = append(items, poSummary{ID: po.ID, PONumber: po.PONumber, Description: po.MainLineDescription, Display: po.Display()})
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(items, page, total))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	po, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(po))
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
	po, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(po))
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
	po, err := h.service.Update(r.Context(), userID, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(po))
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

func (h *Handler) lineItems(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	exclude, err := httpx.QueryInt64(r, "exclude_invoice_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.LineItems(r.Context(), userID, id, exclude)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) lineItem(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := scope(w, r)
	if !ok {
		return
	}
	exclude, err := httpx.QueryInt64(r, "exclude_invoice_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.LineItem(r.Context(), userID, id, exclude)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
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
