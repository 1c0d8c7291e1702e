package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

// Handler serves company endpoints for the authenticated user.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/default", h.defaultCompany)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/next-invoice-number", h.nextInvoiceNumber)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := internalShared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companies, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("list companies failed", slog.Any("error", err), slog.Int64("user_id", userID))
		httpx.RespondError(w, err)
		return
	}
	if companies == nil {
		companies = []Company{}
	}
	httpx.JSON(w, http.StatusOK, companies)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) defaultCompany(w http.ResponseWriter, r *http.Request) {
	userID, err := internalShared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Default(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := internalShared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), userID, req.toCompany())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), userID, id, req.toCompany())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) nextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	number, err := h.service.NextInvoiceNumber(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nextNumberResponse{CompanyID: id, InvoiceNumber: number})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := internalShared.RequireUser(r.Context())
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

func decode(w http.ResponseWriter, r *http.Request) (companyRequest, bool) {
	var req companyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	if err := internalShared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	return req, true
}
