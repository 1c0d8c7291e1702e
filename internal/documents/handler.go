package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
	"github.com/invoicepro/invoicepro/report"
)

// Handler serves invoice documents.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountInvoiceRoutes registers document routes on the /invoices router.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/{id}/pdf", h.pdf)
	r.Get("/{id}/print", h.print)
	r.Get("/{id}/eway-bill", h.ewayBill)
}

// MountCompanyRoutes registers the stamp upload on the /companies router.
func (h *Handler) MountCompanyRoutes(r chi.Router) {
	r.Post("/{id}/stamp", h.uploadStamp)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	pdf, filename, err := h.service.InvoicePDF(r.Context(), userID, id)
	if err != nil {
		var statusErr *report.StatusError
		if errors.Is(err, report.ErrUnavailable) || errors.As(err, &statusErr) {
			h.logger.Error("render invoice pdf", slog.Int64("invoice_id", id), slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "PDF Unavailable", "the PDF renderer could not produce the document")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(pdf)
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	html, _, err := h.service.InvoiceHTML(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (h *Handler) ewayBill(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	bill, filename, err := h.service.EWayBill(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(bill)
}

func (h *Handler) uploadStamp(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxStampBytes+1<<16)
	file, header, err := r.FormFile("stamp")
	if err != nil {
		httpx.RespondError(w, fieldError("stamp", "a stamp image file is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()
	path, err := h.service.UploadStamp(r.Context(), userID, id, header.Filename, file)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("company stamp uploaded", slog.Int64("company_id", id), slog.String("path", path))
	httpx.JSON(w, http.StatusOK, map[string]string{"stamp_path": path})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
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
