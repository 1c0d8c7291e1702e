package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Handler exposes the statistics endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Dashboard serves GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Dashboard(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Reports serves GET /reports.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.RequireUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Reports(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// InvalidateOnWrite drops the caller's cached figures after any successful
// write request passing through next.
func (h *Handler) InvalidateOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= 400 {
			return
		}
		userID, ok := shared.UserFromContext(r.Context())
		if !ok {
			return
		}
		if err := h.service.Invalidate(r.Context(), userID); err != nil {
			h.logger.Warn("invalidate dashboard cache", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
