package notification

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/transport"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
)

type ServiceAPI interface {
	ListForTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, tenantID int64) error
	MarkAllRead(ctx context.Context, tenantID int64) error
	ClearRead(ctx context.Context, tenantID int64) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// tenantScope resolves the calling tenant. Notification routes are
// tenant-facing only; staff accounts have no inbox.
func (h *Handler) tenantScope(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if user.TenantID == nil {
		h.WriteError(w, http.StatusForbidden, "account is not linked to a tenant")
		return 0, false
	}
	return *user.TenantID, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantScope(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.Service.ListForTenant(r.Context(), tenantID, limit, offset)
	if err != nil {
		h.Logger.Error("List: service error", "error", err, "tenant_id", tenantID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantScope(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.Service.MarkRead(r.Context(), id, tenantID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantScope(w, r)
	if !ok {
		return
	}

	if err := h.Service.MarkAllRead(r.Context(), tenantID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearRead(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantScope(w, r)
	if !ok {
		return
	}

	deleted, err := h.Service.ClearRead(r.Context(), tenantID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
