package debt

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
	ForTenant(ctx context.Context, tenantID int64) (*Summary, error)
	RecalculateAll(ctx context.Context) (int, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Checker auth.PermissionChecker
}

func NewHandler(service ServiceAPI, checker auth.PermissionChecker) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Checker:     checker,
	}
}

// ForTenant handles GET /tenants/{id}/debt. Tenants can only ask about
// themselves.
func (h *Handler) ForTenant(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	if !h.Checker.CanManageInvoices(user.Permissions) {
		if user.TenantID == nil || tenantID != *user.TenantID {
			h.WriteError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	summary, err := h.Service.ForTenant(r.Context(), tenantID)
	if err != nil {
		h.Logger.Error("ForTenant: service error", "error", err, "tenant_id", tenantID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// RecalculateAll handles POST /debts/recalculate (admin only, enforced by
// route middleware).
func (h *Handler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.RecalculateAll(r.Context())
	if err != nil {
		h.Logger.Error("RecalculateAll: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RecalculateAll: done", "tenants", count)
	h.WriteJSON(w, http.StatusOK, map[string]int{"tenants": count})
}
