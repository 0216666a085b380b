package invoice

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/transport"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
)

type ServiceAPI interface {
	Issue(ctx context.Context, dto IssueDTO) (*Invoice, error)
	IssueForPeriod(ctx context.Context, dto BatchIssueDTO) (*BatchIssueResult, error)
	Decide(ctx context.Context, invoiceID int64, action string, actorID *int64) (*DecideResult, error)
	Cancel(ctx context.Context, idOrNumber string) (*Invoice, error)
	Resend(ctx context.Context, invoiceID int64) error
	GetByID(ctx context.Context, invoiceID int64) (*Invoice, error)
	ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Invoice, error)
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

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var dto IssueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Issue: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.Service.Issue(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Issue: service error", "error", err, "tenant_id", dto.TenantID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Issue: invoice created", "invoice_id", inv.ID, "number", inv.Number)
	h.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) IssueBatch(w http.ResponseWriter, r *http.Request) {
	var dto BatchIssueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("IssueBatch: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.IssueForPeriod(r.Context(), dto)
	if err != nil {
		h.Logger.Error("IssueBatch: service error", "error", err, "period", dto.Period)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("IssueBatch: batch done",
		"period", dto.Period, "created", result.Created, "skipped", result.Skipped)
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	var dto DecideDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	actorID := user.ID
	result, err := h.Service.Decide(r.Context(), invoiceID, dto.Action, &actorID)
	if err != nil {
		h.Logger.Error("Decide: service error", "error", err, "invoice_id", invoiceID, "action", dto.Action)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Decide: decision applied",
		"invoice_id", invoiceID, "action", dto.Action, "status", result.Status, "actor_id", actorID)
	h.WriteJSON(w, http.StatusOK, result)
}

// Cancel accepts either a numeric invoice id or an invoice number in the
// path segment.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	idOrNumber := chi.URLParam(r, "id")
	if idOrNumber == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := h.Service.Cancel(r.Context(), idOrNumber)
	if err != nil {
		h.Logger.Error("Cancel: service error", "error", err, "invoice", idOrNumber)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Cancel: invoice canceled", "invoice_id", inv.ID, "number", inv.Number)
	h.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	if err := h.Service.Resend(r.Context(), invoiceID); err != nil {
		h.Logger.Error("Resend: service error", "error", err, "invoice_id", invoiceID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := h.Service.GetByID(r.Context(), invoiceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	// Tenants only see their own invoices.
	if !h.Checker.CanManageInvoices(user.Permissions) {
		if user.TenantID == nil || inv.TenantID != *user.TenantID {
			h.WriteError(w, http.StatusNotFound, "invoice not found")
			return
		}
	}

	h.WriteJSON(w, http.StatusOK, inv)
}

// List handles GET /invoices. Staff pass ?tenant_id=, tenants are pinned to
// their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var tenantID int64
	if h.Checker.CanManageInvoices(user.Permissions) {
		parsed, err := strconv.ParseInt(r.URL.Query().Get("tenant_id"), 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "tenant_id query parameter is required")
			return
		}
		tenantID = parsed
	} else {
		if user.TenantID == nil {
			h.WriteError(w, http.StatusForbidden, "account is not linked to a tenant")
			return
		}
		tenantID = *user.TenantID
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.Service.ListByTenant(r.Context(), tenantID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, invoices)
}
