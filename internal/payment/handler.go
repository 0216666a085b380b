package payment

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
	RecordProof(ctx context.Context, invoiceID int64, tenantID *int64, dto *RecordProofDTO) (*RecordProofResult, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*Payment, error)
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

// RecordProof handles POST /invoices/{id}/payments. Tenant callers are
// scoped to their own invoices; staff can record proof on behalf of anyone.
func (h *Handler) RecordProof(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RecordProof: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	var dto RecordProofDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RecordProof: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scope := user.TenantID
	if h.Checker.CanVerifyPayments(user.Permissions) {
		scope = nil
	}

	result, err := h.Service.RecordProof(r.Context(), invoiceID, scope, &dto)
	if err != nil {
		h.Logger.Error("RecordProof: service error", "error", err, "invoice_id", invoiceID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RecordProof: proof recorded",
		"payment_id", result.PaymentID, "invoice_id", result.InvoiceID, "user_id", user.ID)
	h.WriteJSON(w, http.StatusCreated, result)
}

// ListByInvoice handles GET /invoices/{id}/payments (staff only, enforced by
// route middleware).
func (h *Handler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	payments, err := h.Service.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payments)
}
