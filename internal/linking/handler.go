package linking

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/transport"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
)

type ServiceAPI interface {
	IssueToken(ctx context.Context, userID, tenantID int64) (*IssuedToken, error)
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

type issuedTokenResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /link-token. Only tenant accounts can request a
// code, since a code binds the caller's own tenant to a channel account.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("IssueToken: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if user.TenantID == nil {
		h.Logger.Warn("IssueToken: account has no tenant", "user_id", user.ID)
		h.WriteError(w, http.StatusForbidden, "account is not linked to a tenant")
		return
	}

	token, err := h.Service.IssueToken(r.Context(), user.ID, *user.TenantID)
	if err != nil {
		h.Logger.Error("IssueToken: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, issuedTokenResponse{
		Code:      token.Code,
		ExpiresAt: token.ExpiresAt,
	})
}
