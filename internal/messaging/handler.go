package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/frahmantamala/dormitory-management/internal"
	"github.com/frahmantamala/dormitory-management/internal/auth"
	"github.com/frahmantamala/dormitory-management/internal/transport"
	"github.com/frahmantamala/dormitory-management/pkg/logger"
)

type SettingsAPI interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Handler struct {
	*transport.BaseHandler
	Settings SettingsAPI
}

func NewHandler(settings SettingsAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Settings:    settings,
	}
}

// GetSettings handles GET /messaging/settings. Unconfigured is a valid
// state, answered with an empty view rather than an error.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.Get(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrChannelNotConfigured) {
			h.WriteJSON(w, http.StatusOK, &SettingsView{Configured: false})
			return
		}
		h.Logger.Error("GetSettings: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settings.ToView())
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateSettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	settings := &Settings{
		ChannelID: dto.ChannelID,
		Secret:    dto.Secret,
		Token:     dto.Token,
		UpdatedBy: &user.ID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Settings.Update(r.Context(), settings); err != nil {
		h.Logger.Error("UpdateSettings: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateSettings: channel settings replaced", "updated_by", user.ID)
	h.WriteJSON(w, http.StatusOK, settings.ToView())
}
