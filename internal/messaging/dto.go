package messaging

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/dormitory-management/internal"
)

type UpdateSettingsDTO struct {
	ChannelID string `json:"channel_id"`
	Secret    string `json:"secret"`
	Token     string `json:"token"`
}

func (d *UpdateSettingsDTO) Validate() error {
	if strings.TrimSpace(d.ChannelID) == "" {
		return errors.NewValidationFieldError("channel_id", "channel_id is required", errors.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Secret) == "" {
		return errors.NewValidationFieldError("secret", "secret is required", errors.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Token) == "" {
		return errors.NewValidationFieldError("token", "token is required", errors.ErrCodeValidationFailed)
	}
	return nil
}

// SettingsView is the read shape: credentials never leave the server, only
// a masked tail proves which value is stored.
type SettingsView struct {
	ChannelID  string    `json:"channel_id"`
	SecretHint string    `json:"secret_hint"`
	TokenHint  string    `json:"token_hint"`
	Configured bool      `json:"configured"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func maskTail(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func (s *Settings) ToView() *SettingsView {
	return &SettingsView{
		ChannelID:  s.ChannelID,
		SecretHint: maskTail(s.Secret),
		TokenHint:  maskTail(s.Token),
		Configured: s.Secret != "" && s.Token != "",
		UpdatedAt:  s.UpdatedAt,
	}
}
