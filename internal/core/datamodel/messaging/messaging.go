package messaging

import (
	"time"
)

// Settings is the singleton credential row for the external chat channel.
// Secret and Token are stored encrypted (AES-GCM, nonce-prefixed, base64).
type Settings struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	ChannelID string    `gorm:"column:channel_id;not null"`
	Secret    string    `gorm:"column:secret_enc;not null"`
	Token     string    `gorm:"column:token_enc;not null"`
	UpdatedBy *int64    `gorm:"column:updated_by"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "messaging_settings" }

type LinkToken struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Code      string    `gorm:"column:code;size:6;index;not null"`
	UserID    int64     `gorm:"column:user_id;not null"`
	TenantID  int64     `gorm:"column:tenant_id;index;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LinkToken) TableName() string { return "link_tokens" }

// TenantChannelBinding maps a tenant to an external chat identity, 1:1 in
// both directions.
type TenantChannelBinding struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID   int64     `gorm:"column:tenant_id;uniqueIndex;not null"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;not null"`
	LinkedAt   time.Time `gorm:"column:linked_at;not null"`
}

func (TenantChannelBinding) TableName() string { return "tenant_channel_bindings" }
