package notification

import (
	"time"
)

type Notification struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       int64      `gorm:"column:tenant_id;index;not null"`
	Type           string     `gorm:"column:type;size:32;not null"`
	Title          string     `gorm:"column:title;not null"`
	Body           string     `gorm:"column:body;not null"`
	RefKind        string     `gorm:"column:ref_kind;size:32"`
	RefID          int64      `gorm:"column:ref_id"`
	Read           bool       `gorm:"column:read;not null;default:false"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	DeliveryStatus string     `gorm:"column:delivery_status;size:16;not null;default:''"`
	DeliveryError  *string    `gorm:"column:delivery_error"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
