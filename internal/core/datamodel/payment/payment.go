package payment

import (
	"time"
)

type Payment struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID  int64      `gorm:"column:invoice_id;index;not null"`
	Amount     int64      `gorm:"column:amount;not null"`
	Status     string     `gorm:"column:status;size:16;index;not null"`
	VerifiedBy *int64     `gorm:"column:verified_by"`
	ProofURL   *string    `gorm:"column:proof_url"`
	PaidAt     time.Time  `gorm:"column:paid_at;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string { return "payments" }
