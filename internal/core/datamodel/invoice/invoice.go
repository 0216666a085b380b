package invoice

import (
	"time"
)

// Invoice is the persistence model for a billing obligation of one tenant
// for one period.
type Invoice struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Number     string     `gorm:"column:number;uniqueIndex;not null"`
	TenantID   int64      `gorm:"column:tenant_id;index;not null"`
	RoomID     *int64     `gorm:"column:room_id"`
	Period     string     `gorm:"column:period;size:7;index;not null"`
	Amount     int64      `gorm:"column:amount;not null"`
	DueDate    time.Time  `gorm:"column:due_date;not null"`
	Status     string     `gorm:"column:status;size:16;index;not null"`
	PaidAt     *time.Time `gorm:"column:paid_at"`
	ProofURL   *string    `gorm:"column:proof_url"`
	RemindedAt *time.Time `gorm:"column:reminded_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Invoice) TableName() string { return "invoices" }

// Counter is the dedicated row serializing invoice number allocation.
// Allocation locks this row, increments LastNumber and reads it back.
type Counter struct {
	ID         int64 `gorm:"column:id;primaryKey"`
	LastNumber int64 `gorm:"column:last_number;not null"`
}

func (Counter) TableName() string { return "invoice_counters" }
