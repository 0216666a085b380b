package tenant

import (
	"time"
)

// Tenant and Room are owned by the dormitory CRUD side of the application;
// the billing core only reads them.
type Tenant struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string     `gorm:"column:name;not null"`
	Phone     *string    `gorm:"column:phone"`
	RoomID    *int64     `gorm:"column:room_id"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	MovedInAt *time.Time `gorm:"column:moved_in_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string { return "tenants" }

type Room struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	Price     int64     `gorm:"column:price;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Room) TableName() string { return "rooms" }

type DebtSummary struct {
	TenantID    int64     `gorm:"column:tenant_id;primaryKey"`
	Outstanding int64     `gorm:"column:outstanding;not null"`
	OverdueDays int       `gorm:"column:overdue_days;not null"`
	ComputedAt  time.Time `gorm:"column:computed_at;not null"`
}

func (DebtSummary) TableName() string { return "tenant_debt_summaries" }
