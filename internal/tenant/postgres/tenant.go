package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	"github.com/frahmantamala/dormitory-management/internal/tenant"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

type tenantRow struct {
	ID        int64  `gorm:"column:id"`
	Name      string `gorm:"column:name"`
	RoomID    *int64 `gorm:"column:room_id"`
	RoomPrice *int64 `gorm:"column:room_price"`
}

func (r *TenantRepository) GetActive(ctx context.Context, id int64) (*tenant.Info, error) {
	tx := database.FromContext(ctx, r.db)

	var row tenantRow
	err := tx.Table("tenants").
		Select("tenants.id, tenants.name, tenants.room_id, rooms.price AS room_price").
		Joins("LEFT JOIN rooms ON rooms.id = tenants.room_id").
		Where("tenants.id = ? AND tenants.active = ?", id, true).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return rowToInfo(&row), nil
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]*tenant.Info, error) {
	tx := database.FromContext(ctx, r.db)

	var rows []tenantRow
	err := tx.Table("tenants").
		Select("tenants.id, tenants.name, tenants.room_id, rooms.price AS room_price").
		Joins("LEFT JOIN rooms ON rooms.id = tenants.room_id").
		Where("tenants.active = ?", true).
		Order("tenants.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	infos := make([]*tenant.Info, 0, len(rows))
	for i := range rows {
		infos = append(infos, rowToInfo(&rows[i]))
	}
	return infos, nil
}

func rowToInfo(row *tenantRow) *tenant.Info {
	info := &tenant.Info{
		ID:     row.ID,
		Name:   row.Name,
		RoomID: row.RoomID,
	}
	if row.RoomPrice != nil {
		info.RoomPrice = *row.RoomPrice
	}
	return info
}
