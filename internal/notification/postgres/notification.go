package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/dormitory-management/internal/notification"
	"gorm.io/gorm"
)

// NotificationRepository implements the notification.Repository interface using GORM
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	row := notification.ToDataModel(n)
	if err := database.FromContext(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

func (r *NotificationRepository) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*notification.Notification, error) {
	var rows []*notificationDatamodel.Notification
	err := database.FromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return notification.FromDataModelSlice(rows), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, tenantID int64, at time.Time) error {
	res := database.FromContext(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, tenantID int64, at time.Time) error {
	return database.FromContext(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("tenant_id = ? AND read = ?", tenantID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": at,
		}).Error
}

// ClearRead deletes read rows only; unread notifications survive a clear.
func (r *NotificationRepository) ClearRead(ctx context.Context, tenantID int64) (int64, error) {
	res := database.FromContext(ctx, r.db).
		Where("tenant_id = ? AND read = ?", tenantID, true).
		Delete(&notificationDatamodel.Notification{})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) UpdateDelivery(ctx context.Context, id int64, status string, deliveryErr *string, deliveredAt *time.Time) error {
	return database.FromContext(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivery_status": status,
			"delivery_error":  deliveryErr,
			"delivered_at":    deliveredAt,
		}).Error
}

func (r *NotificationRepository) ListFailed(ctx context.Context, limit int) ([]*notification.Notification, error) {
	var rows []*notificationDatamodel.Notification
	err := database.FromContext(ctx, r.db).
		Where("delivery_status = ?", notification.DeliveryFail).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return notification.FromDataModelSlice(rows), nil
}
