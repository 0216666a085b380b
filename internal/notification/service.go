package notification

import (
	"context"
	"log/slog"
	"time"
)

// Repository defines the data access methods for notification rows. Rows are
// created once and mutated only to flip read or delivery status.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, tenantID int64, at time.Time) error
	MarkAllRead(ctx context.Context, tenantID int64, at time.Time) error
	ClearRead(ctx context.Context, tenantID int64) (int64, error)
	UpdateDelivery(ctx context.Context, id int64, status string, deliveryErr *string, deliveredAt *time.Time) error
	ListFailed(ctx context.Context, limit int) ([]*Notification, error)
}

// Service exposes the tenant-facing notification store operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListForTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*Notification, error) {
	notifications, err := s.repo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id, tenantID int64) error {
	if err := s.repo.MarkRead(ctx, id, tenantID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to mark notification read", "error", err, "notification_id", id, "tenant_id", tenantID)
		return err
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID int64) error {
	if err := s.repo.MarkAllRead(ctx, tenantID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to mark all notifications read", "error", err, "tenant_id", tenantID)
		return err
	}
	return nil
}

// ClearRead deletes the tenant's read notifications. Unread rows are never
// deleted this way.
func (s *Service) ClearRead(ctx context.Context, tenantID int64) (int64, error) {
	deleted, err := s.repo.ClearRead(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to clear read notifications", "error", err, "tenant_id", tenantID)
		return 0, err
	}
	s.logger.Info("cleared read notifications", "tenant_id", tenantID, "deleted", deleted)
	return deleted, nil
}
