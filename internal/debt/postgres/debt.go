package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	tenantDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/tenant"
	"github.com/frahmantamala/dormitory-management/internal/debt"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
	"github.com/frahmantamala/dormitory-management/internal/payment"
)

type DebtRepository struct {
	db *gorm.DB
}

func NewDebtRepository(db *gorm.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

func (r *DebtRepository) SumInvoiced(ctx context.Context, tenantID int64) (int64, error) {
	tx := database.FromContext(ctx, r.db)

	var total *int64
	err := tx.Table("invoices").
		Select("SUM(amount)").
		Where("tenant_id = ? AND status <> ?", tenantID, invoice.StatusCanceled).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *DebtRepository) SumApproved(ctx context.Context, tenantID int64) (int64, error) {
	tx := database.FromContext(ctx, r.db)

	var total *int64
	err := tx.Table("payments").
		Select("SUM(payments.amount)").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("invoices.tenant_id = ? AND payments.status = ? AND invoices.status <> ?",
			tenantID, payment.StatusApproved, invoice.StatusCanceled).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *DebtRepository) LatestUnsettledDueDate(ctx context.Context, tenantID int64) (*time.Time, error) {
	tx := database.FromContext(ctx, r.db)

	var due *time.Time
	err := tx.Table("invoices").
		Select("MAX(due_date)").
		Where("tenant_id = ? AND status NOT IN ?", tenantID,
			[]string{invoice.StatusPaid, invoice.StatusCanceled}).
		Scan(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

func (r *DebtRepository) SaveSummary(ctx context.Context, summary *debt.Summary) error {
	tx := database.FromContext(ctx, r.db)

	dm := &tenantDatamodel.DebtSummary{
		TenantID:    summary.TenantID,
		Outstanding: summary.Outstanding,
		OverdueDays: summary.OverdueDays,
		ComputedAt:  summary.ComputedAt,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		UpdateAll: true,
	}).Create(dm).Error
}
