package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	paymentDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/dormitory-management/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	tx := database.FromContext(ctx, r.db)

	dm := p.ToDataModel()
	if err := tx.Create(dm).Error; err != nil {
		return err
	}

	p.ID = dm.ID
	p.CreatedAt = dm.CreatedAt
	p.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *PaymentRepository) GetNewestPending(ctx context.Context, invoiceID int64) (*payment.Payment, error) {
	tx := database.FromContext(ctx, r.db)

	var dm paymentDatamodel.Payment
	err := database.Locked(tx).
		Where("invoice_id = ? AND status = ?", invoiceID, payment.StatusPending).
		Order("created_at DESC").
		First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return payment.FromDataModel(&dm), nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tx := database.FromContext(ctx, r.db)
	return tx.Save(p.ToDataModel()).Error
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*payment.Payment, error) {
	tx := database.FromContext(ctx, r.db)

	var dms []paymentDatamodel.Payment
	err := tx.Where("invoice_id = ?", invoiceID).
		Order("created_at DESC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, 0, len(dms))
	for i := range dms {
		payments = append(payments, payment.FromDataModel(&dms[i]))
	}
	return payments, nil
}
