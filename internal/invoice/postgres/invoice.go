package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	invoiceDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/invoice"
	"github.com/frahmantamala/dormitory-management/internal/invoice"
)

const counterRowID = 1

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	tx := database.FromContext(ctx, r.db)

	dm := invoice.ToDataModel(inv)
	if err := tx.Create(dm).Error; err != nil {
		return err
	}

	inv.ID = dm.ID
	inv.CreatedAt = dm.CreatedAt
	inv.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	return r.getOne(ctx, false, "id = ?", id)
}

func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id int64) (*invoice.Invoice, error) {
	return r.getOne(ctx, true, "id = ?", id)
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	return r.getOne(ctx, true, "number = ?", number)
}

func (r *InvoiceRepository) GetByTenantAndPeriod(ctx context.Context, tenantID int64, period string) (*invoice.Invoice, error) {
	return r.getOne(ctx, false, "tenant_id = ? AND period = ?", tenantID, period)
}

func (r *InvoiceRepository) getOne(ctx context.Context, locked bool, query string, args ...interface{}) (*invoice.Invoice, error) {
	tx := database.FromContext(ctx, r.db)
	if locked {
		tx = database.Locked(tx)
	}

	var dm invoiceDatamodel.Invoice
	err := tx.Where(query, args...).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return invoice.FromDataModel(&dm), nil
}

func (r *InvoiceRepository) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]*invoice.Invoice, error) {
	tx := database.FromContext(ctx, r.db)

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var dms []invoiceDatamodel.Invoice
	err := tx.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*invoice.Invoice, 0, len(dms))
	for i := range dms {
		invoices = append(invoices, invoice.FromDataModel(&dms[i]))
	}
	return invoices, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	tx := database.FromContext(ctx, r.db)
	return tx.Save(invoice.ToDataModel(inv)).Error
}

// NextNumber allocates the next sequential invoice number. The counter row
// is locked for the rest of the surrounding transaction, which serializes
// concurrent allocations and keeps numbers unique and increasing.
func (r *InvoiceRepository) NextNumber(ctx context.Context) (int64, error) {
	tx := database.FromContext(ctx, r.db)

	var counter invoiceDatamodel.Counter
	err := database.Locked(tx).Where("id = ?", counterRowID).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = invoiceDatamodel.Counter{ID: counterRowID, LastNumber: 0}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	counter.LastNumber++
	if err := tx.Save(&counter).Error; err != nil {
		return 0, err
	}

	return counter.LastNumber, nil
}
