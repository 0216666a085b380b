package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	messagingDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/messaging"
	"github.com/frahmantamala/dormitory-management/internal/linking"
)

type LinkingRepository struct {
	db *gorm.DB
}

func NewLinkingRepository(db *gorm.DB) *LinkingRepository {
	return &LinkingRepository{db: db}
}

func (r *LinkingRepository) CreateToken(ctx context.Context, t *linking.LinkToken) error {
	tx := database.FromContext(ctx, r.db)

	dm := linking.TokenToDataModel(t)
	if err := tx.Create(dm).Error; err != nil {
		return err
	}

	t.ID = dm.ID
	return nil
}

func (r *LinkingRepository) GetTokenByCode(ctx context.Context, code string) (*linking.LinkToken, error) {
	tx := database.FromContext(ctx, r.db)

	var dm messagingDatamodel.LinkToken
	err := tx.Where("code = ?", code).Order("created_at DESC").First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return linking.TokenFromDataModel(&dm), nil
}

// ConsumeToken flips used via a conditional update so concurrent consumers
// race on RowsAffected instead of on a read-then-write.
func (r *LinkingRepository) ConsumeToken(ctx context.Context, tokenID int64) (bool, error) {
	tx := database.FromContext(ctx, r.db)

	result := tx.Model(&messagingDatamodel.LinkToken{}).
		Where("id = ? AND used = ?", tokenID, false).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *LinkingRepository) UpsertBinding(ctx context.Context, tenantID int64, externalID string, at time.Time) error {
	tx := database.FromContext(ctx, r.db)

	// Both columns are unique, so stale bindings on either side have to go
	// before the new pair is inserted.
	err := tx.Where("tenant_id = ? OR external_id = ?", tenantID, externalID).
		Delete(&messagingDatamodel.TenantChannelBinding{}).Error
	if err != nil {
		return err
	}

	binding := &messagingDatamodel.TenantChannelBinding{
		TenantID:   tenantID,
		ExternalID: externalID,
		LinkedAt:   at,
	}
	return tx.Create(binding).Error
}

func (r *LinkingRepository) ExternalIDForTenant(ctx context.Context, tenantID int64) (string, error) {
	tx := database.FromContext(ctx, r.db)

	var dm messagingDatamodel.TenantChannelBinding
	err := tx.Where("tenant_id = ?", tenantID).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return dm.ExternalID, nil
}

func (r *LinkingRepository) TenantForExternalID(ctx context.Context, externalID string) (int64, error) {
	tx := database.FromContext(ctx, r.db)

	var dm messagingDatamodel.TenantChannelBinding
	err := tx.Where("external_id = ?", externalID).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return dm.TenantID, nil
}
