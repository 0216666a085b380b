package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/dormitory-management/internal/core/database"
	messagingDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/messaging"
	"github.com/frahmantamala/dormitory-management/internal/messaging"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settingsRowID = 1

// SettingsRepository stores the singleton messaging settings row, encrypting
// the signing secret and delivery token at rest.
type SettingsRepository struct {
	db     *gorm.DB
	cipher *messaging.Cipher
}

func NewSettingsRepository(db *gorm.DB, cipher *messaging.Cipher) messaging.SettingsRepository {
	return &SettingsRepository{db: db, cipher: cipher}
}

func (r *SettingsRepository) Get(ctx context.Context) (*messaging.Settings, error) {
	var row messagingDatamodel.Settings
	err := database.FromContext(ctx, r.db).Where("id = ?", settingsRowID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	secret, err := r.cipher.Decrypt(row.Secret)
	if err != nil {
		return nil, err
	}
	token, err := r.cipher.Decrypt(row.Token)
	if err != nil {
		return nil, err
	}

	return &messaging.Settings{
		ChannelID: row.ChannelID,
		Secret:    secret,
		Token:     token,
		UpdatedBy: row.UpdatedBy,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *messaging.Settings) error {
	secretEnc, err := r.cipher.Encrypt(s.Secret)
	if err != nil {
		return err
	}
	tokenEnc, err := r.cipher.Encrypt(s.Token)
	if err != nil {
		return err
	}

	row := &messagingDatamodel.Settings{
		ID:        settingsRowID,
		ChannelID: s.ChannelID,
		Secret:    secretEnc,
		Token:     tokenEnc,
		UpdatedBy: s.UpdatedBy,
		UpdatedAt: time.Now().UTC(),
	}

	return database.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(row).Error
}
