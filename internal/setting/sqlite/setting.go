package sqlite

import (
	"context"
	"errors"

	settingDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/setting"
	"github.com/frahmantamala/dealership-crm/internal/setting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) setting.RepositoryAPI {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) AllSettings(ctx context.Context, category string) ([]*settingDatamodel.CrmSetting, error) {
	q := r.db.WithContext(ctx).Order("key ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []*settingDatamodel.CrmSetting
	err := q.Find(&out).Error
	return out, err
}

func (r *SettingRepository) GetSetting(ctx context.Context, key string) (*settingDatamodel.CrmSetting, error) {
	var s settingDatamodel.CrmSetting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepository) SaveSetting(ctx context.Context, s *settingDatamodel.CrmSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(s).Error
}

func (r *SettingRepository) DeleteSetting(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).Where("key = ?", key).Delete(&settingDatamodel.CrmSetting{})
	return res.RowsAffected > 0, res.Error
}

func (r *SettingRepository) AllConfig(ctx context.Context, storeID string) ([]*settingDatamodel.Config, error) {
	q := r.db.WithContext(ctx).Order("chave ASC")
	if storeID != "" {
		q = q.Where("(loja_id = ? OR loja_id IS NULL OR loja_id = '')", storeID)
	}
	var out []*settingDatamodel.Config
	err := q.Find(&out).Error
	return out, err
}

func (r *SettingRepository) GetConfig(ctx context.Context, key string) (*settingDatamodel.Config, error) {
	var c settingDatamodel.Config
	err := r.db.WithContext(ctx).Where("chave = ?", key).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SettingRepository) SaveConfig(ctx context.Context, c *settingDatamodel.Config) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chave"}},
		UpdateAll: true,
	}).Create(c).Error
}

func (r *SettingRepository) DeleteConfig(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).Where("chave = ?", key).Delete(&settingDatamodel.Config{})
	return res.RowsAffected > 0, res.Error
}
