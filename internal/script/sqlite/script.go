package sqlite

import (
	"context"
	"errors"

	scriptDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/script"
	"github.com/frahmantamala/dealership-crm/internal/script"
	"gorm.io/gorm"
)

type ScriptRepository struct {
	db *gorm.DB
}

func NewScriptRepository(db *gorm.DB) script.RepositoryAPI {
	return &ScriptRepository{db: db}
}

func (r *ScriptRepository) List(ctx context.Context, filter script.ListFilter) ([]*scriptDatamodel.Script, error) {
	q := r.db.WithContext(ctx).Model(&scriptDatamodel.Script{})
	if filter.StoreID != "" {
		q = q.Where("loja_id = ?", filter.StoreID)
	}
	if filter.Category != "" {
		q = q.Where("categoria = ?", filter.Category)
	}
	var scripts []*scriptDatamodel.Script
	err := q.Order("ordem ASC").Order("titulo ASC").Find(&scripts).Error
	return scripts, err
}

func (r *ScriptRepository) GetByID(ctx context.Context, id string) (*scriptDatamodel.Script, error) {
	var s scriptDatamodel.Script
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScriptRepository) Save(ctx context.Context, s *scriptDatamodel.Script) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *ScriptRepository) SaveAll(ctx context.Context, scripts []*scriptDatamodel.Script) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range scripts {
			if err := tx.Save(s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ScriptRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&scriptDatamodel.Script{}).Error
}
