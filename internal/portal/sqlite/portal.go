package sqlite

import (
	"context"
	"errors"

	portalDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/portal"
	"github.com/frahmantamala/dealership-crm/internal/portal"
	"gorm.io/gorm"
)

type PortalRepository struct {
	db *gorm.DB
}

func NewPortalRepository(db *gorm.DB) portal.RepositoryAPI {
	return &PortalRepository{db: db}
}

func (r *PortalRepository) List(ctx context.Context, storeID string) ([]*portalDatamodel.Portal, error) {
	q := r.db.WithContext(ctx).Model(&portalDatamodel.Portal{})
	if storeID != "" {
		q = q.Where("loja_id = ?", storeID)
	}
	var portals []*portalDatamodel.Portal
	err := q.Order("nome ASC").Find(&portals).Error
	return portals, err
}

func (r *PortalRepository) GetByID(ctx context.Context, id string) (*portalDatamodel.Portal, error) {
	var p portalDatamodel.Portal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save upserts on id; Save writes zero values, so ativo=false sticks.
func (r *PortalRepository) Save(ctx context.Context, p *portalDatamodel.Portal) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PortalRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&portalDatamodel.Portal{}).Error
}
