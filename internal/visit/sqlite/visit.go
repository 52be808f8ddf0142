package sqlite

import (
	"context"
	"errors"

	visitDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
	"github.com/frahmantamala/dealership-crm/internal/visit"
	"gorm.io/gorm"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) visit.RepositoryAPI {
	return &VisitRepository{db: db}
}

// List orders by schedule, unscheduled visits last, then newest first.
func (r *VisitRepository) List(ctx context.Context, filter visit.ListFilter) ([]*visitDatamodel.Visita, error) {
	q := r.db.WithContext(ctx).Model(&visitDatamodel.Visita{})
	if filter.StoreID != "" {
		q = q.Where("loja_id = ?", filter.StoreID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Seller != "" {
		q = q.Where("vendedor = ?", filter.Seller)
	}
	if filter.From != nil {
		q = q.Where("data_agendamento >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("data_agendamento < ?", *filter.To)
	}

	var visits []*visitDatamodel.Visita
	err := q.Order("data_agendamento IS NULL, data_agendamento ASC, created_at DESC").Find(&visits).Error
	return visits, err
}

func (r *VisitRepository) GetByID(ctx context.Context, id string) (*visitDatamodel.Visita, error) {
	var v visitDatamodel.Visita
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *VisitRepository) Create(ctx context.Context, v *visitDatamodel.Visita) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VisitRepository) Update(ctx context.Context, v *visitDatamodel.Visita) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *VisitRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&visitDatamodel.Visita{}).Error
}
