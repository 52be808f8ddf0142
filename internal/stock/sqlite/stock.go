package sqlite

import (
	"context"
	"errors"
	"strings"

	stockDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
	"github.com/frahmantamala/dealership-crm/internal/stock"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) stock.RepositoryAPI {
	return &StockRepository{db: db}
}

func (r *StockRepository) List(ctx context.Context, filter stock.ListFilter) ([]*stockDatamodel.Estoque, error) {
	q := r.db.WithContext(ctx).Model(&stockDatamodel.Estoque{})
	if filter.StoreID != "" {
		q = q.Where("loja_id = ?", filter.StoreID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(nome) LIKE ? OR LOWER(marca) LIKE ? OR LOWER(modelo) LIKE ?)", like, like, like)
	}

	var items []*stockDatamodel.Estoque
	err := q.Order("nome ASC").Find(&items).Error
	return items, err
}

func (r *StockRepository) GetByID(ctx context.Context, id string) (*stockDatamodel.Estoque, error) {
	var e stockDatamodel.Estoque
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *StockRepository) Create(ctx context.Context, e *stockDatamodel.Estoque) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *StockRepository) Update(ctx context.Context, e *stockDatamodel.Estoque) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *StockRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&stockDatamodel.Estoque{}).Error
}
