package sqlite

import (
	"context"
	"errors"
	"strings"

	sellerDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/seller"
	"github.com/frahmantamala/dealership-crm/internal/seller"
	"gorm.io/gorm"
)

type SellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) seller.RepositoryAPI {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) List(ctx context.Context, filter seller.ListFilter) ([]*sellerDatamodel.Vendedor, error) {
	q := r.db.WithContext(ctx).Model(&sellerDatamodel.Vendedor{})
	if filter.StoreID != "" {
		q = q.Where("loja_id = ?", filter.StoreID)
	}
	if filter.ActiveOnly {
		q = q.Where("ativo = ?", true)
	}

	var sellers []*sellerDatamodel.Vendedor
	err := q.Order("nome ASC").Find(&sellers).Error
	return sellers, err
}

func (r *SellerRepository) GetByID(ctx context.Context, id string) (*sellerDatamodel.Vendedor, error) {
	var v sellerDatamodel.Vendedor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// GetByName matches case-insensitively; an empty storeID searches every store.
func (r *SellerRepository) GetByName(ctx context.Context, storeID, name string) (*sellerDatamodel.Vendedor, error) {
	q := r.db.WithContext(ctx).Where("LOWER(nome) = ?", strings.ToLower(strings.TrimSpace(name)))
	if storeID != "" {
		q = q.Where("loja_id = ?", storeID)
	}

	var v sellerDatamodel.Vendedor
	err := q.Order("ativo DESC").First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *SellerRepository) Create(ctx context.Context, v *sellerDatamodel.Vendedor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// Update uses Save so that ativo=false is written.
func (r *SellerRepository) Update(ctx context.Context, v *sellerDatamodel.Vendedor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *SellerRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sellerDatamodel.Vendedor{}).Error
}
