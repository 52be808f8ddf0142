package sqlite

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	"github.com/frahmantamala/dealership-crm/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, storeID string) ([]*userDatamodel.Usuario, error) {
	var users []*userDatamodel.Usuario
	q := r.db.WithContext(ctx).Order("username ASC")
	if storeID != "" {
		q = q.Where("loja_id = ?", storeID)
	}
	err := q.Find(&users).Error
	return users, err
}

// GetByUsername matches case-insensitively so rows written before usernames
// were lower-cased are still found.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.Usuario, error) {
	var u userDatamodel.Usuario
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.Usuario) error {
	// Select("*") writes false booleans that would otherwise take the column default
	return r.db.WithContext(ctx).Select("*").Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).Where("username = ?", username).Delete(&userDatamodel.Usuario{}).Error
}
