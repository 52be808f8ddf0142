package user

import (
	"time"

	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/jsontype"
)

// Usuario is the local row of the usuarios table. The cloud table names the
// password column password_hash and reset_password force_password_change.
type Usuario struct {
	Username      string              `gorm:"column:username;primaryKey"`
	Password      string              `gorm:"column:password;not null"`
	Nome          string              `gorm:"column:nome"`
	Role          string              `gorm:"column:role;not null;default:vendedor"`
	Ativo         bool                `gorm:"column:ativo;default:true"`
	Permissions   jsontype.StringList `gorm:"column:permissions"`
	LojaID        string              `gorm:"column:loja_id;index"`
	ResetPassword bool                `gorm:"column:reset_password;default:false"`
	CreatedAt     time.Time           `gorm:"column:created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at"`
}

func (Usuario) TableName() string {
	return "usuarios"
}
