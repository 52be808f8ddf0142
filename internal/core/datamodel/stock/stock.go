package stock

import (
	"time"

	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/jsontype"
)

// Estoque rows were keyed by nome before the id column existed; the local
// migration backfills generated ids for those rows.
type Estoque struct {
	ID        string              `gorm:"column:id;primaryKey"`
	Nome      string              `gorm:"column:nome;not null"`
	Marca     string              `gorm:"column:marca"`
	Modelo    string              `gorm:"column:modelo"`
	Ano       int                 `gorm:"column:ano"`
	Preco     float64             `gorm:"column:preco"`
	Km        int                 `gorm:"column:km"`
	Cor       string              `gorm:"column:cor"`
	Fotos     jsontype.StringList `gorm:"column:fotos"`
	Status    string              `gorm:"column:status;default:disponivel"`
	LojaID    string              `gorm:"column:loja_id;index"`
	CreatedAt time.Time           `gorm:"column:created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at"`
}

func (Estoque) TableName() string {
	return "estoque"
}
