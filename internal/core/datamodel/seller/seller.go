package seller

import "time"

type Vendedor struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Nome      string    `gorm:"column:nome;not null"`
	Telefone  string    `gorm:"column:telefone"`
	Email     string    `gorm:"column:email"`
	Ativo     bool      `gorm:"column:ativo;default:true"`
	LojaID    string    `gorm:"column:loja_id;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Vendedor) TableName() string {
	return "vendedores"
}
