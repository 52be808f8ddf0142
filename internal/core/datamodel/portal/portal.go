package portal

import "time"

type Portal struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Nome      string    `gorm:"column:nome;not null"`
	URL       string    `gorm:"column:url"`
	Ativo     bool      `gorm:"column:ativo;default:true"`
	LojaID    string    `gorm:"column:loja_id;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Portal) TableName() string {
	return "portais"
}
