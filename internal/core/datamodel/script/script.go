package script

import "time"

type Script struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Titulo    string    `gorm:"column:titulo;not null"`
	Conteudo  string    `gorm:"column:conteudo"`
	Categoria string    `gorm:"column:categoria"`
	Ordem     int       `gorm:"column:ordem;default:0"`
	LojaID    string    `gorm:"column:loja_id;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Script) TableName() string {
	return "scripts"
}
