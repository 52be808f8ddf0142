package visit

import "time"

type Visita struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Cliente          string     `gorm:"column:cliente;not null"`
	Telefone         string     `gorm:"column:telefone"`
	Email            string     `gorm:"column:email"`
	VeiculoInteresse string     `gorm:"column:veiculo_interesse"`
	Status           string     `gorm:"column:status;default:Pendente"`
	DataAgendamento  *time.Time `gorm:"column:data_agendamento"`
	Vendedor         string     `gorm:"column:vendedor;index"`
	Temperatura      string     `gorm:"column:temperatura"`
	Origem           string     `gorm:"column:origem"`
	Observacoes      string     `gorm:"column:observacoes"`
	LojaID           string     `gorm:"column:loja_id;index"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (Visita) TableName() string {
	return "visitas"
}
