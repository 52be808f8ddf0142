package visit

import (
	"time"

	visitDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
)

const TableName = "visitas"

// StatusPending is the status of a freshly registered visit. Other statuses
// are free text chosen by the store (Agendado, Vendido, ...).
const StatusPending = "Pendente"

type Visit struct {
	ID              string     `json:"id"`
	Client          string     `json:"cliente"`
	Phone           string     `json:"telefone,omitempty"`
	Email           string     `json:"email,omitempty"`
	VehicleInterest string     `json:"veiculo_interesse,omitempty"`
	Status          string     `json:"status"`
	ScheduledAt     *time.Time `json:"data_agendamento,omitempty"`
	Seller          string     `json:"vendedor,omitempty"`
	Temperature     string     `json:"temperatura,omitempty"`
	Origin          string     `json:"origem,omitempty"`
	Notes           string     `json:"observacoes,omitempty"`
	StoreID         string     `json:"loja_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListFilter narrows List; zero fields match everything.
type ListFilter struct {
	StoreID string
	Status  string
	Seller  string
	From    *time.Time
	To      *time.Time
}

func ToDataModel(v *Visit) *visitDatamodel.Visita {
	return &visitDatamodel.Visita{
		ID:               v.ID,
		Cliente:          v.Client,
		Telefone:         v.Phone,
		Email:            v.Email,
		VeiculoInteresse: v.VehicleInterest,
		Status:           v.Status,
		DataAgendamento:  v.ScheduledAt,
		Vendedor:         v.Seller,
		Temperatura:      v.Temperature,
		Origem:           v.Origin,
		Observacoes:      v.Notes,
		LojaID:           v.StoreID,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func FromDataModel(v *visitDatamodel.Visita) *Visit {
	return &Visit{
		ID:              v.ID,
		Client:          v.Cliente,
		Phone:           v.Telefone,
		Email:           v.Email,
		VehicleInterest: v.VeiculoInteresse,
		Status:          v.Status,
		ScheduledAt:     v.DataAgendamento,
		Seller:          v.Vendedor,
		Temperature:     v.Temperatura,
		Origin:          v.Origem,
		Notes:           v.Observacoes,
		StoreID:         v.LojaID,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
