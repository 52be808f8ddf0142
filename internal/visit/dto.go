package visit

import (
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

var temperatures = []string{"quente", "morno", "frio"}

type CreateVisitDTO struct {
	Client          string     `json:"cliente"`
	Phone           string     `json:"telefone"`
	Email           string     `json:"email"`
	VehicleInterest string     `json:"veiculo_interesse"`
	Status          string     `json:"status"`
	ScheduledAt     *time.Time `json:"data_agendamento"`
	Seller          string     `json:"vendedor"`
	Temperature     string     `json:"temperatura"`
	Origin          string     `json:"origem"`
	Notes           string     `json:"observacoes"`
	StoreID         string     `json:"loja_id"`
}

func (dto CreateVisitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("cliente", dto.Client).Required().MaxLength(200)
	v.Field("telefone", dto.Phone).MaxLength(40)
	v.Field("status", dto.Status).MaxLength(60)
	v.Field("temperatura", dto.Temperature).OneOf(temperatures, errors.ErrCodeValidationFailed)
	v.Field("observacoes", dto.Notes).MaxLength(4000)
	return v.Validate()
}

// UpdateVisitDTO only touches the fields that are set.
type UpdateVisitDTO struct {
	Client          *string    `json:"cliente,omitempty"`
	Phone           *string    `json:"telefone,omitempty"`
	Email           *string    `json:"email,omitempty"`
	VehicleInterest *string    `json:"veiculo_interesse,omitempty"`
	Status          *string    `json:"status,omitempty"`
	ScheduledAt     *time.Time `json:"data_agendamento,omitempty"`
	Seller          *string    `json:"vendedor,omitempty"`
	Temperature     *string    `json:"temperatura,omitempty"`
	Origin          *string    `json:"origem,omitempty"`
	Notes           *string    `json:"observacoes,omitempty"`
}

func (dto UpdateVisitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Client != nil {
		v.Field("cliente", *dto.Client).Required().MaxLength(200)
	}
	if dto.Status != nil {
		v.Field("status", *dto.Status).Required().MaxLength(60)
	}
	if dto.Temperature != nil {
		v.Field("temperatura", *dto.Temperature).OneOf(temperatures, errors.ErrCodeValidationFailed)
	}
	if dto.Notes != nil {
		v.Field("observacoes", *dto.Notes).MaxLength(4000)
	}
	return v.Validate()
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

type AssignSellerDTO struct {
	Seller string `json:"vendedor"`
}

type VisitsResponse struct {
	Visits []*Visit `json:"visitas"`
}
