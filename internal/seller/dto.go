package seller

import (
	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

type CreateSellerDTO struct {
	Name    string `json:"nome"`
	Phone   string `json:"telefone"`
	Email   string `json:"email"`
	StoreID string `json:"loja_id"`
}

func (dto CreateSellerDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("nome", dto.Name).Required().MaxLength(120)
	v.Field("telefone", dto.Phone).MaxLength(40)
	v.Field("email", dto.Email).MaxLength(200)
	return v.Validate()
}

type UpdateSellerDTO struct {
	Name  *string `json:"nome,omitempty"`
	Phone *string `json:"telefone,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (dto UpdateSellerDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("nome", *dto.Name).Required().MaxLength(120)
	}
	if dto.Phone != nil {
		v.Field("telefone", *dto.Phone).MaxLength(40)
	}
	if dto.Email != nil {
		v.Field("email", *dto.Email).MaxLength(200)
	}
	return v.Validate()
}

type SetActiveDTO struct {
	Active bool `json:"ativo"`
}

type SellersResponse struct {
	Sellers []*Seller `json:"vendedores"`
}
