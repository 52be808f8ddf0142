package script

import (
	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

type SaveScriptDTO struct {
	Title    string `json:"titulo"`
	Content  string `json:"conteudo"`
	Category string `json:"categoria"`
	Order    int    `json:"ordem"`
	StoreID  string `json:"loja_id"`
}

func (dto SaveScriptDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("titulo", dto.Title).Required().MaxLength(200)
	v.Field("conteudo", dto.Content).Required().MaxLength(20000)
	v.Field("categoria", dto.Category).MaxLength(80)
	v.Field("ordem", dto.Order).NonNegative()
	return v.Validate()
}

// ReorderDTO lists script ids in their new display order.
type ReorderDTO struct {
	IDs []string `json:"ids"`
}

func (dto ReorderDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("ids", len(dto.IDs)).MinInt(1, errors.ErrCodeValidationFailed)
	v.Field("ids", dto.IDs).Custom(func(value interface{}) *errors.AppError {
		seen := make(map[string]struct{}, len(dto.IDs))
		for _, id := range dto.IDs {
			if _, dup := seen[id]; dup {
				return errors.NewValidationFieldError("ids", "ids must not repeat: "+id, errors.ErrCodeValidationFailed)
			}
			seen[id] = struct{}{}
		}
		return nil
	})
	return v.Validate()
}

type ScriptsResponse struct {
	Scripts []*Script `json:"scripts"`
}
