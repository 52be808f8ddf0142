package portal

import (
	"net/url"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

type SavePortalDTO struct {
	Name    string `json:"nome"`
	URL     string `json:"url"`
	Active  *bool  `json:"ativo,omitempty"`
	StoreID string `json:"loja_id"`
}

func (dto SavePortalDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("nome", dto.Name).Required().MaxLength(120)
	v.Field("url", dto.URL).MaxLength(500).Custom(func(value interface{}) *errors.AppError {
		raw, _ := value.(string)
		if raw == "" {
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.NewValidationFieldError("url", "url must be an http(s) address", errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return v.Validate()
}

type PortalsResponse struct {
	Portals []*Portal `json:"portais"`
}
