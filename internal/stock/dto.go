package stock

import (
	"net/url"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

const maxPhotos = 30

type CreateItemDTO struct {
	Name    string   `json:"nome"`
	Brand   string   `json:"marca"`
	Model   string   `json:"modelo"`
	Year    int      `json:"ano"`
	Price   float64  `json:"preco"`
	Mileage int      `json:"km"`
	Color   string   `json:"cor"`
	Photos  []string `json:"fotos"`
	Status  string   `json:"status"`
	StoreID string   `json:"loja_id"`
}

func (dto CreateItemDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("nome", dto.Name).Required().MaxLength(200)
	if dto.Year != 0 {
		v.Field("ano", dto.Year).MinInt(1900, errors.ErrCodeValidationFailed).MaxInt(int64(time.Now().Year()+1), errors.ErrCodeValidationFailed)
	}
	v.Field("preco", dto.Price).NonNegative()
	v.Field("km", dto.Mileage).NonNegative()
	v.Field("status", dto.Status).OneOf(statuses, errors.ErrCodeValidationFailed)
	v.Field("fotos", dto.Photos).Custom(validPhotos("fotos"))
	return v.Validate()
}

// UpdateItemDTO only touches the fields that are set.
type UpdateItemDTO struct {
	Name    *string  `json:"nome,omitempty"`
	Brand   *string  `json:"marca,omitempty"`
	Model   *string  `json:"modelo,omitempty"`
	Year    *int     `json:"ano,omitempty"`
	Price   *float64 `json:"preco,omitempty"`
	Mileage *int     `json:"km,omitempty"`
	Color   *string  `json:"cor,omitempty"`
	Status  *string  `json:"status,omitempty"`
}

func (dto UpdateItemDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("nome", *dto.Name).Required().MaxLength(200)
	}
	if dto.Year != nil && *dto.Year != 0 {
		v.Field("ano", *dto.Year).MinInt(1900, errors.ErrCodeValidationFailed).MaxInt(int64(time.Now().Year()+1), errors.ErrCodeValidationFailed)
	}
	if dto.Price != nil {
		v.Field("preco", *dto.Price).NonNegative()
	}
	if dto.Mileage != nil {
		v.Field("km", *dto.Mileage).NonNegative()
	}
	if dto.Status != nil {
		v.Field("status", *dto.Status).Required().OneOf(statuses, errors.ErrCodeValidationFailed)
	}
	return v.Validate()
}

type SetPhotosDTO struct {
	Photos []string `json:"fotos"`
}

func (dto SetPhotosDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("fotos", dto.Photos).Custom(validPhotos("fotos"))
	return v.Validate()
}

type ItemsResponse struct {
	Items []*Item `json:"estoque"`
}

func validPhotos(field string) validation.ValidatorFunc {
	return func(value interface{}) *errors.AppError {
		photos, _ := value.([]string)
		if len(photos) > maxPhotos {
			return errors.NewValidationFieldError(field, "too many photos", errors.ErrCodeValidationFailed)
		}
		for _, p := range photos {
			u, err := url.Parse(p)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return errors.NewValidationFieldError(field, "photos must be http(s) URLs", errors.ErrCodeValidationFailed)
			}
		}
		return nil
	}
}
