package setting

import (
	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
)

type SetSettingDTO struct {
	Value    string `json:"value"`
	Category string `json:"category"`
}

type SetConfigDTO struct {
	Value string `json:"valor"`
}

// BulkSettingsDTO writes several settings at once, as the settings screen does.
type BulkSettingsDTO struct {
	Settings []Setting `json:"settings"`
}

func (dto BulkSettingsDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("settings", len(dto.Settings)).MinInt(1, errors.ErrCodeValidationFailed)
	for _, s := range dto.Settings {
		v.Field("key", s.Key).Required().MaxLength(200).NoSpaces(errors.ErrCodeInvalidKey)
	}
	return v.Validate()
}

type SettingsResponse struct {
	Settings []*Setting `json:"settings"`
}

type ConfigResponse struct {
	Config []*ConfigEntry `json:"config"`
}
