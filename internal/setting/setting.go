package setting

import (
	"time"

	settingDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/setting"
)

const (
	SettingsTable = "crm_settings"
	ConfigTable   = "config"
)

// Setting is a crm_settings entry. AI prompts and Meta API credentials are
// kept here as plain text.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Category  string    `json:"category,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigEntry is a store-scoped config row.
type ConfigEntry struct {
	Key       string    `json:"chave"`
	Value     string    `json:"valor"`
	StoreID   string    `json:"loja_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func SettingToDataModel(s *Setting) *settingDatamodel.CrmSetting {
	return &settingDatamodel.CrmSetting{
		Key:       s.Key,
		Value:     s.Value,
		Category:  s.Category,
		UpdatedAt: s.UpdatedAt,
	}
}

func SettingFromDataModel(s *settingDatamodel.CrmSetting) *Setting {
	return &Setting{
		Key:       s.Key,
		Value:     s.Value,
		Category:  s.Category,
		UpdatedAt: s.UpdatedAt,
	}
}

func ConfigToDataModel(c *ConfigEntry) *settingDatamodel.Config {
	return &settingDatamodel.Config{
		Chave:     c.Key,
		Valor:     c.Value,
		LojaID:    c.StoreID,
		UpdatedAt: c.UpdatedAt,
	}
}

func ConfigFromDataModel(c *settingDatamodel.Config) *ConfigEntry {
	return &ConfigEntry{
		Key:       c.Chave,
		Value:     c.Valor,
		StoreID:   c.LojaID,
		UpdatedAt: c.UpdatedAt,
	}
}
