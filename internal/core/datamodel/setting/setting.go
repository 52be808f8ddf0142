package setting

import "time"

// CrmSetting is the generic key/value store. AI prompts and Meta API
// credentials live here in plaintext.
type CrmSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value"`
	Category  string    `gorm:"column:category"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CrmSetting) TableName() string {
	return "crm_settings"
}

// Config is the per-store key/value table pulled alongside crm_settings.
type Config struct {
	Chave     string    `gorm:"column:chave;primaryKey"`
	Valor     string    `gorm:"column:valor"`
	LojaID    string    `gorm:"column:loja_id;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Config) TableName() string {
	return "config"
}
