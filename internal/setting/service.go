package setting

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
	settingDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/setting"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
)

// RepositoryAPI returns (nil, nil) from the getters when the key is missing.
// Save methods upsert.
type RepositoryAPI interface {
	AllSettings(ctx context.Context, category string) ([]*settingDatamodel.CrmSetting, error)
	GetSetting(ctx context.Context, key string) (*settingDatamodel.CrmSetting, error)
	SaveSetting(ctx context.Context, s *settingDatamodel.CrmSetting) error
	DeleteSetting(ctx context.Context, key string) (bool, error)

	AllConfig(ctx context.Context, storeID string) ([]*settingDatamodel.Config, error)
	GetConfig(ctx context.Context, key string) (*settingDatamodel.Config, error)
	SaveConfig(ctx context.Context, c *settingDatamodel.Config) error
	DeleteConfig(ctx context.Context, key string) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// All lists settings, optionally of one category.
func (s *Service) All(ctx context.Context, category string) ([]*Setting, error) {
	rows, err := s.repo.AllSettings(ctx, category)
	if err != nil {
		s.logger.Error("failed to list settings", "category", category, "error", err)
		return nil, errors.NewInternalError("failed to list settings", err)
	}
	out := make([]*Setting, 0, len(rows))
	for _, row := range rows {
		out = append(out, SettingFromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	key = strings.TrimSpace(key)
	row, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return nil, errors.NewInternalError("failed to load setting", err)
	}
	if row == nil {
		return nil, errors.ErrSettingNotFound
	}
	return SettingFromDataModel(row), nil
}

// Value returns the setting value, or fallback when it is unset.
func (s *Service) Value(ctx context.Context, key, fallback string) string {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return setting.Value
}

func (s *Service) Set(ctx context.Context, key string, dto SetSettingDTO) (*Setting, error) {
	key = strings.TrimSpace(key)
	if appErr := validation.ValidateKey("key", key); appErr != nil {
		return nil, appErr
	}

	setting := &Setting{
		Key:       key,
		Value:     dto.Value,
		Category:  strings.TrimSpace(dto.Category),
		UpdatedAt: time.Now().UTC(),
	}
	if setting.Category == "" {
		if existing, err := s.repo.GetSetting(ctx, key); err == nil && existing != nil {
			setting.Category = existing.Category
		}
	}

	if err := s.repo.SaveSetting(ctx, SettingToDataModel(setting)); err != nil {
		s.logger.Error("failed to save setting", "key", key, "error", err)
		return nil, errors.NewInternalError("failed to save setting", err)
	}

	s.publish(ctx, events.NewRecordSavedEvent(SettingsTable, key))
	return setting, nil
}

// SetMany saves every entry; it stops at the first failure.
func (s *Service) SetMany(ctx context.Context, dto BulkSettingsDTO) ([]*Setting, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	out := make([]*Setting, 0, len(dto.Settings))
	for _, entry := range dto.Settings {
		saved, err := s.Set(ctx, entry.Key, SetSettingDTO{Value: entry.Value, Category: entry.Category})
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	deleted, err := s.repo.DeleteSetting(ctx, key)
	if err != nil {
		return errors.NewInternalError("failed to delete setting", err)
	}
	if !deleted {
		return errors.ErrSettingNotFound
	}

	s.publish(ctx, events.NewRecordDeletedEvent(SettingsTable, key))
	return nil
}

func (s *Service) AllConfig(ctx context.Context, storeID string) ([]*ConfigEntry, error) {
	rows, err := s.repo.AllConfig(ctx, storeID)
	if err != nil {
		s.logger.Error("failed to list config", "store_id", storeID, "error", err)
		return nil, errors.NewInternalError("failed to list config", err)
	}
	out := make([]*ConfigEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ConfigFromDataModel(row))
	}
	return out, nil
}

func (s *Service) GetConfig(ctx context.Context, key string) (*ConfigEntry, error) {
	row, err := s.repo.GetConfig(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, errors.NewInternalError("failed to load config", err)
	}
	if row == nil {
		return nil, errors.ErrSettingNotFound
	}
	return ConfigFromDataModel(row), nil
}

func (s *Service) SetConfig(ctx context.Context, key, value, storeID string) (*ConfigEntry, error) {
	key = strings.TrimSpace(key)
	if appErr := validation.ValidateKey("chave", key); appErr != nil {
		return nil, appErr
	}

	entry := &ConfigEntry{
		Key:       key,
		Value:     value,
		StoreID:   storeID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveConfig(ctx, ConfigToDataModel(entry)); err != nil {
		s.logger.Error("failed to save config", "chave", key, "error", err)
		return nil, errors.NewInternalError("failed to save config", err)
	}

	s.publish(ctx, events.NewRecordSavedEvent(ConfigTable, key))
	return entry, nil
}

func (s *Service) DeleteConfig(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	deleted, err := s.repo.DeleteConfig(ctx, key)
	if err != nil {
		return errors.NewInternalError("failed to delete config", err)
	}
	if !deleted {
		return errors.ErrSettingNotFound
	}

	s.publish(ctx, events.NewRecordDeletedEvent(ConfigTable, key))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish setting event", "event_type", event.EventType(), "error", err)
	}
}
