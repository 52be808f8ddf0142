package script

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	scriptDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/script"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/google/uuid"
)

// RepositoryAPI returns (nil, nil) from GetByID when the script is missing.
type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*scriptDatamodel.Script, error)
	GetByID(ctx context.Context, id string) (*scriptDatamodel.Script, error)
	Save(ctx context.Context, s *scriptDatamodel.Script) error
	// SaveAll writes every script or none of them.
	SaveAll(ctx context.Context, scripts []*scriptDatamodel.Script) error
	Delete(ctx context.Context, id string) error
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
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Script, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list scripts", "error", err)
		return nil, errors.NewInternalError("failed to list scripts", err)
	}
	scripts := make([]*Script, 0, len(rows))
	for _, row := range rows {
		scripts = append(scripts, FromDataModel(row))
	}
	return scripts, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Script, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Save creates the script when id is empty and replaces it otherwise.
func (s *Service) Save(ctx context.Context, id string, dto SaveScriptDTO) (*Script, error) {
	dto.Title = strings.TrimSpace(dto.Title)
	dto.Category = strings.TrimSpace(dto.Category)
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	sc := &Script{ID: uuid.NewString(), StoreID: dto.StoreID}
	if id != "" {
		row, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		sc = FromDataModel(row)
	}
	sc.Title = dto.Title
	sc.Content = dto.Content
	sc.Category = dto.Category
	sc.Order = dto.Order

	if err := s.store(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// Reorder assigns ordem 0..n-1 following ids. Every id must exist and appear
// once; the changed positions are written together or not at all.
func (s *Service) Reorder(ctx context.Context, dto ReorderDTO) ([]*Script, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	scripts := make([]*Script, 0, len(dto.IDs))
	for _, id := range dto.IDs {
		row, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, FromDataModel(row))
	}

	now := time.Now().UTC()
	var changed []*scriptDatamodel.Script
	for i, sc := range scripts {
		if sc.Order == i {
			continue
		}
		sc.Order = i
		sc.UpdatedAt = now
		changed = append(changed, ToDataModel(sc))
	}
	if len(changed) == 0 {
		return scripts, nil
	}

	if err := s.repo.SaveAll(ctx, changed); err != nil {
		s.logger.Error("failed to reorder scripts", "count", len(changed), "error", err)
		return nil, errors.NewInternalError("failed to reorder scripts", err)
	}
	for _, row := range changed {
		s.publish(ctx, events.NewRecordSavedEvent(TableName, row.ID))
	}
	return scripts, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		s.logger.Error("failed to delete script", "id", row.ID, "error", err)
		return errors.NewInternalError("failed to delete script", err)
	}
	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.ID))
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*scriptDatamodel.Script, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrScriptNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load script", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to load script", err)
	}
	if row == nil {
		return nil, errors.ErrScriptNotFound
	}
	return row, nil
}

func (s *Service) store(ctx context.Context, sc *Script) error {
	sc.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, ToDataModel(sc)); err != nil {
		s.logger.Error("failed to save script", "id", sc.ID, "error", err)
		return errors.NewInternalError("failed to save script", err)
	}
	s.publish(ctx, events.NewRecordSavedEvent(TableName, sc.ID))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish script event", "event_type", event.EventType(), "error", err)
	}
}
