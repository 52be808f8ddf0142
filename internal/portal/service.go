package portal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	portalDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/portal"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/google/uuid"
)

// RepositoryAPI returns (nil, nil) from GetByID when the portal is missing.
type RepositoryAPI interface {
	List(ctx context.Context, storeID string) ([]*portalDatamodel.Portal, error)
	GetByID(ctx context.Context, id string) (*portalDatamodel.Portal, error)
	Save(ctx context.Context, p *portalDatamodel.Portal) error
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

func (s *Service) List(ctx context.Context, storeID string) ([]*Portal, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		s.logger.Error("failed to list portals", "error", err)
		return nil, errors.NewInternalError("failed to list portals", err)
	}
	portals := make([]*Portal, 0, len(rows))
	for _, row := range rows {
		portals = append(portals, FromDataModel(row))
	}
	return portals, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Portal, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Save creates the portal when id is empty and replaces it otherwise.
func (s *Service) Save(ctx context.Context, id string, dto SavePortalDTO) (*Portal, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.URL = strings.TrimSpace(dto.URL)
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	p := &Portal{ID: uuid.NewString(), Active: true, StoreID: dto.StoreID}
	if id != "" {
		row, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		p = FromDataModel(row)
	}
	p.Name = dto.Name
	p.URL = dto.URL
	if dto.Active != nil {
		p.Active = *dto.Active
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, ToDataModel(p)); err != nil {
		s.logger.Error("failed to save portal", "id", p.ID, "error", err)
		return nil, errors.NewInternalError("failed to save portal", err)
	}
	s.publish(ctx, events.NewRecordSavedEvent(TableName, p.ID))
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		s.logger.Error("failed to delete portal", "id", row.ID, "error", err)
		return errors.NewInternalError("failed to delete portal", err)
	}
	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.ID))
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*portalDatamodel.Portal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrPortalNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load portal", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to load portal", err)
	}
	if row == nil {
		return nil, errors.ErrPortalNotFound
	}
	return row, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish portal event", "event_type", event.EventType(), "error", err)
	}
}
