package stock

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	stockDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/google/uuid"
)

// RepositoryAPI returns (nil, nil) from GetByID when the item is missing.
type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*stockDatamodel.Estoque, error)
	GetByID(ctx context.Context, id string) (*stockDatamodel.Estoque, error)
	Create(ctx context.Context, e *stockDatamodel.Estoque) error
	Update(ctx context.Context, e *stockDatamodel.Estoque) error
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
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list stock", "error", err)
		return nil, errors.NewInternalError("failed to list stock", err)
	}

	items := make([]*Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Create always generates the id; items are no longer keyed by name.
func (s *Service) Create(ctx context.Context, dto CreateItemDTO) (*Item, error) {
	dto.Status = strings.ToLower(strings.TrimSpace(dto.Status))
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	item := &Item{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(dto.Name),
		Brand:     strings.TrimSpace(dto.Brand),
		Model:     strings.TrimSpace(dto.Model),
		Year:      dto.Year,
		Price:     dto.Price,
		Mileage:   dto.Mileage,
		Color:     strings.TrimSpace(dto.Color),
		Photos:    dto.Photos,
		Status:    dto.Status,
		StoreID:   dto.StoreID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if item.Status == "" {
		item.Status = StatusAvailable
	}
	if item.Photos == nil {
		item.Photos = []string{}
	}

	if err := s.repo.Create(ctx, ToDataModel(item)); err != nil {
		s.logger.Error("failed to create stock item", "nome", item.Name, "error", err)
		return nil, errors.NewInternalError("failed to create stock item", err)
	}

	s.logger.Info("stock item created", "id", item.ID, "nome", item.Name)
	s.publish(ctx, events.NewRecordSavedEvent(TableName, item.ID))
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateItemDTO) (*Item, error) {
	if dto.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*dto.Status))
		dto.Status = &status
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item := FromDataModel(row)

	if dto.Name != nil {
		item.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Brand != nil {
		item.Brand = strings.TrimSpace(*dto.Brand)
	}
	if dto.Model != nil {
		item.Model = strings.TrimSpace(*dto.Model)
	}
	if dto.Year != nil {
		item.Year = *dto.Year
	}
	if dto.Price != nil {
		item.Price = *dto.Price
	}
	if dto.Mileage != nil {
		item.Mileage = *dto.Mileage
	}
	if dto.Color != nil {
		item.Color = strings.TrimSpace(*dto.Color)
	}
	if dto.Status != nil {
		item.Status = *dto.Status
	}

	if err := s.store(ctx, item, "failed to update stock item"); err != nil {
		return nil, err
	}
	return item, nil
}

// SetPhotos replaces the photo list; order is the display order.
func (s *Service) SetPhotos(ctx context.Context, id string, photos []string) (*Item, error) {
	if appErr := (SetPhotosDTO{Photos: photos}).Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item := FromDataModel(row)
	item.Photos = photos
	if item.Photos == nil {
		item.Photos = []string{}
	}

	if err := s.store(ctx, item, "failed to update stock photos"); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, row.ID); err != nil {
		s.logger.Error("failed to delete stock item", "id", row.ID, "error", err)
		return errors.NewInternalError("failed to delete stock item", err)
	}

	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.ID))
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*stockDatamodel.Estoque, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrStockNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load stock item", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to load stock item", err)
	}
	if row == nil {
		return nil, errors.ErrStockNotFound
	}
	return row, nil
}

func (s *Service) store(ctx context.Context, item *Item, message string) error {
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, ToDataModel(item)); err != nil {
		s.logger.Error(message, "id", item.ID, "error", err)
		return errors.NewInternalError(message, err)
	}
	s.publish(ctx, events.NewRecordSavedEvent(TableName, item.ID))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish stock event", "event_type", event.EventType(), "error", err)
	}
}
