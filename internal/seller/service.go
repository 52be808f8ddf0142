package seller

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	sellerDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/seller"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/google/uuid"
)

// RepositoryAPI returns (nil, nil) from the getters when nothing matches.
type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*sellerDatamodel.Vendedor, error)
	GetByID(ctx context.Context, id string) (*sellerDatamodel.Vendedor, error)
	GetByName(ctx context.Context, storeID, name string) (*sellerDatamodel.Vendedor, error)
	Create(ctx context.Context, v *sellerDatamodel.Vendedor) error
	Update(ctx context.Context, v *sellerDatamodel.Vendedor) error
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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Seller, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to get sellers from repository", "error", err)
		return nil, errors.NewInternalError("failed to list sellers", err)
	}

	sellers := make([]*Seller, 0, len(rows))
	for _, row := range rows {
		sellers = append(sellers, FromDataModel(row))
	}
	s.logger.Debug("retrieved sellers", "count", len(sellers))
	return sellers, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Seller, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateSellerDTO) (*Seller, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	seller := &Seller{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(dto.Name),
		Phone:     strings.TrimSpace(dto.Phone),
		Email:     strings.TrimSpace(dto.Email),
		Active:    true,
		StoreID:   dto.StoreID,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ToDataModel(seller)); err != nil {
		s.logger.Error("failed to create seller", "nome", seller.Name, "error", err)
		return nil, errors.NewInternalError("failed to create seller", err)
	}

	s.logger.Info("seller created", "id", seller.ID, "nome", seller.Name)
	s.publish(ctx, events.NewRecordSavedEvent(TableName, seller.ID))
	return seller, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateSellerDTO) (*Seller, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	seller := FromDataModel(row)
	if dto.Name != nil {
		seller.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Phone != nil {
		seller.Phone = strings.TrimSpace(*dto.Phone)
	}
	if dto.Email != nil {
		seller.Email = strings.TrimSpace(*dto.Email)
	}
	seller.UpdatedAt = time.Now().UTC()

	if err := s.store(ctx, seller, "failed to update seller"); err != nil {
		return nil, err
	}
	return seller, nil
}

// SetActive keeps the row; inactive sellers can no longer be assigned to visits.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*Seller, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	seller := FromDataModel(row)
	if active {
		seller.Activate()
	} else {
		seller.Deactivate()
	}

	if err := s.store(ctx, seller, "failed to change seller status"); err != nil {
		return nil, err
	}
	s.logger.Info("seller status changed", "id", seller.ID, "ativo", active)
	return seller, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, row.ID); err != nil {
		s.logger.Error("failed to delete seller", "id", row.ID, "error", err)
		return errors.NewInternalError("failed to delete seller", err)
	}

	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.ID))
	return nil
}

// IsActiveSeller reports whether name belongs to an active seller of the
// store. Lookup failures count as not active.
func (s *Service) IsActiveSeller(ctx context.Context, storeID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	row, err := s.repo.GetByName(ctx, storeID, name)
	if err != nil {
		s.logger.Warn("error checking seller validity", "nome", name, "error", err)
		return false
	}
	return row != nil && FromDataModel(row).IsActiveSeller()
}

func (s *Service) load(ctx context.Context, id string) (*sellerDatamodel.Vendedor, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrSellerNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load seller", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to load seller", err)
	}
	if row == nil {
		return nil, errors.ErrSellerNotFound
	}
	return row, nil
}

func (s *Service) store(ctx context.Context, seller *Seller, message string) error {
	if err := s.repo.Update(ctx, ToDataModel(seller)); err != nil {
		s.logger.Error(message, "id", seller.ID, "error", err)
		return errors.NewInternalError(message, err)
	}
	s.publish(ctx, events.NewRecordSavedEvent(TableName, seller.ID))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish seller event", "event_type", event.EventType(), "error", err)
	}
}
