package visit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	visitDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/google/uuid"
)

// RepositoryAPI returns (nil, nil) from GetByID when the visit is missing.
type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*visitDatamodel.Visita, error)
	GetByID(ctx context.Context, id string) (*visitDatamodel.Visita, error)
	Create(ctx context.Context, v *visitDatamodel.Visita) error
	Update(ctx context.Context, v *visitDatamodel.Visita) error
	Delete(ctx context.Context, id string) error
}

// SellerChecker reports whether a seller name may be assigned to visits of a store.
type SellerChecker interface {
	IsActiveSeller(ctx context.Context, storeID, name string) bool
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	sellers   SellerChecker
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

// UseSellers turns on seller validation for Create and AssignSeller.
func (s *Service) UseSellers(checker SellerChecker) {
	s.sellers = checker
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Visit, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list visits", "error", err)
		return nil, errors.NewInternalError("failed to list visits", err)
	}

	visits := make([]*Visit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, FromDataModel(row))
	}
	return visits, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Visit, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateVisitDTO) (*Visit, error) {
	dto.Temperature = strings.ToLower(strings.TrimSpace(dto.Temperature))
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	v := &Visit{
		ID:              uuid.NewString(),
		Client:          strings.TrimSpace(dto.Client),
		Phone:           strings.TrimSpace(dto.Phone),
		Email:           strings.TrimSpace(dto.Email),
		VehicleInterest: dto.VehicleInterest,
		Status:          strings.TrimSpace(dto.Status),
		ScheduledAt:     dto.ScheduledAt,
		Seller:          strings.TrimSpace(dto.Seller),
		Temperature:     dto.Temperature,
		Origin:          dto.Origin,
		Notes:           dto.Notes,
		StoreID:         dto.StoreID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if v.Status == "" {
		v.Status = StatusPending
	}
	if appErr := s.checkSeller(ctx, v.StoreID, v.Seller); appErr != nil {
		return nil, appErr
	}

	if err := s.repo.Create(ctx, ToDataModel(v)); err != nil {
		s.logger.Error("failed to create visit", "client", v.Client, "error", err)
		return nil, errors.NewInternalError("failed to create visit", err)
	}

	s.logger.Info("visit created", "id", v.ID, "status", v.Status)
	s.publish(ctx, events.NewRecordSavedEvent(TableName, v.ID))
	return v, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateVisitDTO) (*Visit, error) {
	if dto.Temperature != nil {
		t := strings.ToLower(strings.TrimSpace(*dto.Temperature))
		dto.Temperature = &t
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := FromDataModel(row)
	previousSeller := v.Seller

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&v.Client, dto.Client)
	set(&v.Phone, dto.Phone)
	set(&v.Email, dto.Email)
	set(&v.VehicleInterest, dto.VehicleInterest)
	set(&v.Status, dto.Status)
	set(&v.Seller, dto.Seller)
	set(&v.Temperature, dto.Temperature)
	set(&v.Origin, dto.Origin)
	set(&v.Notes, dto.Notes)
	if dto.ScheduledAt != nil {
		v.ScheduledAt = dto.ScheduledAt
	}
	// an unchanged seller is accepted even if it was deactivated since
	if v.Seller != previousSeller {
		if appErr := s.checkSeller(ctx, v.StoreID, v.Seller); appErr != nil {
			return nil, appErr
		}
	}

	if err := s.store(ctx, v, "failed to update visit"); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateStatus moves a visit along the pipeline.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Visit, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, errors.NewValidationFieldError("status", "status is required", errors.ErrCodeValidationFailed)
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := FromDataModel(row)
	previous := v.Status
	v.Status = status

	if err := s.store(ctx, v, "failed to update visit status"); err != nil {
		return nil, err
	}
	s.logger.Info("visit status changed", "id", v.ID, "from", previous, "to", status)
	return v, nil
}

// AssignSeller sets the seller; an empty name unassigns.
func (s *Service) AssignSeller(ctx context.Context, id, seller string) (*Visit, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := FromDataModel(row)
	v.Seller = strings.TrimSpace(seller)
	if appErr := s.checkSeller(ctx, v.StoreID, v.Seller); appErr != nil {
		return nil, appErr
	}

	if err := s.store(ctx, v, "failed to assign seller"); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, row.ID); err != nil {
		s.logger.Error("failed to delete visit", "id", row.ID, "error", err)
		return errors.NewInternalError("failed to delete visit", err)
	}

	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.ID))
	return nil
}

func (s *Service) checkSeller(ctx context.Context, storeID, seller string) *errors.AppError {
	if s.sellers == nil || seller == "" {
		return nil
	}
	if !s.sellers.IsActiveSeller(ctx, storeID, seller) {
		return errors.NewValidationFieldError("vendedor", "vendedor is not an active seller", errors.ErrCodeSellerInactive)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*visitDatamodel.Visita, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrVisitNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load visit", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to load visit", err)
	}
	if row == nil {
		return nil, errors.ErrVisitNotFound
	}
	return row, nil
}

func (s *Service) store(ctx context.Context, v *Visit, message string) error {
	v.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, ToDataModel(v)); err != nil {
		s.logger.Error(message, "id", v.ID, "error", err)
		return errors.NewInternalError(message, err)
	}
	s.publish(ctx, events.NewRecordSavedEvent(TableName, v.ID))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish visit event", "event_type", event.EventType(), "error", err)
	}
}
