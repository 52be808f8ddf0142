package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryAPI returns (nil, nil) from GetByUsername when the user is missing.
type RepositoryAPI interface {
	List(ctx context.Context, storeID string) ([]*userDatamodel.Usuario, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.Usuario, error)
	Create(ctx context.Context, u *userDatamodel.Usuario) error
	Update(ctx context.Context, u *userDatamodel.Usuario) error
	Delete(ctx context.Context, username string) error
}

type Service struct {
	repo       RepositoryAPI
	publisher  events.Publisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// List returns every user, or only those of storeID when it is set.
func (s *Service) List(ctx context.Context, storeID string) ([]*User, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		s.logger.Error("failed to list users", "store_id", storeID, "error", err)
		return nil, errors.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	row, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Username = coreuser.NormalizeUsername(dto.Username)
	dto.Role = strings.ToLower(strings.TrimSpace(dto.Role))
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, errors.NewInternalError("failed to check username", err)
	}
	if existing != nil {
		return nil, errors.ErrUserExists
	}

	hash, err := s.hash(dto.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role, _ := coreuser.ParseRole(dto.Role)
	u := &User{
		Username:      dto.Username,
		Name:          strings.TrimSpace(dto.Name),
		PasswordHash:  hash,
		Role:          role,
		Active:        true,
		Permissions:   dto.Permissions,
		StoreID:       dto.StoreID,
		ResetPassword: dto.ResetPassword,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}

	if err := s.repo.Create(ctx, ToDataModel(u)); err != nil {
		s.logger.Error("failed to create user", "username", u.Username, "error", err)
		return nil, errors.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "username", u.Username, "role", u.Role)
	s.saved(ctx, u.Username)
	return u, nil
}

func (s *Service) Update(ctx context.Context, username string, dto UpdateUserDTO) (*User, error) {
	if dto.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*dto.Role))
		dto.Role = &role
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	u := FromDataModel(row)

	if dto.Name != nil {
		u.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Role != nil {
		u.Role, _ = coreuser.ParseRole(*dto.Role)
	}
	if dto.Permissions != nil {
		u.Permissions = *dto.Permissions
	}
	if dto.StoreID != nil {
		u.StoreID = *dto.StoreID
	}

	if err := s.store(ctx, u, "failed to update user"); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the user locally; the delete is pushed to the cloud by the
// record.deleted subscriber.
func (s *Service) Delete(ctx context.Context, username string) error {
	row, err := s.load(ctx, username)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, row.Username); err != nil {
		s.logger.Error("failed to delete user", "username", row.Username, "error", err)
		return errors.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "username", row.Username)
	s.publish(ctx, events.NewRecordDeletedEvent(TableName, row.Username))
	return nil
}

func (s *Service) SetActive(ctx context.Context, username string, active bool) (*User, error) {
	row, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	u := FromDataModel(row)
	u.Active = active
	if err := s.store(ctx, u, "failed to update user status"); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword is the user's own change; it clears the forced-reset flag.
func (s *Service) ChangePassword(ctx context.Context, username string, dto ChangePasswordDTO) error {
	if appErr := dto.Validate(); appErr != nil {
		return appErr
	}

	row, err := s.load(ctx, username)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(dto.CurrentPassword)) != nil {
		return errors.ErrInvalidCredentials
	}

	hash, err := s.hash(dto.NewPassword)
	if err != nil {
		return err
	}
	u := FromDataModel(row)
	u.PasswordHash = hash
	u.ResetPassword = false
	return s.store(ctx, u, "failed to change password")
}

// ResetPassword is a manager setting a temporary password; the user must
// change it at the next login.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	if appErr := validation.ValidatePassword(newPassword); appErr != nil {
		return appErr
	}

	row, err := s.load(ctx, username)
	if err != nil {
		return err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	u := FromDataModel(row)
	u.PasswordHash = hash
	u.ResetPassword = true
	return s.store(ctx, u, "failed to reset password")
}

// Authenticate checks a login. Unknown users and wrong passwords give the
// same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row, err := s.repo.GetByUsername(ctx, coreuser.NormalizeUsername(username))
	if err != nil {
		return nil, errors.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, errors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(password)) != nil {
		s.logger.Warn("failed login", "username", row.Username)
		return nil, errors.ErrInvalidCredentials
	}
	if !row.Ativo {
		return nil, errors.ErrUserInactive
	}
	return FromDataModel(row), nil
}

func (s *Service) load(ctx context.Context, username string) (*userDatamodel.Usuario, error) {
	username = coreuser.NormalizeUsername(username)
	if username == "" {
		return nil, errors.ErrUserNotFound
	}
	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to load user", "username", username, "error", err)
		return nil, errors.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, errors.ErrUserNotFound
	}
	return row, nil
}

func (s *Service) store(ctx context.Context, u *User, message string) error {
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, ToDataModel(u)); err != nil {
		s.logger.Error(message, "username", u.Username, "error", err)
		return errors.NewInternalError(message, err)
	}
	s.saved(ctx, u.Username)
	return nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash password", fmt.Errorf("bcrypt: %w", err))
	}
	return string(b), nil
}

func (s *Service) saved(ctx context.Context, username string) {
	s.publish(ctx, events.NewRecordSavedEvent(TableName, username))
}

// publish never fails the local write.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish user event", "event_type", event.EventType(), "error", err)
	}
}
