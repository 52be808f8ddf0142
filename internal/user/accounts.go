package user

import (
	"context"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/auth"
)

// Accounts exposes users to the auth service.
type Accounts struct {
	svc *Service
}

func NewAccounts(svc *Service) *Accounts {
	return &Accounts{svc: svc}
}

func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*auth.User, error) {
	u, err := a.svc.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return toAuthUser(u), nil
}

// Lookup rejects inactive accounts.
func (a *Accounts) Lookup(ctx context.Context, username string) (*auth.User, error) {
	u, err := a.svc.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.IsActiveUser() {
		return nil, errors.ErrUserInactive
	}
	return toAuthUser(u), nil
}

func toAuthUser(u *User) *auth.User {
	return &auth.User{
		Username:      u.Username,
		Name:          u.Name,
		Role:          u.Role,
		Permissions:   u.Permissions,
		StoreID:       u.StoreID,
		ResetPassword: u.ResetPassword,
	}
}
