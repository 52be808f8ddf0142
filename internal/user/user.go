package user

import (
	"time"

	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	userDatamodel "github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	"github.com/frahmantamala/dealership-crm/internal/core/datamodel/jsontype"
)

// TableName is the synced table users live in.
const TableName = "usuarios"

type User struct {
	Username      string        `json:"username"`
	Name          string        `json:"nome"`
	PasswordHash  string        `json:"-"`
	Role          coreuser.Role `json:"role"`
	Active        bool          `json:"ativo"`
	Permissions   []string      `json:"permissions"`
	StoreID       string        `json:"loja_id,omitempty"`
	ResetPassword bool          `json:"reset_password"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (u *User) IsActiveUser() bool {
	return u.Active
}

func (u *User) IsManager() bool {
	return u.Role.IsManager()
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) ToResponse() UserResponse {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return UserResponse{
		Username:      u.Username,
		Name:          u.Name,
		Role:          string(u.Role),
		Active:        u.Active,
		Permissions:   perms,
		StoreID:       u.StoreID,
		ResetPassword: u.ResetPassword,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.Usuario {
	return &userDatamodel.Usuario{
		Username:      u.Username,
		Password:      u.PasswordHash,
		Nome:          u.Name,
		Role:          string(u.Role),
		Ativo:         u.Active,
		Permissions:   jsontype.StringList(u.Permissions),
		LojaID:        u.StoreID,
		ResetPassword: u.ResetPassword,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.Usuario) *User {
	perms := []string(u.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return &User{
		Username:      u.Username,
		Name:          u.Nome,
		PasswordHash:  u.Password,
		Role:          coreuser.Role(u.Role),
		Active:        u.Ativo,
		Permissions:   perms,
		StoreID:       u.LojaID,
		ResetPassword: u.ResetPassword,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
