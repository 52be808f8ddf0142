package user

import (
	"time"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/core/common/validation"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
)

type CreateUserDTO struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Name        string   `json:"nome"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	StoreID     string   `json:"loja_id"`
	// ResetPassword forces a password change at first login.
	ResetPassword bool `json:"reset_password"`
}

func (dto CreateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("username", dto.Username).Required().MinLength(3).MaxLength(50).NoSpaces(errors.ErrCodeInvalidUsername)
	v.Field("password", dto.Password).Required().MinLength(6).MaxLength(72)
	v.Field("nome", dto.Name).MaxLength(120)
	v.Field("role", dto.Role).Required().OneOf(coreuser.Roles(), errors.ErrCodeInvalidRole)
	return v.Validate()
}

// UpdateUserDTO only touches the fields that are set.
type UpdateUserDTO struct {
	Name        *string   `json:"nome,omitempty"`
	Role        *string   `json:"role,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	StoreID     *string   `json:"loja_id,omitempty"`
}

func (dto UpdateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("nome", *dto.Name).MaxLength(120)
	}
	if dto.Role != nil {
		v.Field("role", *dto.Role).Required().OneOf(coreuser.Roles(), errors.ErrCodeInvalidRole)
	}
	return v.Validate()
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (dto ChangePasswordDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("current_password", dto.CurrentPassword).Required()
	v.Field("new_password", dto.NewPassword).Required().MinLength(6).MaxLength(72)
	return v.Validate()
}

type ResetPasswordDTO struct {
	NewPassword string `json:"new_password"`
}

type SetActiveDTO struct {
	Active bool `json:"ativo"`
}

type UserResponse struct {
	Username      string    `json:"username"`
	Name          string    `json:"nome"`
	Role          string    `json:"role"`
	Active        bool      `json:"ativo"`
	Permissions   []string  `json:"permissions"`
	StoreID       string    `json:"loja_id,omitempty"`
	ResetPassword bool      `json:"reset_password"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}
