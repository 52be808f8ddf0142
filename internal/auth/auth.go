package auth

import (
	"context"
	"time"

	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	"github.com/golang-jwt/jwt/v5"
)

// User is the signed-in account carried in the request context.
type User struct {
	Username      string        `json:"username"`
	Name          string        `json:"nome"`
	Role          coreuser.Role `json:"role"`
	Permissions   []string      `json:"permissions"`
	StoreID       string        `json:"loja_id,omitempty"`
	ResetPassword bool          `json:"reset_password"`
}

func (u *User) IsManager() bool {
	return u.Role.IsManager()
}

// Is compares usernames case-insensitively.
func (u *User) Is(username string) bool {
	return u.Username == coreuser.NormalizeUsername(username)
}

func (u *User) HasRole(roles ...coreuser.Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// UserStore is how auth reads accounts; the user package implements it.
type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Lookup(ctx context.Context, username string) (*User, error)
}

// TokenGenerator creates and checks signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(username string, role coreuser.Role) (string, error)
	GenerateRefreshToken(username string, role coreuser.Role) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ForcePasswordChange tells the client to ask for a new password first.
	ForcePasswordChange bool  `json:"force_password_change"`
	User                *User `json:"user,omitempty"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
