// Package user holds the role model shared by the user and auth packages.
package user

import "strings"

type Role string

const (
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
	RoleMaster    Role = "master"
	RoleVendedor  Role = "vendedor"
	RoleSDR       Role = "sdr"
)

var roles = []Role{RoleDeveloper, RoleAdmin, RoleMaster, RoleVendedor, RoleSDR}

// Roles lists the accepted role names.
func Roles() []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// IsManager reports whether the role may manage users, settings and sync.
func (r Role) IsManager() bool {
	return r == RoleDeveloper || r == RoleAdmin || r == RoleMaster
}

// NormalizeUsername is the canonical form of a username; lookups are
// case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
