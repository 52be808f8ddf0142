package auth

// Screen permissions stored in usuarios.permissions. Managers hold all of them.
const (
	PermissionVisits   = "visitas"
	PermissionStock    = "estoque"
	PermissionSellers  = "vendedores"
	PermissionScripts  = "scripts"
	PermissionPortals  = "portais"
	PermissionSettings = "config"
)

type PermissionChecker interface {
	Allowed(user *User, permission string) bool
	HasAnyPermission(user *User, permissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) Allowed(user *User, permission string) bool {
	return c.HasAnyPermission(user, []string{permission})
}

// HasAnyPermission is true for managers, and for staff holding at least one
// of the permissions.
func (c *DefaultPermissionChecker) HasAnyPermission(user *User, permissions []string) bool {
	if user == nil {
		return false
	}
	if user.IsManager() {
		return true
	}
	for _, required := range permissions {
		for _, held := range user.Permissions {
			if held == required {
				return true
			}
		}
	}
	return false
}
