package auth

// Back-office roles carried by admin-realm tokens.
const (
	RoleViewer     = "viewer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// IsAdminRole reports whether role is one the back office issues.
func IsAdminRole(role string) bool {
	switch role {
	case RoleViewer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// WriteRoles returns roles that can approve, reject, confirm and refund.
func WriteRoles() []string {
	return []string{RoleAdmin, RoleSuperAdmin}
}
