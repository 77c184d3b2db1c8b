// Package access implements tenant-scoped role authorization and bearer
// token verification for the admin API.
package access

import (
	"errors"
)

// Authorization failures. ErrUnauthenticated means the caller presented no
// usable identity; ErrForbidden means the identity is valid but lacks the
// role or tenant scope for the operation.
var (
	ErrUnauthenticated = errors.New("access: unauthenticated")
	ErrForbidden       = errors.New("access: forbidden")
)

// Role is a caller's privilege level within a tenant. RoleSuperAdmin is
// global and not bound to any tenant.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Principal is an authenticated caller. TenantID is empty for super
// admins.
type Principal struct {
	Subject  string
	Email    string
	Role     Role
	TenantID string
}

// Authorize checks that p holds one of the required roles for the target
// tenant. Super admins pass unconditionally. For everyone else the
// principal's tenant must exactly match the target; cross-tenant access is
// never granted, whatever the role.
func Authorize(p *Principal, required []Role, targetTenant string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.Role == RoleSuperAdmin {
		return nil
	}
	if p.TenantID == "" || p.TenantID != targetTenant {
		return ErrForbidden
	}
	for _, r := range required {
		if p.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
