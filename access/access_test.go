package access_test

import (
	"errors"
	"testing"

	"github.com/canopysites/canopy/access"
)

// --- Authorize Tests ---

func TestAuthorize(t *testing.T) {
	editors := []access.Role{access.RoleAdmin, access.RoleEditor}

	cases := []struct {
		name      string
		principal *access.Principal
		required  []access.Role
		tenant    string
		want      error
	}{
		{
			name: "nil principal",
			want: access.ErrUnauthenticated,
		},
		{
			name:      "super admin passes any tenant",
			principal: &access.Principal{Subject: "root", Role: access.RoleSuperAdmin},
			required:  editors,
			tenant:    "acme",
		},
		{
			name:      "super admin passes global operations",
			principal: &access.Principal{Subject: "root", Role: access.RoleSuperAdmin},
		},
		{
			name:      "matching tenant and role",
			principal: &access.Principal{Subject: "u1", Role: access.RoleEditor, TenantID: "acme"},
			required:  editors,
			tenant:    "acme",
		},
		{
			name:      "wrong tenant",
			principal: &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "globex"},
			required:  editors,
			tenant:    "acme",
			want:      access.ErrForbidden,
		},
		{
			name:      "insufficient role",
			principal: &access.Principal{Subject: "u1", Role: access.RoleViewer, TenantID: "acme"},
			required:  editors,
			tenant:    "acme",
			want:      access.ErrForbidden,
		},
		{
			name:      "tenant-bound caller on global operation",
			principal: &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"},
			tenant:    "",
			want:      access.ErrForbidden,
		},
		{
			name:      "principal without tenant",
			principal: &access.Principal{Subject: "u1", Role: access.RoleAdmin},
			required:  editors,
			tenant:    "acme",
			want:      access.ErrForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := access.Authorize(tc.principal, tc.required, tc.tenant)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Errorf("Authorize() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []access.Role{access.RoleSuperAdmin, access.RoleAdmin, access.RoleEditor, access.RoleViewer} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if access.Role("owner").Valid() {
		t.Error("unknown role must be invalid")
	}
}
