// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # Account Roles

// Role is the side of the marketplace an account belongs to.
//
// The string value doubles as the route segment of the identity service
// (`/api/v1/{role}/...`) and as the persisted `auth_route` value.
type Role string

const (
	// Posts tasks and hires helpers
	RoleClient Role = "client"

	// Applies to and performs tasks; must verify an institutional email
	RoleHelper Role = "helper"
)

// # Role Parsing

// ParseRole converts a raw value into a known [Role].
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleClient, RoleHelper:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleHelper
}

// String implements [fmt.Stringer].
func (r Role) String() string {
	return string(r)
}

// RequiresEmail reports whether accounts of this role must verify an email
// address before they can complete their profile.
func (r Role) RequiresEmail() bool {
	return r == RoleHelper
}
