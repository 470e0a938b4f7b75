package auth

// Package auth contains domain-level types for authentication, sessions and
// route permissions. It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"time"
)

// Role is the closed set of console roles issued by the competency backend.
// The zero value is not a valid role.
type Role uint8

const (
	roleUnknown Role = iota
	RoleHR
	RoleHOD
	RoleEmployee
	RoleAdmin
)

// AllRoles lists every valid role in display order.
func AllRoles() []Role { return []Role{RoleHR, RoleHOD, RoleEmployee, RoleAdmin} }

// InvalidRoleError is returned by ParseRole for values outside the role set.
type InvalidRoleError struct{ Value string }

func (e InvalidRoleError) Error() string { return fmt.Sprintf("invalid role %q", e.Value) }

// ParseRole maps the backend wire value to a Role. Matching is exact and
// case-sensitive.
func ParseRole(s string) (Role, error) {
	switch s {
	case "HR":
		return RoleHR, nil
	case "HOD":
		return RoleHOD, nil
	case "Employee":
		return RoleEmployee, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return roleUnknown, InvalidRoleError{Value: s}
	}
}

// String returns the wire value of the role.
func (r Role) String() string {
	switch r {
	case RoleHR:
		return "HR"
	case RoleHOD:
		return "HOD"
	case RoleEmployee:
		return "Employee"
	case RoleAdmin:
		return "ADMIN"
	default:
		return ""
	}
}

// Valid reports whether r is one of the four console roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHR, RoleHOD, RoleEmployee, RoleAdmin:
		return true
	default:
		return false
	}
}

// MarshalText encodes the role using its wire value.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, InvalidRoleError{Value: fmt.Sprintf("Role(%d)", uint8(r))}
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a wire value into a role.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is a small immutable set of roles.
type RoleSet struct {
	bits uint8
}

// NewRoleSet builds a set from the given roles. Invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s.bits |= 1 << r
		}
	}
	return s
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s.bits&(1<<r) != 0
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool { return s.bits == 0 }

// Roles returns the members in display order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(AllRoles()))
	for _, r := range AllRoles() {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier carried in the session cookie.
type Session struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	DepartmentCode string    `json:"department_code"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
