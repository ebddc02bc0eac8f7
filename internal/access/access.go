// Package access decides what an authenticated actor may do.  It has two
// layers: a declarative permission table that answers "may this actor perform
// action X on resource Y" and a set of authority rules that gate which user
// account an administrator may act on.  Every function in this package is a
// pure predicate; callers pass the actor and target explicitly.
package access

import "strings"

// Role is a coarse-grained capability bucket assigned to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleUser  Role = "user"
)

// ParseRole normalizes a role name.  The second return value is false for
// names outside the seeded set.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleStaff, RoleUser:
		return r, true
	}
	return "", false
}

// PermissionLevel qualifies the staff role with read or write access.
type PermissionLevel string

const (
	LevelCanEdit PermissionLevel = "CAN_EDIT"
	LevelCanRead PermissionLevel = "CAN_READ"
)

// ParsePermissionLevel accepts CAN_EDIT / CAN_READ in any case.
func ParsePermissionLevel(s string) (PermissionLevel, bool) {
	switch l := PermissionLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelCanEdit, LevelCanRead:
		return l, true
	}
	return "", false
}

// Assignment binds a role to a user.  Level is only meaningful for staff.
type Assignment struct {
	Role  Role             `json:"role"`
	Level *PermissionLevel `json:"permission_level,omitempty"`
}

// NormalizeAssignment clears the level for admin and user roles and
// defaults staff to read-only access when no level was given.
func NormalizeAssignment(a Assignment) Assignment {
	if a.Role != RoleStaff {
		a.Level = nil
		return a
	}
	if a.Level == nil {
		lvl := LevelCanRead
		a.Level = &lvl
	}
	return a
}

// Actor is the caller of an operation.
type Actor struct {
	UserID     uint64
	Roles      []Assignment
	SuperAdmin bool
}

// Target is the user account an administrative action is aimed at.
type Target struct {
	UserID    uint64
	Roles     []Assignment
	FirstName string
	LastName  string
}

// HasRole reports whether any assignment carries the role.
func HasRole(roles []Assignment, r Role) bool {
	for _, a := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first assignment's role, or "" when the user has
// no assignment at all.  Repositories order assignments by role id so the
// most privileged role comes first.
func PrimaryRole(roles []Assignment) Role {
	if len(roles) == 0 {
		return ""
	}
	return roles[0].Role
}

// StaffLevel returns the permission level of the staff assignment, if any.
// With several staff rows the most permissive level wins.
func StaffLevel(roles []Assignment) (PermissionLevel, bool) {
	var (
		found bool
		level PermissionLevel
	)
	for _, a := range roles {
		if a.Role != RoleStaff || a.Level == nil {
			continue
		}
		if *a.Level == LevelCanEdit {
			return LevelCanEdit, true
		}
		level, found = *a.Level, true
	}
	return level, found
}

// IsStaffMember reports whether the actor belongs in the admin dashboard
// rather than the public careers experience.
func IsStaffMember(a Actor) bool {
	return HasRole(a.Roles, RoleAdmin) || HasRole(a.Roles, RoleStaff)
}
