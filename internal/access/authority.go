package access

import "strings"

// canManage is the shared gate behind role, active-status and delete changes:
// the actor needs user-management permission, may never act on their own
// account, and needs super-admin standing to act on another admin.
func canManage(a Actor, t Target, p Permission) bool {
	if !HasPermission(a, p) {
		return false
	}
	if a.UserID == t.UserID {
		return false
	}
	if HasRole(t.Roles, RoleAdmin) && !a.SuperAdmin {
		return false
	}
	return true
}

// CanChangeRole gates the role selector for a target user.
func CanChangeRole(a Actor, t Target) bool { return canManage(a, t, UsersEdit) }

// CanGrantRole reports whether the actor may hand out role r, by invitation
// or role change.  Granting admin takes super-admin standing.
func CanGrantRole(a Actor, r Role) bool {
	if !HasPermission(a, UsersEdit) && !HasPermission(a, UsersInvite) {
		return false
	}
	return r != RoleAdmin || a.SuperAdmin
}

// CanToggleActive gates activating or deactivating a target user.
func CanToggleActive(a Actor, t Target) bool { return canManage(a, t, UsersEdit) }

// CanDelete gates hard-deleting a target user.
func CanDelete(a Actor, t Target) bool { return canManage(a, t, UsersDelete) }

// CanChangePermissionLevel only applies to targets whose primary role is
// staff; admin and user targets carry no level.
func CanChangePermissionLevel(a Actor, t Target) bool {
	if PrimaryRole(t.Roles) != RoleStaff {
		return false
	}
	return canManage(a, t, UsersEdit)
}

// IsPendingInvitation reports whether the user never completed onboarding,
// i.e. neither name was ever filled in.
func IsPendingInvitation(t Target) bool {
	return strings.TrimSpace(t.FirstName) == "" && strings.TrimSpace(t.LastName) == ""
}

// CanResendInvitation is true only while the invitation is pending.
func CanResendInvitation(a Actor, t Target) bool {
	if !HasPermission(a, UsersInvite) {
		return false
	}
	return IsPendingInvitation(t)
}

// Capabilities is the per-user action map rendered next to each row of the
// admin user list.
type Capabilities struct {
	ChangeRole            bool `json:"change_role"`
	ChangePermissionLevel bool `json:"change_permission_level"`
	ToggleActive          bool `json:"toggle_active"`
	Delete                bool `json:"delete"`
	ResendInvitation      bool `json:"resend_invitation"`
}

// CapabilitiesFor evaluates every authority rule for one target.
func CapabilitiesFor(a Actor, t Target) Capabilities {
	return Capabilities{
		ChangeRole:            CanChangeRole(a, t),
		ChangePermissionLevel: CanChangePermissionLevel(a, t),
		ToggleActive:          CanToggleActive(a, t),
		Delete:                CanDelete(a, t),
		ResendInvitation:      CanResendInvitation(a, t),
	}
}
