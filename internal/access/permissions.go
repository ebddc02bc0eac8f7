package access

// Permission names a (resource, action) pair.
type Permission string

const (
	JobsView    Permission = "JOBS_VIEW"
	JobsCreate  Permission = "JOBS_CREATE"
	JobsEdit    Permission = "JOBS_EDIT"
	JobsDelete  Permission = "JOBS_DELETE"
	JobsPublish Permission = "JOBS_PUBLISH"

	ApplicationsView   Permission = "APPLICATIONS_VIEW"
	ApplicationsEdit   Permission = "APPLICATIONS_EDIT"
	ApplicationsDelete Permission = "APPLICATIONS_DELETE"
	ApplicationsEmail  Permission = "APPLICATIONS_EMAIL"

	IndustriesView   Permission = "INDUSTRIES_VIEW"
	IndustriesManage Permission = "INDUSTRIES_MANAGE"

	DashboardView Permission = "DASHBOARD_VIEW"

	UsersView   Permission = "USERS_VIEW"
	UsersInvite Permission = "USERS_INVITE"
	UsersEdit   Permission = "USERS_EDIT"
	UsersDelete Permission = "USERS_DELETE"
)

// requirement is the minimum standing that satisfies a permission.
type requirement int

const (
	needStaffRead requirement = iota + 1
	needStaffWrite
	needAdmin
)

var table = map[Permission]requirement{
	JobsView:    needStaffRead,
	JobsCreate:  needStaffWrite,
	JobsEdit:    needStaffWrite,
	JobsDelete:  needStaffWrite,
	JobsPublish: needStaffWrite,

	ApplicationsView:   needStaffRead,
	ApplicationsEdit:   needStaffWrite,
	ApplicationsDelete: needStaffWrite,
	ApplicationsEmail:  needStaffWrite,

	IndustriesView:   needStaffRead,
	IndustriesManage: needStaffWrite,

	DashboardView: needStaffRead,

	UsersView:   needAdmin,
	UsersInvite: needAdmin,
	UsersEdit:   needAdmin,
	UsersDelete: needAdmin,
}

// Permissions lists every known permission key.
func Permissions() []Permission {
	out := make([]Permission, 0, len(table))
	for p := range table {
		out = append(out, p)
	}
	return out
}

// HasPermission reports whether the actor satisfies p.  Admins satisfy every
// known permission.  Staff with CAN_EDIT satisfy read and write content
// permissions, staff with CAN_READ (or no level) only read ones.  The user
// role and an empty role set satisfy nothing.
func HasPermission(a Actor, p Permission) bool {
	req, ok := table[p]
	if !ok {
		return false
	}
	if HasRole(a.Roles, RoleAdmin) {
		return true
	}
	if !HasRole(a.Roles, RoleStaff) {
		return false
	}
	switch req {
	case needStaffRead:
		return true
	case needStaffWrite:
		lvl, _ := StaffLevel(a.Roles)
		return lvl == LevelCanEdit
	}
	return false
}

// Granted returns the subset of permissions the actor holds.  The admin UI
// uses it to decide which actions to render.
func Granted(a Actor) []Permission {
	var out []Permission
	for p := range table {
		if HasPermission(a, p) {
			out = append(out, p)
		}
	}
	return out
}
