package access

import "testing"

func lvl(l PermissionLevel) *PermissionLevel { return &l }

var (
	adminRoles    = []Assignment{{Role: RoleAdmin}}
	staffEdit     = []Assignment{{Role: RoleStaff, Level: lvl(LevelCanEdit)}}
	staffRead     = []Assignment{{Role: RoleStaff, Level: lvl(LevelCanRead)}}
	candidateRole = []Assignment{{Role: RoleUser}}
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name  string
		roles []Assignment
		perm  Permission
		want  bool
	}{
		{"admin users", adminRoles, UsersDelete, true},
		{"admin ignores level", []Assignment{{Role: RoleAdmin, Level: lvl(LevelCanRead)}}, JobsEdit, true},
		{"staff edit writes jobs", staffEdit, JobsEdit, true},
		{"staff edit publishes", staffEdit, JobsPublish, true},
		{"staff edit manages industries", staffEdit, IndustriesManage, true},
		{"staff edit denied users", staffEdit, UsersView, false},
		{"staff read views", staffRead, ApplicationsView, true},
		{"staff read cannot edit jobs", staffRead, JobsEdit, false},
		{"staff read cannot email", staffRead, ApplicationsEmail, false},
		{"staff without level reads", []Assignment{{Role: RoleStaff}}, JobsView, true},
		{"staff without level cannot write", []Assignment{{Role: RoleStaff}}, JobsCreate, false},
		{"user role", candidateRole, JobsView, false},
		{"no roles", nil, JobsView, false},
		{"unknown permission", adminRoles, Permission("REPORTS_EXPORT"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(Actor{UserID: 1, Roles: tt.roles}, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%s) = %v, want %v", tt.perm, got, tt.want)
			}
		})
	}
}

func TestStaffReadOnlySatisfiesViewOnly(t *testing.T) {
	a := Actor{UserID: 7, Roles: staffRead}
	for _, p := range Permissions() {
		want := table[p] == needStaffRead
		if got := HasPermission(a, p); got != want {
			t.Errorf("HasPermission(staff CAN_READ, %s) = %v, want %v", p, got, want)
		}
	}
}

func TestSelfProtection(t *testing.T) {
	for _, super := range []bool{false, true} {
		a := Actor{UserID: 1, Roles: adminRoles, SuperAdmin: super}
		self := Target{UserID: 1, Roles: adminRoles, FirstName: "Ada"}
		if CanChangeRole(a, self) || CanToggleActive(a, self) || CanDelete(a, self) {
			t.Errorf("super=%v: actor may modify own account", super)
		}
	}
}

func TestAdminOnAdmin(t *testing.T) {
	target := Target{UserID: 2, Roles: adminRoles, FirstName: "Grace", LastName: "Hopper"}

	plain := Actor{UserID: 1, Roles: adminRoles}
	if CanChangeRole(plain, target) || CanToggleActive(plain, target) || CanDelete(plain, target) {
		t.Error("non-super admin may modify another admin")
	}

	super := Actor{UserID: 1, Roles: adminRoles, SuperAdmin: true}
	if !CanChangeRole(super, target) || !CanToggleActive(super, target) || !CanDelete(super, target) {
		t.Error("super admin denied on another admin")
	}
}

func TestCanGrantRole(t *testing.T) {
	plain := Actor{UserID: 1, Roles: adminRoles}
	super := Actor{UserID: 1, Roles: adminRoles, SuperAdmin: true}
	staff := Actor{UserID: 5, Roles: staffEdit}
	tests := []struct {
		name  string
		actor Actor
		role  Role
		want  bool
	}{
		{"plain admin grants staff", plain, RoleStaff, true},
		{"plain admin grants user", plain, RoleUser, true},
		{"plain admin grants admin", plain, RoleAdmin, false},
		{"super admin grants admin", super, RoleAdmin, true},
		{"staff grants user", staff, RoleUser, false},
	}
	for _, tt := range tests {
		if got := CanGrantRole(tt.actor, tt.role); got != tt.want {
			t.Errorf("%s: CanGrantRole() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAdminOnStaff(t *testing.T) {
	a := Actor{UserID: 1, Roles: adminRoles}
	target := Target{UserID: 3, Roles: staffRead, FirstName: "Lin"}
	caps := CapabilitiesFor(a, target)
	if !caps.ChangeRole || !caps.ToggleActive || !caps.Delete || !caps.ChangePermissionLevel {
		t.Errorf("admin on staff capabilities = %+v", caps)
	}
	if caps.ResendInvitation {
		t.Error("resend offered for onboarded user")
	}
}

func TestStaffCannotManageUsers(t *testing.T) {
	a := Actor{UserID: 5, Roles: staffEdit}
	target := Target{UserID: 6, Roles: candidateRole}
	if CanChangeRole(a, target) || CanDelete(a, target) || CanResendInvitation(a, Target{UserID: 6}) {
		t.Error("staff passed a user-management rule")
	}
}

func TestCanChangePermissionLevel(t *testing.T) {
	a := Actor{UserID: 1, Roles: adminRoles, SuperAdmin: true}
	cases := []struct {
		roles []Assignment
		want  bool
	}{
		{staffEdit, true},
		{staffRead, true},
		{adminRoles, false},
		{candidateRole, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := CanChangePermissionLevel(a, Target{UserID: 9, Roles: c.roles}); got != c.want {
			t.Errorf("CanChangePermissionLevel(%v) = %v, want %v", PrimaryRole(c.roles), got, c.want)
		}
	}
}

func TestCanResendInvitation(t *testing.T) {
	a := Actor{UserID: 1, Roles: adminRoles}
	cases := []struct {
		first, last string
		want        bool
	}{
		{"", "", true},
		{"  ", "", true},
		{"Ada", "", false},
		{"", "Lovelace", false},
		{"Ada", "Lovelace", false},
	}
	for _, c := range cases {
		got := CanResendInvitation(a, Target{UserID: 4, FirstName: c.first, LastName: c.last})
		if got != c.want {
			t.Errorf("CanResendInvitation(%q, %q) = %v, want %v", c.first, c.last, got, c.want)
		}
	}
}

func TestNormalizeAssignment(t *testing.T) {
	a := NormalizeAssignment(Assignment{Role: RoleAdmin, Level: lvl(LevelCanEdit)})
	if a.Level != nil {
		t.Error("admin assignment kept a permission level")
	}
	s := NormalizeAssignment(Assignment{Role: RoleStaff})
	if s.Level == nil || *s.Level != LevelCanRead {
		t.Errorf("staff default level = %v, want CAN_READ", s.Level)
	}
}

func TestIsStaffMember(t *testing.T) {
	if IsStaffMember(Actor{Roles: candidateRole}) {
		t.Error("user role routed to dashboard")
	}
	if !IsStaffMember(Actor{Roles: staffRead}) || !IsStaffMember(Actor{Roles: adminRoles}) {
		t.Error("staff member routed to careers site")
	}
}
