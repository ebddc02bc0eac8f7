package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/queue"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/utils"
)

// UserView is a user as shown in the admin user table, together with the
// actions the viewing admin may take on it.
type UserView struct {
	*model.User
	PendingInvitation bool                `json:"pending_invitation"`
	Capabilities      access.Capabilities `json:"capabilities"`
}

// InviteRequest asks for a new staff, admin or user account.
type InviteRequest struct {
	Email           string `json:"email"`
	Role            string `json:"role"`
	PermissionLevel string `json:"permission_level"`
}

// RoleChange replaces a user's role.  PermissionLevel applies to staff only.
type RoleChange struct {
	Role            string `json:"role"`
	PermissionLevel string `json:"permission_level"`
}

// UserAdminService applies the administrative authority rules to user
// management.
type UserAdminService struct {
	users     UserStore
	tokens    TokenRevoker
	notify    Notifier
	inviteTTL time.Duration
	log       zerolog.Logger
}

func NewUserAdminService(users UserStore, tokens TokenRevoker, notify Notifier, inviteTTL time.Duration, log zerolog.Logger) *UserAdminService {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &UserAdminService{
		users:     users,
		tokens:    tokens,
		notify:    notify,
		inviteTTL: inviteTTL,
		log:       log.With().Str("service", "users").Logger(),
	}
}

func (s *UserAdminService) view(actor access.Actor, u *model.User) UserView {
	t := u.Target()
	return UserView{
		User:              u,
		PendingInvitation: access.IsPendingInvitation(t),
		Capabilities:      access.CapabilitiesFor(actor, t),
	}
}

// denied explains a failed authority rule.
func denied(actor access.Actor, t access.Target) error {
	switch {
	case actor.UserID == t.UserID:
		return fmt.Errorf("%w: you cannot change your own account", ErrAccessDenied)
	case access.HasRole(t.Roles, access.RoleAdmin) && !actor.SuperAdmin:
		return fmt.Errorf("%w: only a super-admin can modify another admin", ErrAccessDenied)
	}
	return ErrAccessDenied
}

func parseAssignment(role, level string) (access.Assignment, error) {
	r, ok := access.ParseRole(role)
	if !ok {
		return access.Assignment{}, invalid("role must be admin, staff or user")
	}
	a := access.Assignment{Role: r}
	if r == access.RoleStaff && strings.TrimSpace(level) != "" {
		l, ok := access.ParsePermissionLevel(level)
		if !ok {
			return access.Assignment{}, invalid("permission_level must be CAN_EDIT or CAN_READ")
		}
		a.Level = &l
	}
	return access.NormalizeAssignment(a), nil
}

func (s *UserAdminService) List(ctx context.Context, actor access.Actor, f repository.UserFilter) (Page[UserView], error) {
	if err := require(actor, access.UsersView); err != nil {
		return Page[UserView]{}, err
	}
	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return Page[UserView]{}, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, s.view(actor, u))
	}
	return newPage(views, total, f.Page, f.PageSize), nil
}

func (s *UserAdminService) Get(ctx context.Context, actor access.Actor, id uint64) (UserView, error) {
	if err := require(actor, access.UsersView); err != nil {
		return UserView{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	return s.view(actor, u), nil
}

// Invite creates a pending account and queues the invitation e-mail.
// Inviting an admin requires super-admin standing.
func (s *UserAdminService) Invite(ctx context.Context, actor access.Actor, req InviteRequest) (UserView, error) {
	if err := require(actor, access.UsersInvite); err != nil {
		return UserView{}, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return UserView{}, invalid("a valid email is required")
	}
	a, err := parseAssignment(req.Role, req.PermissionLevel)
	if err != nil {
		return UserView{}, err
	}
	if !access.CanGrantRole(actor, a.Role) {
		return UserView{}, fmt.Errorf("%w: only a super-admin can invite an admin", ErrAccessDenied)
	}
	tok, err := utils.NewInviteToken(s.inviteTTL)
	if err != nil {
		return UserView{}, fmt.Errorf("failed to generate invitation token: %w", err)
	}
	id, err := s.users.Invite(ctx, email, a, utils.HashRefreshRaw(tok.Raw), tok.Exp)
	if err != nil {
		return UserView{}, err
	}
	s.log.Info().Uint64("user_id", id).Str("role", string(a.Role)).Uint64("actor", actor.UserID).Msg("user invited")
	s.sendInvite(ctx, id, email, a.Role, tok, false)

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	return s.view(actor, u), nil
}

// ResendInvitation issues a fresh token to a user who never completed
// onboarding.
func (s *UserAdminService) ResendInvitation(ctx context.Context, actor access.Actor, id uint64) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t := u.Target()
	if !access.CanResendInvitation(actor, t) {
		if access.HasPermission(actor, access.UsersInvite) {
			return fmt.Errorf("%w: user already completed onboarding", repository.ErrConflict)
		}
		return ErrAccessDenied
	}
	tok, err := utils.NewInviteToken(s.inviteTTL)
	if err != nil {
		return fmt.Errorf("failed to generate invitation token: %w", err)
	}
	if err := s.users.RotateInvitation(ctx, id, utils.HashRefreshRaw(tok.Raw), tok.Exp); err != nil {
		return err
	}
	s.log.Info().Uint64("user_id", id).Uint64("actor", actor.UserID).Msg("invitation resent")
	s.sendInvite(ctx, id, u.Email, access.PrimaryRole(u.Roles), tok, true)
	return nil
}

// sendInvite publishes the invitation; a failure is logged and the admin can
// resend later.
func (s *UserAdminService) sendInvite(ctx context.Context, id uint64, email string, role access.Role, tok utils.RefreshToken, resent bool) {
	err := s.notify.Publish(ctx, queue.UserInvitedEvent{
		UserID:    id,
		Email:     email,
		Role:      string(role),
		Token:     tok.Raw,
		ExpiresAt: tok.Exp.Format(time.RFC3339),
		Resent:    resent,
	})
	if err != nil {
		s.log.Warn().Err(err).Uint64("user_id", id).Msg("invitation e-mail not queued")
	}
}

// target loads a user and checks the rule ok against it.
func (s *UserAdminService) target(ctx context.Context, actor access.Actor, id uint64, perm access.Permission, ok func(access.Actor, access.Target) bool) (*model.User, error) {
	if err := require(actor, perm); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t := u.Target(); !ok(actor, t) {
		return nil, denied(actor, t)
	}
	return u, nil
}

func (s *UserAdminService) revoke(ctx context.Context, id uint64) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", id).Msg("refresh token revocation failed")
	}
}

// ChangeRole replaces the target's role.  Existing sessions must sign in
// again to pick up the new role.  Promoting to admin takes super-admin
// standing, like inviting one.
func (s *UserAdminService) ChangeRole(ctx context.Context, actor access.Actor, id uint64, req RoleChange) (UserView, error) {
	a, err := parseAssignment(req.Role, req.PermissionLevel)
	if err != nil {
		return UserView{}, err
	}
	if _, err := s.target(ctx, actor, id, access.UsersEdit, access.CanChangeRole); err != nil {
		return UserView{}, err
	}
	if !access.CanGrantRole(actor, a.Role) {
		return UserView{}, fmt.Errorf("%w: only a super-admin can grant the admin role", ErrAccessDenied)
	}
	if err := s.users.SetRole(ctx, id, a); err != nil {
		return UserView{}, err
	}
	s.revoke(ctx, id)
	s.log.Info().Uint64("user_id", id).Str("role", string(a.Role)).Uint64("actor", actor.UserID).Msg("user role changed")
	return s.Get(ctx, actor, id)
}

// ChangePermissionLevel updates a staff member's read/write level.
func (s *UserAdminService) ChangePermissionLevel(ctx context.Context, actor access.Actor, id uint64, level string) (UserView, error) {
	l, ok := access.ParsePermissionLevel(level)
	if !ok {
		return UserView{}, invalid("permission_level must be CAN_EDIT or CAN_READ")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	t := u.Target()
	if !access.CanChangePermissionLevel(actor, t) {
		if access.PrimaryRole(t.Roles) != access.RoleStaff && access.HasPermission(actor, access.UsersEdit) && actor.UserID != id {
			return UserView{}, invalid("permission level applies to staff only")
		}
		return UserView{}, denied(actor, t)
	}
	if err := s.users.SetPermissionLevel(ctx, id, l); err != nil {
		return UserView{}, err
	}
	s.revoke(ctx, id)
	s.log.Info().Uint64("user_id", id).Str("level", string(l)).Uint64("actor", actor.UserID).Msg("permission level changed")
	return s.Get(ctx, actor, id)
}

// SetActive activates or deactivates an account.  Deactivation signs the
// user out everywhere.
func (s *UserAdminService) SetActive(ctx context.Context, actor access.Actor, id uint64, active bool) (UserView, error) {
	if _, err := s.target(ctx, actor, id, access.UsersEdit, access.CanToggleActive); err != nil {
		return UserView{}, err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return UserView{}, err
	}
	if !active {
		s.revoke(ctx, id)
	}
	s.log.Info().Uint64("user_id", id).Bool("active", active).Uint64("actor", actor.UserID).Msg("user active state changed")
	return s.Get(ctx, actor, id)
}

// Delete removes the account permanently.
func (s *UserAdminService) Delete(ctx context.Context, actor access.Actor, id uint64) error {
	if _, err := s.target(ctx, actor, id, access.UsersDelete, access.CanDelete); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("user_id", id).Uint64("actor", actor.UserID).Msg("user deleted")
	return nil
}
