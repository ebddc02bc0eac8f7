package model

import (
	"time"

	"github.com/iliyamo/careers-portal/internal/access"
)

// User represents an account record as stored in the `users` table
// together with its rows from `user_roles`.  Candidates sign up on their
// own; staff and admins are invited by an administrator and stay in the
// pending-invitation state until they accept and fill in their names.
//
// Fields:
//  ID              – primary key identifier of the user.
//  Email           – unique, lower-cased email address.
//  PasswordHash    – bcrypt hash; empty while an invitation is pending.
//  FirstName       – given name; empty until onboarding completes.
//  LastName        – family name; empty until onboarding completes.
//  IsActive        – deactivated accounts cannot log in.
//  EmailVerified   – set when the user signs up or accepts an invitation.
//  IsSuperAdmin    – grants authority over other admin accounts.
//  Roles           – role assignments ordered by role id.
//  InviteExpiresAt – expiry of the outstanding invitation token (nullable).
type User struct {
	ID              uint64              `json:"id"`
	Email           string              `json:"email"`
	PasswordHash    string              `json:"-"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	IsActive        bool                `json:"is_active"`
	EmailVerified   bool                `json:"email_verified"`
	IsSuperAdmin    bool                `json:"is_super_admin"`
	Roles           []access.Assignment `json:"roles"`
	InviteTokenHash string              `json:"-"`
	InviteExpiresAt *time.Time          `json:"invite_expires_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Actor converts the user into the caller form used by access checks.
func (u *User) Actor() access.Actor {
	return access.Actor{UserID: u.ID, Roles: u.Roles, SuperAdmin: u.IsSuperAdmin}
}

// Target converts the user into the subject form used by authority rules.
func (u *User) Target() access.Target {
	return access.Target{UserID: u.ID, Roles: u.Roles, FirstName: u.FirstName, LastName: u.LastName}
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Role represents a row in the seeded `roles` table.
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.name (admin, staff, user)
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
