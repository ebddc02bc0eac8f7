package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists       = errors.New("email already exists")
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrInvitationInvalid = errors.New("invitation invalid or expired")
)

// roleIDs mirrors the seeded roles table.
var roleIDs = map[access.Role]uint8{
	access.RoleAdmin: 1,
	access.RoleStaff: 2,
	access.RoleUser:  3,
}

const userColumns = `u.id, u.email, COALESCE(u.password_hash,''), u.first_name, u.last_name,
	u.is_active, u.email_verified, u.is_super_admin, COALESCE(u.invite_token_hash,''),
	u.invite_expires_at, u.created_at, u.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u   model.User
		exp sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.EmailVerified, &u.IsSuperAdmin, &u.InviteTokenHash,
		&exp, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		t := exp.Time
		u.InviteExpiresAt = &t
	}
	return &u, nil
}

// Create inserts a self-registered user with the given role and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, firstName, lastName string, role access.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	return r.insert(ctx, email, &hash, firstName, lastName, true, access.Assignment{Role: role}, "", nil)
}

// Invite inserts a pending user: no password, no names, and a hashed
// invitation token that expires at exp.
func (r *UserRepo) Invite(ctx context.Context, email string, a access.Assignment, tokenHash string, exp time.Time) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.insert(ctx, email, nil, "", "", false, a, tokenHash, &exp)
}

func (r *UserRepo) insert(ctx context.Context, email string, hash *string, first, last string, verified bool, a access.Assignment, tokenHash string, exp *time.Time) (id uint64, err error) {
	a = access.NormalizeAssignment(a)
	roleID, ok := roleIDs[a.Role]
	if !ok {
		return 0, errors.New("unknown role")
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var token any
	if tokenHash != "" {
		token = tokenHash
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, email_verified, invite_token_hash, invite_expires_at)
		 VALUES (?,?,?,?,?,?,?)`,
		email, hash, strings.TrimSpace(first), strings.TrimSpace(last), verified, token, exp)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id = uint64(lastID)
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id, permission_level) VALUES (?,?,?)",
		id, roleID, levelArg(a.Level)); err != nil {
		return 0, err
	}
	return id, nil
}

func levelArg(l *access.PermissionLevel) any {
	if l == nil {
		return nil
	}
	return string(*l)
}

// GetByEmail fetches a user by normalized email, roles included.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users u WHERE u.email=? LIMIT 1", email)
}

// GetByID fetches a user by id, roles included.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id=? LIMIT 1", id)
}

// GetByInviteToken fetches the pending user owning a token hash.
func (r *UserRepo) GetByInviteToken(ctx context.Context, tokenHash string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users u WHERE u.invite_token_hash=? LIMIT 1", tokenHash)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	roles, err := r.loadRoles(ctx, []uint64{u.ID})
	if err != nil {
		return nil, err
	}
	u.Roles = roles[u.ID]
	return u, nil
}

// loadRoles returns role assignments keyed by user id, ordered by role id.
func (r *UserRepo) loadRoles(ctx context.Context, ids []uint64) (map[uint64][]access.Assignment, error) {
	out := make(map[uint64][]access.Assignment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ur.user_id, r.name, ur.permission_level
	      FROM user_roles ur JOIN roles r ON r.id = ur.role_id
	      WHERE ur.user_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY ur.user_id, r.id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			uid   uint64
			name  string
			level sql.NullString
		)
		if err := rows.Scan(&uid, &name, &level); err != nil {
			return nil, err
		}
		a := access.Assignment{Role: access.Role(name)}
		if level.Valid {
			if l, ok := access.ParsePermissionLevel(level.String); ok {
				a.Level = &l
			}
		}
		out[uid] = append(out[uid], a)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Search   string
	Role     access.Role
	Page     int
	PageSize int
}

// List returns one page of users and the total match count.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]*model.User, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		where = append(where, "(LOWER(u.email) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	if f.Role != "" {
		where = append(where, "EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = u.id AND r.name = ?)")
		args = append(args, string(f.Role))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PageSize)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE "+cond+" ORDER BY u.created_at DESC, u.id DESC LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var (
		out []*model.User
		ids []uint64
	)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	roles, err := r.loadRoles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, u := range out {
		u.Roles = roles[u.ID]
	}
	return out, total, nil
}

// SetRole replaces every role assignment of a user with a.
func (r *UserRepo) SetRole(ctx context.Context, userID uint64, a access.Assignment) (err error) {
	a = access.NormalizeAssignment(a)
	roleID, ok := roleIDs[a.Role]
	if !ok {
		return errors.New("unknown role")
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", userID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id, permission_level) VALUES (?,?,?)",
		userID, roleID, levelArg(a.Level))
	return err
}

// SetPermissionLevel updates the level on the user's staff assignment.
func (r *UserRepo) SetPermissionLevel(ctx context.Context, userID uint64, level access.PermissionLevel) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_roles SET permission_level=? WHERE user_id=? AND role_id=?",
		string(level), userID, roleIDs[access.RoleStaff])
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive toggles the account's active flag.
func (r *UserRepo) SetActive(ctx context.Context, userID uint64, active bool) error {
	return r.execOne(ctx, "UPDATE users SET is_active=? WHERE id=?", active, userID)
}

// Delete hard-deletes the user; role rows, tokens and bookmarks cascade.
func (r *UserRepo) Delete(ctx context.Context, userID uint64) error {
	return r.execOne(ctx, "DELETE FROM users WHERE id=?", userID)
}

// RotateInvitation stores a fresh invitation token for a pending user.
func (r *UserRepo) RotateInvitation(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return r.execOne(ctx,
		"UPDATE users SET invite_token_hash=?, invite_expires_at=? WHERE id=? AND first_name='' AND last_name=''",
		tokenHash, exp, userID)
}

// AcceptInvitation completes onboarding for the owner of tokenHash and
// returns their id.
func (r *UserRepo) AcceptInvitation(ctx context.Context, tokenHash, firstName, lastName, password string, cost int) (uint64, error) {
	u, err := r.GetByInviteToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, ErrInvitationInvalid
		}
		return 0, err
	}
	if u.InviteExpiresAt == nil || time.Now().UTC().After(*u.InviteExpiresAt) {
		return 0, ErrInvitationInvalid
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, password_hash=?, email_verified=1,
		        invite_token_hash=NULL, invite_expires_at=NULL
		 WHERE id=? AND invite_token_hash=?`,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), hash, u.ID, tokenHash)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrInvitationInvalid
	}
	return u.ID, nil
}

// EnsureSuperAdmin creates the bootstrap super-admin when the email is not
// registered yet, and promotes it otherwise.
func (r *UserRepo) EnsureSuperAdmin(ctx context.Context, email, password, firstName, lastName string, cost int) (uint64, error) {
	u, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !u.IsSuperAdmin || !access.HasRole(u.Roles, access.RoleAdmin) {
			if err := r.SetRole(ctx, u.ID, access.Assignment{Role: access.RoleAdmin}); err != nil {
				return 0, err
			}
		}
		return u.ID, r.execOne(ctx, "UPDATE users SET is_super_admin=1 WHERE id=?", u.ID)
	case !errors.Is(err, ErrUserNotFound):
		return 0, err
	}
	id, err := r.Create(ctx, email, password, firstName, lastName, access.RoleAdmin, cost)
	if err != nil {
		return 0, err
	}
	return id, r.execOne(ctx, "UPDATE users SET is_super_admin=1 WHERE id=?", id)
}

func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
