package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/config"
	"github.com/iliyamo/careers-portal/internal/middleware"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/utils"
)

// AccountStore is the part of the user repository the auth endpoints need.
type AccountStore interface {
	Create(ctx context.Context, email, password, firstName, lastName string, role access.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	AcceptInvitation(ctx context.Context, tokenHash, firstName, lastName, password string, cost int) (uint64, error)
}

// RefreshStore persists hashed refresh tokens.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  AccountStore
	Tokens RefreshStore
	Log    zerolog.Logger
}

func NewAuthHandler(cfg config.Config, u AccountStore, t RefreshStore, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type acceptInviteReq struct {
	Token     string `json:"token"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID              uint64                  `json:"id"`
	Email           string                  `json:"email"`
	FirstName       string                  `json:"first_name"`
	LastName        string                  `json:"last_name"`
	Role            access.Role             `json:"role"`
	PermissionLevel *access.PermissionLevel `json:"permission_level,omitempty"`
	IsSuperAdmin    bool                    `json:"is_super_admin"`
	IsStaff         bool                    `json:"is_staff"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func userPartOf(u *model.User) userPart {
	p := userPart{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         access.PrimaryRole(u.Roles),
		IsSuperAdmin: u.IsSuperAdmin,
		IsStaff:      access.IsStaffMember(u.Actor()),
	}
	if lvl, ok := access.StaffLevel(u.Roles); ok {
		p.PermissionLevel = &lvl
	}
	return p
}

// issue creates an access/refresh pair for u and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u *model.User) (authResp, error) {
	at, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Actor(), h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	rt, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPartOf(u),
		Access:  tokenPart{Token: at.Token, Expires: at.Exp},
		Refresh: tokenPart{Token: rt.Raw, Expires: rt.Exp}, // raw back to client
	}, nil
}

// Register: create a candidate account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return badRequest(c, "first_name/last_name required")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Self-registration always yields the user role; staff accounts come
	// from invitations.
	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.FirstName, req.LastName, access.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	h.Log.Info().Uint64("user_id", uid).Msg("user registered")
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return fail(c, err)
	}
	// Pending invitations have no password yet and never match.
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// loadRefresh validates a refresh token and loads its still-active owner.
func (h *AuthHandler) loadRefresh(ctx context.Context, raw string) (*model.User, string, error) {
	hash := utils.HashRefreshRaw(raw)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return nil, "", err
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", repository.ErrRefreshInvalid
		}
		return nil, "", err
	}
	if !u.IsActive {
		_ = h.Tokens.RevokeAllForUser(ctx, u.ID)
		return nil, "", repository.ErrRefreshInvalid
	}
	return u, hash, nil
}

// Refresh: validate by hash, revoke old, issue new.  The access token is
// rebuilt from the current role assignments.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, hash, err := h.loadRefresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, _, err := h.loadRefresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	at, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Actor(), h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: at.Token, Expires: at.Exp},
	})
}

// Logout revokes one refresh token when it is sent in the body, or every
// refresh token of the authenticated caller otherwise.  The route runs
// behind OptionalJWT.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return fail(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	if a, ok := middleware.ActorFrom(c); ok {
		if err := h.Tokens.RevokeAllForUser(ctx, a.UserID); err != nil {
			return fail(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	return badRequest(c, "provide Authorization header or refresh_token")
}

// AcceptInvite completes onboarding for an invited account and logs it in.
func (h *AuthHandler) AcceptInvite(c echo.Context) error {
	var req acceptInviteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return badRequest(c, "token required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return badRequest(c, "first_name/last_name required")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.AcceptInvitation(ctx, utils.HashRefreshRaw(req.Token), req.FirstName, req.LastName, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return fail(c, err)
	}
	h.Log.Info().Uint64("user_id", uid).Msg("invitation accepted")
	return c.JSON(http.StatusOK, resp)
}

// Me returns the caller's profile and the permissions it holds.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actorOf(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	perms := access.Granted(u.Actor())
	if perms == nil {
		perms = []access.Permission{}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return c.JSON(http.StatusOK, echo.Map{
		"user":        userPartOf(u),
		"permissions": perms,
	})
}
