// Package authenticator owns the sign-in state of the client: remote login
// with local-credential fallback, logout, session restore and the current
// identity query.
package authenticator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"checador/internal/auth"
	"checador/internal/client/api"
	"checador/internal/client/localstore"
	"checador/internal/client/session"
	apperrors "checador/internal/errors"
)

// Mode is the sign-in state.
type Mode int

const (
	Unauthenticated Mode = iota
	// AuthenticatedRemote holds a server-issued bearer token.
	AuthenticatedRemote
	// AuthenticatedLocal was verified against cached credentials only.
	AuthenticatedLocal
)

func (m Mode) String() string {
	switch m {
	case AuthenticatedRemote:
		return "authenticated(remote)"
	case AuthenticatedLocal:
		return "authenticated(local)"
	default:
		return "unauthenticated"
	}
}

// RemoteAPI is the part of the API client the authenticator uses.
type RemoteAPI interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, token string, id uint) (*api.Identity, error)
}

// LocalStore caches identities and credential hashes on the device.
type LocalStore interface {
	FindIdentityByUsername(ctx context.Context, username string) (*localstore.Identity, error)
	FindIdentityByID(ctx context.Context, id uint) (*localstore.Identity, error)
	SaveIdentity(ctx context.Context, identity *localstore.Identity) error
	SetCredential(ctx context.Context, id uint, hash string) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	SaveGeofence(ctx context.Context, geofence *localstore.Geofence) error
	Wipe(ctx context.Context) error
}

// SessionStore persists the signed-in state across restarts.
type SessionStore interface {
	Save(ctx context.Context, identity *localstore.Identity, token string) error
	Load(ctx context.Context) (*session.State, error)
	Clear(ctx context.Context) error
}

// Result describes a successful login.
type Result struct {
	Mode     Mode
	Identity *localstore.Identity
	Token    string
	Message  string
	Geofence *localstore.Geofence
}

const msgLocalLogin = "local login successful (offline)"

// Authenticator is safe for use by one client process. Methods serialize.
type Authenticator struct {
	remote   RemoteAPI
	local    LocalStore
	sessions SessionStore
	logger   echo.Logger
	now      func() time.Time

	mu       sync.Mutex
	mode     Mode
	userID   uint
	identity *localstore.Identity
	token    string
}

// New creates an unauthenticated Authenticator.
func New(remote RemoteAPI, local LocalStore, sessions SessionStore, logger echo.Logger) *Authenticator {
	return &Authenticator{
		remote:   remote,
		local:    local,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Login tries the server first. Only an unreachable server triggers the
// local fallback; an explicit server refusal is returned as is. Failures
// are *errors.Rejection.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.Reject(apperrors.ReasonCredentialsRequired, apperrors.MsgCredentialsRequired)
	}

	resp, err := a.remote.Login(ctx, username, password)
	switch api.OutcomeOf(err) {
	case api.OutcomeOK:
		if resp.User == nil || resp.User.ID == 0 {
			a.logger.Warnf("remote login for %s returned no identity, trying local credentials", username)
			return a.loginLocal(ctx, username, password)
		}
		return a.acceptRemote(ctx, resp, password), nil
	case api.OutcomeRejected:
		var rej *api.RejectedError
		errors.As(err, &rej)
		reason := apperrors.Reason(rej.Reason)
		if reason == "" {
			reason = apperrors.ReasonInvalidCredentials
		}
		a.logger.Infof("remote login rejected for %s: %s", username, reason)
		return nil, apperrors.Reject(reason, rej.Message)
	default:
		a.logger.Warnf("remote login unreachable, trying local credentials: %v", err)
		return a.loginLocal(ctx, username, password)
	}
}

func (a *Authenticator) acceptRemote(ctx context.Context, resp *api.LoginResponse, password string) *Result {
	now := a.now()
	identity := fromAPI(resp.User)
	identity.LastLoginAt = &now

	if err := a.local.SaveIdentity(ctx, identity); err != nil {
		a.logger.Errorf("cache identity %d: %v", identity.ID, err)
	} else if hash, err := auth.HashPassword(password); err != nil {
		a.logger.Errorf("hash credential for %s: %v", identity.Username, err)
	} else if err := a.local.SetCredential(ctx, identity.ID, hash); err != nil {
		a.logger.Errorf("cache credential for %s: %v", identity.Username, err)
	}

	var geofence *localstore.Geofence
	if g := resp.Geofence; g != nil {
		geofence = &localstore.Geofence{
			WorkplaceID:     g.WorkplaceID,
			RemoteID:        g.ID,
			CenterLatitude:  g.CenterLatitude,
			CenterLongitude: g.CenterLongitude,
			RadiusInMeters:  g.RadiusInMeters,
			UpdatedAt:       g.UpdatedAt,
		}
		if err := a.local.SaveGeofence(ctx, geofence); err != nil {
			a.logger.Errorf("cache geofence of workplace %d: %v", g.WorkplaceID, err)
		}
	}

	if err := a.sessions.Save(ctx, identity, resp.Token); err != nil {
		a.logger.Errorf("persist session: %v", err)
	}
	a.set(AuthenticatedRemote, identity, resp.Token)

	return &Result{
		Mode:     AuthenticatedRemote,
		Identity: identity,
		Token:    resp.Token,
		Message:  resp.Message,
		Geofence: geofence,
	}
}

// loginLocal verifies against the cached hash. Every failure carries the
// same message as a wrong password.
func (a *Authenticator) loginLocal(ctx context.Context, username, password string) (*Result, error) {
	invalid := apperrors.Reject(apperrors.ReasonInvalidCredentials, apperrors.MsgInvalidCredentials)

	identity, err := a.local.FindIdentityByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			a.logger.Errorf("local lookup of %s: %v", username, err)
		}
		return nil, invalid
	}
	if !auth.VerifyPassword(password, identity.PasswordHash) {
		a.logger.Infof("local login failed for %s", username)
		return nil, invalid
	}
	if !identity.Active {
		a.logger.Infof("local login refused for inactive account %s", username)
		return nil, invalid
	}

	now := a.now()
	if err := a.local.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		a.logger.Errorf("update local last login of %s: %v", username, err)
	}
	identity.LastLoginAt = &now
	identity.PasswordHash = ""

	if err := a.sessions.Save(ctx, identity, ""); err != nil {
		a.logger.Errorf("persist session: %v", err)
	}
	a.set(AuthenticatedLocal, identity, "")

	return &Result{Mode: AuthenticatedLocal, Identity: identity, Message: msgLocalLogin}, nil
}

// Logout always ends Unauthenticated. Wipe failures are logged only.
func (a *Authenticator) Logout(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" {
		if err := a.remote.Logout(ctx, a.token); err != nil {
			a.logger.Infof("remote logout: %v", err)
		}
	}
	if err := a.sessions.Clear(ctx); err != nil {
		a.logger.Errorf("clear session: %v", err)
	}
	if err := a.local.Wipe(ctx); err != nil {
		a.logger.Errorf("wipe local data: %v", err)
	}
	a.set(Unauthenticated, nil, "")
}

// CurrentIdentity returns the signed-in identity from memory, the session
// store or, when the snapshot is unusable, the server or the local cache.
// Nil means none could be found.
func (a *Authenticator) CurrentIdentity(ctx context.Context) *localstore.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.identity != nil {
		return a.identity
	}

	if state := a.loadState(ctx); state != nil {
		a.adopt(state)
		if a.identity != nil {
			return a.identity
		}
	}

	if a.userID == 0 {
		return nil
	}
	if a.token == "" {
		return a.recoverLocal(ctx)
	}

	user, err := a.remote.GetUser(ctx, a.token, a.userID)
	if err != nil {
		a.logger.Warnf("fetch identity %d: %v", a.userID, err)
		return nil
	}
	identity := fromAPI(user)
	if err := a.sessions.Save(ctx, identity, a.token); err != nil {
		a.logger.Errorf("persist session: %v", err)
	}
	a.set(AuthenticatedRemote, identity, a.token)
	return identity
}

// RestoreSession adopts what a previous run persisted without checking the
// token with the server. It reports whether a session was found.
func (a *Authenticator) RestoreSession(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.loadState(ctx)
	if state == nil {
		return false
	}
	a.adopt(state)
	if a.identity == nil && a.token == "" {
		return a.recoverLocal(ctx) != nil
	}
	return true
}

// recoverLocal rebuilds a token-less session from the cached identity and
// repairs the snapshot. Without one the session is dropped.
func (a *Authenticator) recoverLocal(ctx context.Context) *localstore.Identity {
	identity, err := a.local.FindIdentityByID(ctx, a.userID)
	if err != nil {
		a.logger.Warnf("recover local session for user %d: %v", a.userID, err)
		if err := a.sessions.Clear(ctx); err != nil {
			a.logger.Errorf("clear session: %v", err)
		}
		a.set(Unauthenticated, nil, "")
		return nil
	}
	identity.PasswordHash = ""
	if err := a.sessions.Save(ctx, identity, ""); err != nil {
		a.logger.Errorf("persist session: %v", err)
	}
	a.set(AuthenticatedLocal, identity, "")
	return identity
}

// Mode returns the current sign-in state.
func (a *Authenticator) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Token returns the bearer token, empty when unauthenticated or local.
func (a *Authenticator) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *Authenticator) loadState(ctx context.Context) *session.State {
	state, err := a.sessions.Load(ctx)
	if err != nil {
		a.logger.Warnf("load session: %v", err)
		return nil
	}
	return state
}

func (a *Authenticator) adopt(state *session.State) {
	mode := AuthenticatedRemote
	if state.Token == "" {
		mode = AuthenticatedLocal
	}
	a.mode = mode
	a.userID = state.UserID
	a.identity = state.Identity
	a.token = state.Token
}

func (a *Authenticator) set(mode Mode, identity *localstore.Identity, token string) {
	a.mode = mode
	a.identity = identity
	a.token = token
	a.userID = 0
	if identity != nil {
		a.userID = identity.ID
	}
}

func fromAPI(u *api.Identity) *localstore.Identity {
	return &localstore.Identity{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Email:         u.Email,
		Role:          u.Role,
		WorkplaceID:   u.WorkplaceID,
		WorkplaceName: u.WorkplaceName,
		Active:        u.Active,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}
