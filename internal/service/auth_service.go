package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"checador/internal/auth"
	apperrors "checador/internal/errors"
	"checador/internal/metrics"
	"checador/internal/model"
	"checador/internal/repository"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token    string
	User     *model.User
	Geofence *model.Geofence
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	metrics    *metrics.Recorder
	logger     echo.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	recorder *metrics.Recorder,
	logger echo.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		metrics:    recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies credentials and issues a bearer token. Business failures are
// returned as *errors.Rejection; store failures wrap ErrStoreUnavailable.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		s.metrics.Login("rejected")
		return nil, apperrors.Reject(apperrors.ReasonCredentialsRequired, apperrors.MsgCredentialsRequired)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warnf("login attempt for unknown user %q", username)
			s.metrics.Login("rejected")
			return nil, apperrors.Reject(apperrors.ReasonInvalidCredentials, apperrors.MsgInvalidCredentials)
		}
		s.logger.Errorf("login lookup for %q: %v", username, err)
		s.metrics.Login("error")
		return nil, fmt.Errorf("%w: find user: %v", apperrors.ErrStoreUnavailable, err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.logger.Warnf("login attempt with wrong password for %q", username)
		s.metrics.Login("rejected")
		return nil, apperrors.Reject(apperrors.ReasonInvalidCredentials, apperrors.MsgInvalidCredentials)
	}

	if !user.Active {
		s.logger.Warnf("login attempt for inactive user %q", username)
		s.metrics.Login("rejected")
		return nil, apperrors.Reject(apperrors.ReasonAccountInactive, apperrors.MsgAccountInactive)
	}

	// last login failures do not block access
	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Errorf("update last login for user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		s.metrics.Login("error")
		return nil, fmt.Errorf("generate token: %w", err)
	}

	result := &LoginResult{Token: token, User: user}
	if user.Workplace != nil && user.Workplace.Active && user.Workplace.Geofence != nil {
		result.Geofence = user.Workplace.Geofence
	}

	s.logger.Infof("login succeeded for %q", username)
	s.metrics.Login("success")
	return result, nil
}

// Authenticate validates a bearer token and rejects revoked ones.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	revoked, _ := s.tokenStore.IsRevoked(ctx, claims.ID)
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.ErrInvalidToken
	}
	ttl := auth.TokenExpiry
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	return s.tokenStore.Revoke(ctx, claims.ID, ttl)
}

// GetUser returns a user by id.
func (s *authService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", apperrors.ErrStoreUnavailable, err)
	}
	return user, nil
}
