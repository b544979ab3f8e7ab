package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"checador/internal/auth"
	"checador/internal/errors"
	"checador/internal/model"
	"checador/internal/service"
)

// ClaimsContextKey is where the JWT middleware stores *auth.Claims.
const ClaimsContextKey = "user"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO is the identity snapshot returned to clients.
type UserDTO struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Role          model.Role `json:"role"`
	WorkplaceID   *uint      `json:"workplace_id,omitempty"`
	WorkplaceName string     `json:"workplace_name,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     string     `json:"created_at"`
	LastLoginAt   *string    `json:"last_login_at,omitempty"`
}

// GeofenceDTO is the geofence embedded in a login response.
type GeofenceDTO struct {
	ID              uint    `json:"id"`
	WorkplaceID     uint    `json:"workplace_id"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusInMeters  float64 `json:"radius_in_meters"`
	UpdatedAt       string  `json:"updated_at"`
}

// LoginResponse represents an authentication response. Rejections are
// reported with success=false and HTTP 200.
type LoginResponse struct {
	Success  bool         `json:"success"`
	Token    string       `json:"token,omitempty"`
	Message  string       `json:"message"`
	Reason   string       `json:"reason,omitempty"`
	User     *UserDTO     `json:"user,omitempty"`
	Geofence *GeofenceDTO `json:"geofence,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// NewUserDTO converts a user to its public snapshot.
func NewUserDTO(u *model.User) *UserDTO {
	dto := &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Email:       u.Email,
		Role:        u.Role,
		WorkplaceID: u.WorkplaceID,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt.UTC().Format(timeLayout),
	}
	if u.Workplace != nil {
		dto.WorkplaceName = u.Workplace.Name
	}
	if u.LastLoginAt != nil {
		s := u.LastLoginAt.UTC().Format(timeLayout)
		dto.LastLoginAt = &s
	}
	return dto
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if rej, ok := errors.AsRejection(err); ok {
			return c.JSON(http.StatusOK, LoginResponse{
				Success: false,
				Message: rej.Message,
				Reason:  string(rej.Reason),
			})
		}
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	resp := LoginResponse{
		Success: true,
		Token:   result.Token,
		Message: "login successful",
		User:    NewUserDTO(result.User),
	}
	if g := result.Geofence; g != nil {
		resp.Geofence = &GeofenceDTO{
			ID:              g.ID,
			WorkplaceID:     g.WorkplaceID,
			CenterLatitude:  g.CenterLatitude,
			CenterLongitude: g.CenterLongitude,
			RadiusInMeters:  g.RadiusInMeters,
			UpdatedAt:       g.UpdatedAt.UTC().Format(timeLayout),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Revoke the presented bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "logged out successfully",
	})
}

// claimsFrom returns the authenticated caller's claims.
func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		httpErr := errors.MapErrorToHTTP(errors.ErrInvalidToken)
		return nil, echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return claims, nil
}

// canRead reports whether the caller may read data owned by userID.
func canRead(claims *auth.Claims, userID uint) bool {
	return claims.Role == model.RoleAdmin || claims.UserID == userID
}

func forbidden() error {
	httpErr := errors.MapErrorToHTTP(errors.ErrForbidden)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
