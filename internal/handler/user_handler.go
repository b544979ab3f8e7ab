package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"checador/internal/errors"
	"checador/internal/service"
)

// UserHandler serves identity lookups.
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// GetUser godoc
// @Summary Get a user snapshot
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserDTO
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid id",
			Code:  "INVALID_ID",
		})
	}
	if !canRead(claims, uint(id)) {
		return forbidden()
	}

	user, err := h.authService.GetUser(c.Request().Context(), uint(id))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, NewUserDTO(user))
}
