package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"checador/internal/errors"
	"checador/internal/model"
	"checador/internal/service"
)

// AttendanceHandler handles attendance endpoints.
type AttendanceHandler struct {
	attendanceService service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(attendanceService service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// RegisterAttendanceRequest represents a proposed attendance event.
type RegisterAttendanceRequest struct {
	UserID    uint      `json:"user_id"`
	Latitude  *float64  `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64  `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceResponse represents the admission outcome. Business rejections
// are reported with success=false and HTTP 200.
type AttendanceResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Reason       string   `json:"reason,omitempty"`
	AttendanceID *uint    `json:"attendance_id,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
}

// Register godoc
// @Summary Register today's attendance
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterAttendanceRequest true "Location and timestamp"
// @Success 200 {object} AttendanceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /attendance/register [post]
func (h *AttendanceHandler) Register(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}

	var req RegisterAttendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	if req.UserID == 0 {
		req.UserID = claims.UserID
	}
	if req.UserID != claims.UserID {
		return forbidden()
	}

	row, err := h.attendanceService.Register(c.Request().Context(), service.RegisterAttendanceInput{
		UserID:    req.UserID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		if rej, ok := errors.AsRejection(err); ok {
			return c.JSON(http.StatusOK, AttendanceResponse{
				Success:  false,
				Message:  rej.Message,
				Reason:   string(rej.Reason),
				Distance: rej.Distance,
			})
		}
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, AttendanceResponse{
		Success:      true,
		Message:      "attendance registered successfully",
		AttendanceID: &row.ID,
		Distance:     row.DistanceFromCenter,
	})
}

// ListByUser godoc
// @Summary List a user's attendance, newest first
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} model.Attendance
// @Failure 403 {object} errors.ErrorResponse
// @Router /attendance/user/{id} [get]
func (h *AttendanceHandler) ListByUser(c echo.Context) error {
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

	rows, err := h.attendanceService.ListByUser(c.Request().Context(), uint(id))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, nonNil(rows))
}

// ListToday godoc
// @Summary List today's attendance (UTC), newest first
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Attendance
// @Failure 403 {object} errors.ErrorResponse
// @Router /attendance/today [get]
func (h *AttendanceHandler) ListToday(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	if claims.Role != model.RoleAdmin {
		return forbidden()
	}

	rows, err := h.attendanceService.ListToday(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, nonNil(rows))
}

func nonNil(rows []model.Attendance) []model.Attendance {
	if rows == nil {
		return []model.Attendance{}
	}
	return rows
}
