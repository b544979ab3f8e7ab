package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"checador/internal/errors"
	"checador/internal/handler"
	"checador/internal/metrics"
	"checador/internal/service"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Attendance *handler.AttendanceHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	authService service.AuthService,
	recorder *metrics.Recorder,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", recorder.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require a valid, unrevoked bearer token)
	secured := api.Group("", BearerAuth(authService))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/users/:id", h.User.GetUser)

	secured.POST("/attendance/register", h.Attendance.Register)
	secured.GET("/attendance/user/:id", h.Attendance.ListByUser)
	secured.GET("/attendance/today", h.Attendance.ListToday)
}

// BearerAuth validates the Authorization bearer token through the auth
// service and stores *auth.Claims in the context.
func BearerAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: handler.ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := errors.MapErrorToHTTP(errors.ErrInvalidToken)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
