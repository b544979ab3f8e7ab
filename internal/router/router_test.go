package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"checador/internal/auth"
	"checador/internal/db"
	"checador/internal/handler"
	"checador/internal/metrics"
	"checador/internal/model"
	"checador/internal/repository"
	"checador/internal/service"
)

const (
	centerLat = 19.432608
	centerLon = -99.133209
)

type testAPI struct {
	e        *echo.Echo
	memberID uint
	adminID  uint
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	ctx := context.Background()
	users := repository.NewUserRepository(gormDB)
	workplaces := repository.NewWorkplaceRepository(gormDB)
	attendance := repository.NewAttendanceRepository(gormDB)

	wp := &model.Workplace{Name: "Oficina Central", Address: "Centro", Phone: "555", Zip: "06000", Active: true}
	require.NoError(t, workplaces.Create(ctx, wp))
	require.NoError(t, workplaces.UpsertGeofence(ctx, &model.Geofence{WorkplaceID: wp.ID, CenterLatitude: centerLat, CenterLongitude: centerLon, RadiusInMeters: 200}))

	adminHash, err := auth.HashPassword("Admin123!")
	require.NoError(t, err)
	userHash, err := auth.HashPassword("User123!")
	require.NoError(t, err)
	admin := &model.User{Username: "admin", PasswordHash: adminHash, FullName: "Admin", Email: "a@c.com", Role: model.RoleAdmin, Active: true}
	memberUser := &model.User{Username: "jdoe", PasswordHash: userHash, FullName: "John Doe", Email: "j@c.com", Role: model.RoleMember, WorkplaceID: &wp.ID, Active: true}
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, memberUser))

	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	recorder := metrics.New()
	jwtService := auth.NewJWTService("test-secret", "checador-api", "checador-mobile")
	authService := service.NewAuthService(users, jwtService, auth.NewTokenStore(nil), recorder, e.Logger)
	attendanceService := service.NewAttendanceService(users, workplaces, attendance, nil, time.Minute, recorder, e.Logger)

	Register(e, authService, recorder, Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(authService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
	})
	return &testAPI{e: e, memberID: memberUser.ID, adminID: admin.ID}
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/api/auth/login", "", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"], rec.Body.String())
	return body["token"].(string)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"jdoe","password":"User123!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "jdoe", user["username"])
	assert.Equal(t, "Oficina Central", user["workplace_name"])
	geofence := body["geofence"].(map[string]interface{})
	assert.Equal(t, 200.0, geofence["radius_in_meters"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = api.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"jdoe","password":"wrong"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "incorrect username or password", body["message"])
	assert.Nil(t, body["token"])

	rec, _ = api.do(t, http.MethodPost, "/api/auth/login", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(t, http.MethodPost, "/api/attendance/register", "", `{"latitude":0,"longitude":0}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	rec, _ = api.do(t, http.MethodGet, "/api/attendance/today", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAttendance(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "jdoe", "User123!")

	payload := fmt.Sprintf(`{"latitude":%f,"longitude":%f,"timestamp":"2026-03-02T08:00:00Z"}`, centerLat, centerLon)
	rec, body := api.do(t, http.MethodPost, "/api/attendance/register", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"], rec.Body.String())
	assert.NotNil(t, body["attendance_id"])

	rec, body = api.do(t, http.MethodPost, "/api/attendance/register", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ALREADY_REGISTERED_TODAY", body["reason"])

	rec, body = api.do(t, http.MethodPost, "/api/attendance/register", token, `{"latitude":95,"longitude":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	rec, _ = api.do(t, http.MethodPost, "/api/attendance/register", token, fmt.Sprintf(`{"user_id":%d,"latitude":0,"longitude":0}`, api.adminID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterAttendance_OutsideGeofence(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "jdoe", "User123!")

	rec, body := api.do(t, http.MethodPost, "/api/attendance/register", token, fmt.Sprintf(`{"latitude":%f,"longitude":%f}`, centerLat+0.01, centerLon))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "OUTSIDE_GEOFENCE", body["reason"])
	assert.InEpsilon(t, 1112.0, body["distance"].(float64), 0.01)
}

func TestAttendanceQueries(t *testing.T) {
	api := newTestAPI(t)
	memberToken := api.login(t, "jdoe", "User123!")
	adminToken := api.login(t, "admin", "Admin123!")

	_, body := api.do(t, http.MethodPost, "/api/attendance/register", memberToken, fmt.Sprintf(`{"latitude":%f,"longitude":%f}`, centerLat, centerLon))
	require.Equal(t, true, body["success"])

	own := fmt.Sprintf("/api/attendance/user/%d", api.memberID)
	rec, _ := api.do(t, http.MethodGet, own, memberToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	rec, _ = api.do(t, http.MethodGet, fmt.Sprintf("/api/attendance/user/%d", api.adminID), memberToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/attendance/today", memberToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/attendance/today", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	rec, body = api.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", api.memberID), adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", body["username"])
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "jdoe", "User123!")

	rec, body := api.do(t, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)
	api.login(t, "jdoe", "User123!")

	rec, _ := api.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `checador_login_total{outcome="success"} 1`)
}
