package service

import (
	"context"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/mock"

	"checador/internal/model"
	"checador/internal/repository"
)

func quietLogger() echo.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockWorkplaceRepository is a mock implementation of WorkplaceRepository.
type MockWorkplaceRepository struct {
	mock.Mock
}

func (m *MockWorkplaceRepository) Create(ctx context.Context, workplace *model.Workplace) error {
	args := m.Called(ctx, workplace)
	return args.Error(0)
}

func (m *MockWorkplaceRepository) FindByName(ctx context.Context, name string) (*model.Workplace, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Workplace), args.Error(1)
}

func (m *MockWorkplaceRepository) FindGeofence(ctx context.Context, workplaceID uint) (*model.Geofence, error) {
	args := m.Called(ctx, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Geofence), args.Error(1)
}

func (m *MockWorkplaceRepository) UpsertGeofence(ctx context.Context, geofence *model.Geofence) error {
	args := m.Called(ctx, geofence)
	return args.Error(0)
}

// MockAttendanceRepository is a mock implementation of AttendanceRepository.
// WithTransaction runs fn against the mock itself.
type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Create(ctx context.Context, attendance *model.Attendance) error {
	args := m.Called(ctx, attendance)
	return args.Error(0)
}

func (m *MockAttendanceRepository) HasAcceptedOn(ctx context.Context, userID uint, day string) (bool, error) {
	args := m.Called(ctx, userID, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceRepository) ListByUser(ctx context.Context, userID uint) ([]model.Attendance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) ListReceivedBetween(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attendance), args.Error(1)
}

func (m *MockAttendanceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.AttendanceRepository) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
