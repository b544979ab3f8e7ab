package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"checador/internal/db"
	"checador/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func seedMember(t *testing.T, gormDB *gorm.DB) *model.User {
	t.Helper()
	ctx := context.Background()
	workplaces := NewWorkplaceRepository(gormDB)
	users := NewUserRepository(gormDB)

	wp := &model.Workplace{Name: "Oficina Central", Address: "Centro", Phone: "555", Zip: "06000", Active: true}
	require.NoError(t, workplaces.Create(ctx, wp))
	require.NoError(t, workplaces.UpsertGeofence(ctx, &model.Geofence{
		WorkplaceID: wp.ID, CenterLatitude: 19.432608, CenterLongitude: -99.133209, RadiusInMeters: 200,
	}))

	user := &model.User{Username: "jdoe", PasswordHash: "x", FullName: "John Doe", Email: "j@d.com", Role: model.RoleMember, WorkplaceID: &wp.ID, Active: true}
	require.NoError(t, users.Create(ctx, user))
	return user
}

func TestUserRepository_FindPreloadsGeofence(t *testing.T) {
	gormDB := newTestDB(t)
	seeded := seedMember(t, gormDB)
	users := NewUserRepository(gormDB)
	ctx := context.Background()

	byName, err := users.FindByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.NotNil(t, byName.Workplace)
	require.NotNil(t, byName.Workplace.Geofence)
	assert.Equal(t, 200.0, byName.Workplace.Geofence.RadiusInMeters)

	byID, err := users.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", byID.Username)
	require.NotNil(t, byID.Workplace)
	assert.Nil(t, byID.Workplace.Geofence)

	_, err = users.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	gormDB := newTestDB(t)
	seeded := seedMember(t, gormDB)
	users := NewUserRepository(gormDB)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, users.UpdateLastLogin(ctx, seeded.ID, at))

	got, err := users.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))
}

func TestWorkplaceRepository_UpsertGeofenceKeepsOne(t *testing.T) {
	gormDB := newTestDB(t)
	seeded := seedMember(t, gormDB)
	workplaces := NewWorkplaceRepository(gormDB)
	ctx := context.Background()

	require.NoError(t, workplaces.UpsertGeofence(ctx, &model.Geofence{
		WorkplaceID: *seeded.WorkplaceID, CenterLatitude: 1, CenterLongitude: 2, RadiusInMeters: 500,
	}))

	var count int64
	require.NoError(t, gormDB.Model(&model.Geofence{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	g, err := workplaces.FindGeofence(ctx, *seeded.WorkplaceID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, g.RadiusInMeters)
}

func TestAttendanceRepository_UniquePerDay(t *testing.T) {
	gormDB := newTestDB(t)
	user := seedMember(t, gormDB)
	repo := NewAttendanceRepository(gormDB)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day := model.UTCDay(now)
	accepted := func() *model.Attendance {
		return &model.Attendance{UserID: user.ID, Timestamp: now, ReceivedAt: now, Accepted: true, AcceptedOn: &day}
	}

	require.NoError(t, repo.Create(ctx, accepted()))
	assert.ErrorIs(t, repo.Create(ctx, accepted()), ErrDuplicateAttendance)

	// rejected attempts carry no day and never collide
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Create(ctx, &model.Attendance{UserID: user.ID, Timestamp: now, ReceivedAt: now, RejectReason: "OUTSIDE_GEOFENCE"}))
	}

	has, err := repo.HasAcceptedOn(ctx, user.ID, day)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasAcceptedOn(ctx, user.ID, model.UTCDay(now.AddDate(0, 0, 1)))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestAttendanceRepository_ListsNewestFirst(t *testing.T) {
	gormDB := newTestDB(t)
	user := seedMember(t, gormDB)
	repo := NewAttendanceRepository(gormDB)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.AddDate(0, 0, i).Add(9 * time.Hour)
		day := model.UTCDay(at)
		require.NoError(t, repo.Create(ctx, &model.Attendance{UserID: user.ID, Timestamp: at, ReceivedAt: at, Accepted: true, AcceptedOn: &day}))
	}

	rows, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].ReceivedAt.After(rows[1].ReceivedAt))
	assert.True(t, rows[1].ReceivedAt.After(rows[2].ReceivedAt))

	today, err := repo.ListReceivedBetween(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, today, 1)
	require.NotNil(t, today[0].User)
	assert.Equal(t, "jdoe", today[0].User.Username)
}

func TestAttendanceRepository_TransactionRollsBack(t *testing.T) {
	gormDB := newTestDB(t)
	user := seedMember(t, gormDB)
	repo := NewAttendanceRepository(gormDB)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err := repo.WithTransaction(ctx, func(ctx context.Context, tx AttendanceRepository) error {
		if err := tx.Create(ctx, &model.Attendance{UserID: user.ID, Timestamp: now, ReceivedAt: now}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	rows, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
