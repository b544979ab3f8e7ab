package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"checador/internal/model"
)

// ErrDuplicateAttendance is returned when an accepted attendance already
// exists for the user on that UTC day.
var ErrDuplicateAttendance = errors.New("attendance already registered for this day")

// AttendanceRepository defines attendance persistence operations.
type AttendanceRepository interface {
	Create(ctx context.Context, attendance *model.Attendance) error
	HasAcceptedOn(ctx context.Context, userID uint, day string) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Attendance, error)
	ListReceivedBetween(ctx context.Context, from, to time.Time) ([]model.Attendance, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo AttendanceRepository) error) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create inserts an attendance row. A unique violation on (user_id,
// accepted_on) is reported as ErrDuplicateAttendance.
func (r *attendanceRepository) Create(ctx context.Context, attendance *model.Attendance) error {
	err := r.db.WithContext(ctx).Omit("User").Create(attendance).Error
	if isDuplicateKey(err) {
		return ErrDuplicateAttendance
	}
	return err
}

// HasAcceptedOn reports whether the user has an accepted attendance on day.
func (r *attendanceRepository) HasAcceptedOn(ctx context.Context, userID uint, day string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("user_id = ? AND accepted = ? AND accepted_on = ?", userID, true, day).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser returns the user's attendance, newest first.
func (r *attendanceRepository) ListByUser(ctx context.Context, userID uint) ([]model.Attendance, error) {
	var rows []model.Attendance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("received_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListReceivedBetween returns attendance received in [from, to), newest
// first, with the owning user loaded.
func (r *attendanceRepository) ListReceivedBetween(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	var rows []model.Attendance
	if err := r.db.WithContext(ctx).Preload("User").
		Where("received_at >= ? AND received_at < ?", from, to).
		Order("received_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// WithTransaction executes a function within a database transaction.
func (r *attendanceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo AttendanceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &attendanceRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "duplicate") || strings.Contains(low, "unique")
}
