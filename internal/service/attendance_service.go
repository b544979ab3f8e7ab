package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"checador/internal/cache"
	apperrors "checador/internal/errors"
	"checador/internal/geo"
	"checador/internal/metrics"
	"checador/internal/model"
	"checador/internal/repository"
)

// RegisterAttendanceInput is a proposed attendance event.
type RegisterAttendanceInput struct {
	UserID    uint
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// AttendanceService decides and records attendance admission.
type AttendanceService interface {
	Register(ctx context.Context, in RegisterAttendanceInput) (*model.Attendance, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Attendance, error)
	ListToday(ctx context.Context) ([]model.Attendance, error)
}

type attendanceService struct {
	userRepo       repository.UserRepository
	workplaceRepo  repository.WorkplaceRepository
	attendanceRepo repository.AttendanceRepository
	cache          *cache.Client
	cacheTTL       time.Duration
	metrics        *metrics.Recorder
	logger         echo.Logger
	now            func() time.Time
}

// NewAttendanceService creates a new attendance service.
func NewAttendanceService(
	userRepo repository.UserRepository,
	workplaceRepo repository.WorkplaceRepository,
	attendanceRepo repository.AttendanceRepository,
	cache *cache.Client,
	cacheTTL time.Duration,
	recorder *metrics.Recorder,
	logger echo.Logger,
) AttendanceService {
	return &attendanceService{
		userRepo:       userRepo,
		workplaceRepo:  workplaceRepo,
		attendanceRepo: attendanceRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		metrics:        recorder,
		logger:         logger,
		now:            time.Now,
	}
}

func geofenceCacheKey(workplaceID uint) string {
	return fmt.Sprintf("geofence:workplace:%d", workplaceID)
}

// Register runs the admission checks in order and stores the attempt. The
// returned error is either *errors.Rejection or a wrapped ErrStoreUnavailable.
// Server time decides the UTC day; the client timestamp is kept for audit.
func (s *attendanceService) Register(ctx context.Context, in RegisterAttendanceInput) (*model.Attendance, error) {
	receivedAt := s.now().UTC()
	if in.Timestamp.IsZero() {
		in.Timestamp = receivedAt
	}

	user, err := s.userRepo.FindByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Admission(string(apperrors.ReasonUserNotFound))
			return nil, apperrors.Reject(apperrors.ReasonUserNotFound, apperrors.MsgUserNotFound)
		}
		return nil, s.fault("find user", err)
	}

	if user.WorkplaceID == nil || user.Workplace == nil || !user.Workplace.Active {
		s.logger.Warnf("user %d has no active workplace assigned", user.ID)
		return nil, s.reject(ctx, in, receivedAt, apperrors.Reject(apperrors.ReasonNoWorkplaceAssigned, apperrors.MsgNoWorkplaceAssigned))
	}

	geofence, err := s.geofenceFor(ctx, *user.WorkplaceID)
	if err != nil {
		return nil, s.fault("find geofence", err)
	}
	if geofence == nil || !geofence.ValidRadius() {
		s.logger.Warnf("workplace %d has no usable geofence", *user.WorkplaceID)
		return nil, s.reject(ctx, in, receivedAt, apperrors.Reject(apperrors.ReasonNoGeofenceConfigured, apperrors.MsgNoGeofenceConfigured))
	}

	distance := geo.DistanceMeters(in.Latitude, in.Longitude, geofence.CenterLatitude, geofence.CenterLongitude)
	if distance > geofence.RadiusInMeters {
		s.logger.Warnf("user %d outside geofence, distance %.0fm", user.ID, distance)
		return nil, s.reject(ctx, in, receivedAt, apperrors.RejectOutside(distance))
	}

	day := model.UTCDay(receivedAt)
	attendance := &model.Attendance{
		UserID:             user.ID,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Timestamp:          in.Timestamp,
		ReceivedAt:         receivedAt,
		Accepted:           true,
		AcceptedOn:         &day,
		DistanceFromCenter: &distance,
	}

	already := apperrors.Reject(apperrors.ReasonAlreadyRegisteredToday, apperrors.MsgAlreadyRegisteredToday)
	already.Distance = &distance

	err = s.attendanceRepo.WithTransaction(ctx, func(ctx context.Context, tx repository.AttendanceRepository) error {
		exists, err := tx.HasAcceptedOn(ctx, user.ID, day)
		if err != nil {
			return err
		}
		if exists {
			return already
		}
		return tx.Create(ctx, attendance)
	})
	if err != nil {
		if _, ok := apperrors.AsRejection(err); ok || errors.Is(err, repository.ErrDuplicateAttendance) {
			return nil, s.reject(ctx, in, receivedAt, already)
		}
		return nil, s.fault("create attendance", err)
	}

	s.logger.Infof("attendance %d registered for user %d", attendance.ID, user.ID)
	s.metrics.Admission("accepted")
	return attendance, nil
}

// geofenceFor returns the workplace geofence, or nil when none is configured.
func (s *attendanceService) geofenceFor(ctx context.Context, workplaceID uint) (*model.Geofence, error) {
	key := geofenceCacheKey(workplaceID)
	var cached model.Geofence
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	geofence, err := s.workplaceRepo.FindGeofence(ctx, workplaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, geofence, s.cacheTTL); err != nil {
		s.logger.Warnf("cache geofence of workplace %d: %v", workplaceID, err)
	}
	return geofence, nil
}

// reject stores the rejected attempt for audit and returns the rejection.
// Audit failures are logged and do not change the outcome.
func (s *attendanceService) reject(ctx context.Context, in RegisterAttendanceInput, receivedAt time.Time, rej *apperrors.Rejection) error {
	s.metrics.Admission(string(rej.Reason))
	row := &model.Attendance{
		UserID:             in.UserID,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Timestamp:          in.Timestamp,
		ReceivedAt:         receivedAt,
		Accepted:           false,
		RejectReason:       string(rej.Reason),
		DistanceFromCenter: rej.Distance,
	}
	if err := s.attendanceRepo.Create(ctx, row); err != nil {
		s.logger.Warnf("store rejected attendance for user %d: %v", in.UserID, err)
	}
	return rej
}

func (s *attendanceService) fault(op string, err error) error {
	s.logger.Errorf("attendance %s: %v", op, err)
	s.metrics.Admission("error")
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStoreUnavailable, op, err)
}

// ListByUser returns the user's attendance, newest first.
func (s *attendanceService) ListByUser(ctx context.Context, userID uint) ([]model.Attendance, error) {
	rows, err := s.attendanceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attendance: %v", apperrors.ErrStoreUnavailable, err)
	}
	return rows, nil
}

// ListToday returns attendance received on the current UTC day, newest first.
func (s *attendanceService) ListToday(ctx context.Context) ([]model.Attendance, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.attendanceRepo.ListReceivedBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: list today: %v", apperrors.ErrStoreUnavailable, err)
	}
	return rows, nil
}
