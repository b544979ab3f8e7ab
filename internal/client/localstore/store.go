// Package localstore is the client-side cache of identities, credential
// hashes, geofences and attendance, kept in a sqlite file.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"checador/internal/auth"
)

// Demo account created on first open so the device can log in offline.
const (
	DemoUsername = "admin"
	DemoPassword = "admin123"
)

// ErrNotFound is returned when a cached row does not exist.
var ErrNotFound = errors.New("not found in local store")

// Store is the local cache.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenDB opens the sqlite file at path. ":memory:" gives a private
// in-memory database.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// New migrates the cache tables on db and seeds the demo account.
func New(ctx context.Context, db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Identity{}, &Geofence{}, &Attendance{}); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.seedDemo(ctx, db); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seedDemo(ctx context.Context, tx *gorm.DB) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&Identity{}).Where("username = ?", DemoUsername).Count(&count).Error; err != nil {
		return fmt.Errorf("check demo account: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	demo := &Identity{
		Username:     DemoUsername,
		PasswordHash: hash,
		FullName:     "Administrador",
		Email:        "admin@checador.local",
		Role:         "Admin",
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := tx.WithContext(ctx).Create(demo).Error; err != nil {
		return fmt.Errorf("create demo account: %w", err)
	}
	return nil
}

// FindIdentityByUsername returns the cached identity, or ErrNotFound.
func (s *Store) FindIdentityByUsername(ctx context.Context, username string) (*Identity, error) {
	var identity Identity
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindIdentityByID returns the cached identity, or ErrNotFound.
func (s *Store) FindIdentityByID(ctx context.Context, id uint) (*Identity, error) {
	var identity Identity
	err := s.db.WithContext(ctx).First(&identity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// SaveIdentity upserts the snapshot by id. A stale row holding the same
// username under another id is replaced. The stored credential hash is kept
// unless identity carries one.
func (s *Store) SaveIdentity(ctx context.Context, identity *Identity) error {
	columns := []string{"username", "full_name", "email", "role", "workplace_id", "workplace_name", "active", "created_at", "last_login_at"}
	if identity.PasswordHash != "" {
		columns = append(columns, "password_hash")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ? AND id <> ?", identity.Username, identity.ID).Delete(&Identity{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(identity).Error
	})
}

// SetCredential stores the hash used for local fallback login.
func (s *Store) SetCredential(ctx context.Context, id uint, hash string) error {
	return s.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Update("password_hash", hash).Error
}

// UpdateLastLogin records a successful login on this device.
func (s *Store) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// SaveGeofence upserts the geofence of its workplace.
func (s *Store) SaveGeofence(ctx context.Context, geofence *Geofence) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workplace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remote_id", "center_latitude", "center_longitude", "radius_in_meters", "updated_at"}),
	}).Create(geofence).Error
}

// FindGeofence returns the cached geofence of workplaceID, or ErrNotFound.
func (s *Store) FindGeofence(ctx context.Context, workplaceID uint) (*Geofence, error) {
	var geofence Geofence
	err := s.db.WithContext(ctx).Where("workplace_id = ?", workplaceID).First(&geofence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &geofence, nil
}

// SaveAttendance upserts events fetched from the server.
func (s *Store) SaveAttendance(ctx context.Context, events []Attendance) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&events).Error
}

// ListAttendance returns the cached events of userID, newest first.
func (s *Store) ListAttendance(ctx context.Context, userID uint) ([]Attendance, error) {
	var events []Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("received_at desc").
		Order("id desc").
		Find(&events).Error
	return events, err
}

// Wipe deletes every cached identity, geofence and attendance row in one
// transaction, then recreates the demo account.
func (s *Store) Wipe(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&Attendance{}, &Geofence{}, &Identity{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("wipe local store: %w", err)
			}
		}
		return s.seedDemo(ctx, tx)
	})
}
