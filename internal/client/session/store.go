// Package session persists the signed-in identity and bearer token of the
// client across restarts. State lives under three preference keys that are
// always written and cleared together.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"checador/internal/client/localstore"
)

// Preference keys.
const (
	KeyToken    = "auth_token"
	KeyUserID   = "user_id"
	KeyIdentity = "user_snapshot"
)

var keys = []string{KeyToken, KeyUserID, KeyIdentity}

// Preference is a persisted key/value pair.
type Preference struct {
	Key       string `gorm:"column:pref_key;primaryKey;size:64"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Preference) TableName() string { return "preferences" }

// State is what a previous run left behind. Identity is nil when the
// snapshot was missing or unreadable; UserID is still set when known so
// the identity can be fetched again. An empty Token means the user signed
// in through local fallback.
type State struct {
	Token    string
	UserID   uint
	Identity *localstore.Identity
}

// Store reads and writes State.
type Store struct {
	db     *gorm.DB
	logger echo.Logger
}

// New migrates the preferences table on db.
func New(db *gorm.DB, logger echo.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, fmt.Errorf("migrate preferences: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Save replaces the persisted state in one transaction. An empty token
// removes any previous one.
func (s *Store) Save(ctx context.Context, identity *localstore.Identity, token string) error {
	if identity == nil {
		return fmt.Errorf("save session: identity is required")
	}
	snapshot, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity snapshot: %w", err)
	}

	prefs := []Preference{
		{Key: KeyUserID, Value: strconv.FormatUint(uint64(identity.ID), 10)},
		{Key: KeyIdentity, Value: string(snapshot)},
	}
	if token != "" {
		prefs = append(prefs, Preference{Key: KeyToken, Value: token})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pref_key IN ?", keys).Delete(&Preference{}).Error; err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&prefs).Error; err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	})
}

// Load returns the persisted state, or nil when nothing is stored.
// Malformed values are logged and treated as absent.
func (s *Store) Load(ctx context.Context) (*State, error) {
	var prefs []Preference
	if err := s.db.WithContext(ctx).Where("pref_key IN ?", keys).Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(prefs) == 0 {
		return nil, nil
	}

	values := make(map[string]string, len(prefs))
	for _, p := range prefs {
		values[p.Key] = p.Value
	}

	state := &State{Token: values[KeyToken]}
	if raw, ok := values[KeyUserID]; ok {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.logger.Warnf("session: discarding malformed user id %q", raw)
		} else {
			state.UserID = uint(id)
		}
	}
	if raw, ok := values[KeyIdentity]; ok {
		var identity localstore.Identity
		switch err := json.Unmarshal([]byte(raw), &identity); {
		case err != nil:
			s.logger.Warnf("session: discarding unreadable identity snapshot: %v", err)
		case identity.ID == 0 || (state.UserID != 0 && identity.ID != state.UserID):
			s.logger.Warnf("session: discarding identity snapshot for user %d, expected %d", identity.ID, state.UserID)
		default:
			state.Identity = &identity
			state.UserID = identity.ID
		}
	}

	if state.Identity == nil && state.UserID == 0 {
		return nil, nil
	}
	return state, nil
}

// Clear removes all three keys in one statement.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pref_key IN ?", keys).Delete(&Preference{}).Error; err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	})
}
