package localstore

import "time"

// Identity is the locally cached user. PasswordHash is only set for users
// who logged in successfully on this device, plus the demo admin.
type Identity struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Username      string     `json:"username" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255"`
	FullName      string     `json:"full_name" gorm:"size:200"`
	Email         string     `json:"email" gorm:"size:200"`
	Role          string     `json:"role" gorm:"size:20"`
	WorkplaceID   *uint      `json:"workplace_id,omitempty"`
	WorkplaceName string     `json:"workplace_name,omitempty" gorm:"size:200"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// TableName keeps the client tables apart from the session preferences.
func (Identity) TableName() string { return "cached_identities" }

// Geofence is the zone of a workplace kept for offline display.
type Geofence struct {
	WorkplaceID     uint      `json:"workplace_id" gorm:"primaryKey;autoIncrement:false"`
	RemoteID        uint      `json:"id"`
	CenterLatitude  float64   `json:"center_latitude"`
	CenterLongitude float64   `json:"center_longitude"`
	RadiusInMeters  float64   `json:"radius_in_meters"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Geofence) TableName() string { return "cached_geofences" }

// Attendance mirrors an attendance event fetched from the server.
type Attendance struct {
	ID                 uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID             uint      `json:"user_id" gorm:"index"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Timestamp          time.Time `json:"timestamp"`
	ReceivedAt         time.Time `json:"received_at" gorm:"index"`
	Accepted           bool      `json:"accepted"`
	RejectReason       string    `json:"reject_reason,omitempty"`
	DistanceFromCenter *float64  `json:"distance_from_center,omitempty"`
}

func (Attendance) TableName() string { return "cached_attendance" }
