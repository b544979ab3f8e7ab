package model

import "time"

// AcceptedOnLayout formats the UTC calendar day stored on accepted attendance.
const AcceptedOnLayout = "2006-01-02"

// Attendance records a single admission attempt. Every attempt for a known
// user is stored; only accepted rows carry AcceptedOn, and the unique index
// on (user_id, accepted_on) allows one accepted row per user per UTC day.
type Attendance struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	UserID             uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_attendance_user_day,priority:1"`
	Latitude           float64   `json:"latitude" gorm:"not null"`
	Longitude          float64   `json:"longitude" gorm:"not null"`
	Timestamp          time.Time `json:"timestamp" gorm:"not null"` // client reported, audit only
	ReceivedAt         time.Time `json:"received_at" gorm:"not null;index"`
	Accepted           bool      `json:"accepted" gorm:"not null;default:false;index"`
	AcceptedOn         *string   `json:"accepted_on,omitempty" gorm:"size:10;uniqueIndex:idx_attendance_user_day,priority:2"`
	RejectReason       string    `json:"reject_reason,omitempty" gorm:"size:50"`
	DistanceFromCenter *float64  `json:"distance_from_center,omitempty"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// UTCDay returns the AcceptedOn key for t.
func UTCDay(t time.Time) string {
	return t.UTC().Format(AcceptedOnLayout)
}
