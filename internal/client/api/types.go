package api

import "time"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity is the user snapshot served by the API.
type Identity struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	WorkplaceID   *uint      `json:"workplace_id,omitempty"`
	WorkplaceName string     `json:"workplace_name,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// Geofence is the workplace zone embedded in a login response.
type Geofence struct {
	ID              uint      `json:"id"`
	WorkplaceID     uint      `json:"workplace_id"`
	CenterLatitude  float64   `json:"center_latitude"`
	CenterLongitude float64   `json:"center_longitude"`
	RadiusInMeters  float64   `json:"radius_in_meters"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Success  bool      `json:"success"`
	Token    string    `json:"token,omitempty"`
	Message  string    `json:"message"`
	Reason   string    `json:"reason,omitempty"`
	User     *Identity `json:"user,omitempty"`
	Geofence *Geofence `json:"geofence,omitempty"`
}

// AttendanceRequest is the body of POST /attendance/register.
type AttendanceRequest struct {
	UserID    uint      `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceResponse is the body returned by POST /attendance/register.
type AttendanceResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Reason       string   `json:"reason,omitempty"`
	AttendanceID *uint    `json:"attendance_id,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
}

// AttendanceEvent is one stored admission attempt.
type AttendanceEvent struct {
	ID                 uint      `json:"id"`
	UserID             uint      `json:"user_id"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Timestamp          time.Time `json:"timestamp"`
	ReceivedAt         time.Time `json:"received_at"`
	Accepted           bool      `json:"accepted"`
	AcceptedOn         string    `json:"accepted_on,omitempty"`
	RejectReason       string    `json:"reject_reason,omitempty"`
	DistanceFromCenter *float64  `json:"distance_from_center,omitempty"`
}
