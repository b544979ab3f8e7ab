package model

import "time"

const (
	// MinGeofenceRadius is the smallest radius an administrator may configure.
	MinGeofenceRadius = 10.0
	// MaxGeofenceRadius is the largest radius an administrator may configure.
	MaxGeofenceRadius = 10000.0
)

// Workplace is a physical site members report presence at.
type Workplace struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Address   string    `json:"address" gorm:"size:300;not null"`
	Phone     string    `json:"phone" gorm:"size:20;not null"`
	Zip       string    `json:"zip" gorm:"size:10;not null"`
	Active    bool      `json:"active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Geofence *Geofence `json:"geofence,omitempty" gorm:"foreignKey:WorkplaceID"`
}

// Geofence is the circular zone owned by a workplace.
type Geofence struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	WorkplaceID     uint      `json:"workplace_id" gorm:"uniqueIndex;not null"`
	CenterLatitude  float64   `json:"center_latitude" gorm:"not null"`
	CenterLongitude float64   `json:"center_longitude" gorm:"not null"`
	RadiusInMeters  float64   `json:"radius_in_meters" gorm:"not null;default:100"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidRadius reports whether the radius lies in the configurable range.
func (g *Geofence) ValidRadius() bool {
	return g.RadiusInMeters >= MinGeofenceRadius && g.RadiusInMeters <= MaxGeofenceRadius
}
