// Package geo provides great-circle distance and geofence containment helpers.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceMeters returns the haversine distance in meters between two points
// given in WGS-84 degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c * 1000
}

// IsWithinGeofence reports whether the point lies inside the circle. The
// boundary is inclusive.
func IsWithinGeofence(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	return DistanceMeters(lat, lon, centerLat, centerLon) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
