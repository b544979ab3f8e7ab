package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePoint(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{19.432608, -99.133209},
		{-33.8688, 151.2093},
		{89.9, 179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceMeters(p[0], p[1], p[0], p[1]))
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := [2]float64{19.432608, -99.133209}
	b := [2]float64{19.436, -99.14}
	assert.InDelta(t, DistanceMeters(a[0], a[1], b[0], b[1]), DistanceMeters(b[0], b[1], a[0], a[1]), 1e-9)
}

func TestDistanceMeters_EquatorFixture(t *testing.T) {
	d := DistanceMeters(0, 0, 0.001798, 0)
	assert.InEpsilon(t, 200.0, d, 0.01)
}

func TestIsWithinGeofence_Boundary(t *testing.T) {
	d := DistanceMeters(0, 0, 0.001798, 0)

	tests := []struct {
		name   string
		radius float64
		want   bool
	}{
		{name: "radius equals distance", radius: d, want: true},
		{name: "radius a centimeter short", radius: d - 0.01, want: false},
		{name: "radius larger", radius: d + 1, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinGeofence(0.001798, 0, 0, 0, tt.radius))
		})
	}
}

func TestIsWithinGeofence_CenterAndNorth(t *testing.T) {
	centerLat, centerLon := 19.432608, -99.133209
	assert.True(t, IsWithinGeofence(centerLat, centerLon, centerLat, centerLon, 200))

	// 250 m due north: 250 / 111195 degrees of latitude.
	northLat := centerLat + 250.0/(EarthRadiusKm*1000)*180/3.141592653589793
	d := DistanceMeters(northLat, centerLon, centerLat, centerLon)
	assert.InEpsilon(t, 250.0, d, 0.01)
	assert.False(t, IsWithinGeofence(northLat, centerLon, centerLat, centerLon, 200))
}
