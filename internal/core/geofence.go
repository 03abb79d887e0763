package core

import "math"

const (
	earthRadiusMiles = 3959.0

	// DefaultGeofenceRadiusMiles is used when a company has not configured a
	// clock-in radius.
	DefaultGeofenceRadiusMiles = 0.25
)

// CalculateDistanceMiles returns the great-circle (haversine) distance
// between two points.
func CalculateDistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// IsWithinGeofence reports whether the user is within radiusMiles of the site,
// boundary inclusive. A non-positive radius means the default.
func IsWithinGeofence(userLat, userLng, siteLat, siteLng, radiusMiles float64) bool {
	if radiusMiles <= 0 {
		radiusMiles = DefaultGeofenceRadiusMiles
	}
	return CalculateDistanceMiles(userLat, userLng, siteLat, siteLng) <= radiusMiles
}

// ValidCoordinates reports whether both values are present and in range.
func ValidCoordinates(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	if math.IsNaN(*lat) || math.IsNaN(*lng) {
		return false
	}
	return *lat >= -90 && *lat <= 90 && *lng >= -180 && *lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
