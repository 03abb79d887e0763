package core_test

import (
	"math"
	"testing"
	"time"

	"commandx/internal/core"
)

func TestCalculateDistanceMiles(t *testing.T) {
	if d := core.CalculateDistanceMiles(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Errorf("expected 0 for the same point, got %f", d)
	}

	// One degree of latitude on a 3959 mile sphere.
	d := core.CalculateDistanceMiles(40, -74, 41, -74)
	if math.Abs(d-69.0955) > 0.01 {
		t.Errorf("expected about 69.10 miles, got %f", d)
	}
}

func TestIsWithinGeofence(t *testing.T) {
	siteLat, siteLng := 40.7128, -74.0060

	tests := []struct {
		name   string
		lat    float64
		radius float64
		want   bool
	}{
		{"on site", siteLat, 0.25, true},
		{"about 0.21 miles away", siteLat + 0.003, 0.25, true},
		{"about 0.35 miles away", siteLat + 0.005, 0.25, false},
		{"zero radius uses default", siteLat + 0.003, 0, true},
		{"wide radius", siteLat + 0.05, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.IsWithinGeofence(tt.lat, siteLng, siteLat, siteLng, tt.radius); got != tt.want {
				t.Errorf("IsWithinGeofence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWithinGeofence_RadiusBoundary(t *testing.T) {
	siteLat, siteLng := 40.7128, -74.0060
	userLat := siteLat + 0.0036
	d := core.CalculateDistanceMiles(userLat, siteLng, siteLat, siteLng)

	tests := []struct {
		name   string
		radius float64
		want   bool
	}{
		{"radius just above distance", d + 1e-9, true},
		{"radius equal to distance", d, true},
		{"radius just below distance", d - 1e-9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.IsWithinGeofence(userLat, siteLng, siteLat, siteLng, tt.radius); got != tt.want {
				t.Errorf("IsWithinGeofence(radius=%.12f, distance=%.12f) = %v, want %v", tt.radius, d, got, tt.want)
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		lat, lng *float64
		want     bool
	}{
		{"valid", f(40.7), f(-74), true},
		{"poles and antimeridian", f(90), f(-180), true},
		{"missing lat", nil, f(-74), false},
		{"lat out of range", f(91), f(0), false},
		{"lng out of range", f(0), f(180.5), false},
		{"nan", f(math.NaN()), f(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.ValidCoordinates(tt.lat, tt.lng); got != tt.want {
				t.Errorf("ValidCoordinates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkedHours(t *testing.T) {
	in := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

	assertDec(t, "eight and a half hours", core.WorkedHours(in, in.Add(8*time.Hour+30*time.Minute)), "8.5")
	assertDec(t, "twenty minutes", core.WorkedHours(in, in.Add(20*time.Minute)), "0.33")
	assertDec(t, "negative span", core.WorkedHours(in, in.Add(-time.Hour)), "0")
}
