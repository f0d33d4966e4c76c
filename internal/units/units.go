package units

import (
	"fmt"
	"math"
	"strings"
)

type DistanceUnit string
type SpeedUnit string
type ElevationUnit string
type PowerUnit string

const (
	Kilometers DistanceUnit = "km"
	Meters     DistanceUnit = "m"
	Miles      DistanceUnit = "mi"
	Feet       DistanceUnit = "ft"
	Yards      DistanceUnit = "yd"
)

const (
	KilometersPerHour SpeedUnit = "km/h"
	MilesPerHour      SpeedUnit = "mph"
	MetersPerSecond   SpeedUnit = "m/s"
	MinutesPerKm      SpeedUnit = "min/km"
	MinutesPerMile    SpeedUnit = "min/mi"
)

const (
	ElevationMeters ElevationUnit = "m"
	ElevationFeet   ElevationUnit = "ft"
)

const (
	Watts     PowerUnit = "W"
	Kilowatts PowerUnit = "kW"
)

const (
	metersPerKilometer = 1000.0
	metersPerMile      = 1609.344
	metersPerFoot      = 0.3048
	metersPerYard      = 0.9144
	mpsPerMph          = 0.44704
	kmhPerMps          = 3.6
)

var distanceFactors = map[DistanceUnit]float64{
	Kilometers: metersPerKilometer,
	Meters:     1,
	Miles:      metersPerMile,
	Feet:       metersPerFoot,
	Yards:      metersPerYard,
}

// DistanceToMeters converts a distance in unit to meters. Unknown units are
// treated as meters.
func DistanceToMeters(value float64, unit DistanceUnit) float64 {
	factor, ok := distanceFactors[unit]
	if !ok {
		return value
	}
	return value * factor
}

// MetersTo is the inverse of DistanceToMeters.
func MetersTo(meters float64, unit DistanceUnit) float64 {
	factor, ok := distanceFactors[unit]
	if !ok {
		return meters
	}
	return meters / factor
}

func TimeToSeconds(hours, minutes, seconds float64) float64 {
	return hours*3600 + minutes*60 + seconds
}

// SpeedToMetersPerSecond accepts both speeds and paces. A non-positive pace
// has no meaningful speed and converts to 0.
func SpeedToMetersPerSecond(value float64, unit SpeedUnit) float64 {
	switch unit {
	case KilometersPerHour:
		return value / kmhPerMps
	case MilesPerHour:
		return value * mpsPerMph
	case MinutesPerKm:
		if value <= 0 {
			return 0
		}
		return metersPerKilometer / (value * 60)
	case MinutesPerMile:
		if value <= 0 {
			return 0
		}
		return metersPerMile / (value * 60)
	default:
		return value
	}
}

// MetersPerSecondTo is the inverse of SpeedToMetersPerSecond. Paces for a
// non-positive speed are 0.
func MetersPerSecondTo(mps float64, unit SpeedUnit) float64 {
	switch unit {
	case KilometersPerHour:
		return mps * kmhPerMps
	case MilesPerHour:
		return mps / mpsPerMph
	case MinutesPerKm:
		if mps <= 0 {
			return 0
		}
		return metersPerKilometer / (mps * 60)
	case MinutesPerMile:
		if mps <= 0 {
			return 0
		}
		return metersPerMile / (mps * 60)
	default:
		return mps
	}
}

func ElevationToMeters(value float64, unit ElevationUnit) float64 {
	if unit == ElevationFeet {
		return value * metersPerFoot
	}
	return value
}

func PowerToWatts(value float64, unit PowerUnit) float64 {
	if unit == Kilowatts {
		return value * 1000
	}
	return value
}

func (u SpeedUnit) IsPace() bool {
	return u == MinutesPerKm || u == MinutesPerMile
}

// PreferredSpeedUnit picks pace for foot and water sports, speed for the rest.
func PreferredSpeedUnit(sportType string) SpeedUnit {
	sport := strings.ToLower(sportType)
	switch {
	case strings.Contains(sport, "run"), strings.Contains(sport, "walk"), strings.Contains(sport, "swim"):
		return MinutesPerKm
	default:
		return KilometersPerHour
	}
}

func ParseDistanceUnit(s string) (DistanceUnit, error) {
	u := DistanceUnit(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := distanceFactors[u]; !ok {
		return "", fmt.Errorf("unsupported distance unit %q", s)
	}
	return u, nil
}

func ParseSpeedUnit(s string) (SpeedUnit, error) {
	u := SpeedUnit(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case KilometersPerHour, MilesPerHour, MetersPerSecond, MinutesPerKm, MinutesPerMile:
		return u, nil
	}
	return "", fmt.Errorf("unsupported speed unit %q", s)
}

func ParseElevationUnit(s string) (ElevationUnit, error) {
	u := ElevationUnit(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case ElevationMeters, ElevationFeet:
		return u, nil
	}
	return "", fmt.Errorf("unsupported elevation unit %q", s)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
