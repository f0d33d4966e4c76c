package units

import (
	"fmt"
	"math"
	"strings"
)

// Placeholder rendered when a value has no meaningful display.
const NoValue = "-"

type DurationStyle string

const (
	DurationShort   DurationStyle = "short"
	DurationLong    DurationStyle = "long"
	DurationCompact DurationStyle = "compact"
)

func FormatDistance(meters float64, unit DistanceUnit, decimals int) string {
	meters = finite(meters)
	if meters == 0 {
		return "0 m"
	}
	if decimals < 0 {
		decimals = 0
	}

	switch unit {
	case Kilometers:
		km := meters / metersPerKilometer
		if km < 1 {
			return fmt.Sprintf("%d m", round(meters))
		}
		return fmt.Sprintf("%.*f km", decimals, km)
	case Miles:
		miles := meters / metersPerMile
		if miles < 0.1 {
			return fmt.Sprintf("%d ft", round(meters/metersPerFoot))
		}
		return fmt.Sprintf("%.*f mi", decimals, miles)
	case Feet:
		return fmt.Sprintf("%d ft", round(meters/metersPerFoot))
	case Yards:
		return fmt.Sprintf("%d yd", round(meters/metersPerYard))
	default:
		return fmt.Sprintf("%d m", round(meters))
	}
}

func FormatDuration(seconds int, style DurationStyle) string {
	if seconds <= 0 {
		return "0s"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	rest := seconds % 60

	switch style {
	case DurationLong:
		parts := []string{}
		if hours > 0 {
			parts = append(parts, plural(hours, "hour"))
		}
		if minutes > 0 {
			parts = append(parts, plural(minutes, "minute"))
		}
		if rest > 0 {
			parts = append(parts, plural(rest, "second"))
		}
		return strings.Join(parts, ", ")
	case DurationCompact:
		if hours > 0 {
			return fmt.Sprintf("%d:%02d:%02d", hours, minutes, rest)
		}
		return fmt.Sprintf("%d:%02d", minutes, rest)
	default:
		if hours > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		if minutes > 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%ds", rest)
	}
}

// FormatSpeed renders mps in unit. An empty unit falls back to the sport's
// preferred unit. Paces carry their unit suffix here, unlike FormatPace.
func FormatSpeed(mps float64, sportType string, unit SpeedUnit) string {
	mps = finite(mps)
	if mps <= 0 {
		return NoValue
	}
	if unit == "" {
		unit = PreferredSpeedUnit(sportType)
	}

	switch unit {
	case MilesPerHour:
		return fmt.Sprintf("%.1f mph", MetersPerSecondTo(mps, MilesPerHour))
	case MetersPerSecond:
		return fmt.Sprintf("%.2f m/s", mps)
	case MinutesPerKm, MinutesPerMile:
		return FormatPace(mps, unit) + " " + string(unit)
	default:
		return fmt.Sprintf("%.1f km/h", MetersPerSecondTo(mps, KilometersPerHour))
	}
}

// FormatPace renders M:SS for the time needed to cover one km (or mile).
func FormatPace(mps float64, unit SpeedUnit) string {
	mps = finite(mps)
	if mps <= 0 {
		return NoValue
	}
	if unit != MinutesPerMile {
		unit = MinutesPerKm
	}

	total := round(MetersPerSecondTo(mps, unit) * 60)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func FormatElevation(meters float64, unit ElevationUnit) string {
	meters = finite(meters)
	if meters == 0 {
		return "no elevation"
	}
	if unit == ElevationFeet {
		return fmt.Sprintf("%d ft", round(meters/metersPerFoot))
	}
	return fmt.Sprintf("%d m", round(meters))
}

func FormatPower(watts float64) string {
	watts = finite(watts)
	if watts == 0 {
		return "0 W"
	}
	if watts >= 1000 {
		return fmt.Sprintf("%.1f kW", watts/1000)
	}
	return fmt.Sprintf("%d W", round(watts))
}

func FormatHeartRate(bpm float64) string {
	bpm = finite(bpm)
	if bpm <= 0 {
		return NoValue
	}
	return fmt.Sprintf("%d bpm", round(bpm))
}

func FormatCadence(rpm float64) string {
	rpm = finite(rpm)
	if rpm <= 0 {
		return NoValue
	}
	return fmt.Sprintf("%d rpm", round(rpm))
}

func round(v float64) int {
	return int(math.Round(v))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
