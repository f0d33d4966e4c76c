package units_test

import (
	"math"
	"testing"

	"github.com/nmiodice/riders-activity/internal/units"
)

func TestDistanceToMeters(t *testing.T) {
	t.Parallel()
	cases := []struct {
		value float64
		unit  units.DistanceUnit
		want  float64
	}{
		{5, units.Kilometers, 5000},
		{5, units.Meters, 5},
		{5, units.Miles, 8046.72},
		{10, units.Feet, 3.048},
		{10, units.Yards, 9.144},
		{7, units.DistanceUnit("furlong"), 7},
	}
	for _, tc := range cases {
		got := units.DistanceToMeters(tc.value, tc.unit)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("DistanceToMeters(%v, %s): expected %v, got %v", tc.value, tc.unit, tc.want, got)
		}
	}
}

func TestDistanceRoundTrip(t *testing.T) {
	t.Parallel()
	for _, unit := range []units.DistanceUnit{units.Kilometers, units.Meters, units.Miles, units.Feet, units.Yards} {
		for _, v := range []float64{0, 0.25, 1, 5, 42.195, 160.9} {
			got := units.MetersTo(units.DistanceToMeters(v, unit), unit)
			if math.Abs(got-v) > 1e-9 {
				t.Fatalf("round trip %v %s: got %v", v, unit, got)
			}
		}
	}
}

func TestMilesEnteredDisplayInKilometers(t *testing.T) {
	t.Parallel()
	meters := units.DistanceToMeters(5, units.Miles)
	if math.Abs(meters-8046.72) > 1e-9 {
		t.Fatalf("expected 8046.72 m, got %v", meters)
	}
	if got := units.FormatDistance(meters, units.Kilometers, 1); got != "8.0 km" {
		t.Fatalf("expected 8.0 km, got %q", got)
	}
}

func TestTimeToSeconds(t *testing.T) {
	t.Parallel()
	secs := units.TimeToSeconds(1, 30, 15)
	if secs != 5415 {
		t.Fatalf("expected 5415, got %v", secs)
	}
	if got := units.FormatDuration(int(secs), units.DurationShort); got != "1h 30m" {
		t.Fatalf("expected 1h 30m, got %q", got)
	}
}

func TestSpeedToMetersPerSecond(t *testing.T) {
	t.Parallel()
	cases := []struct {
		value float64
		unit  units.SpeedUnit
		want  float64
	}{
		{36, units.KilometersPerHour, 10},
		{10, units.MilesPerHour, 4.4704},
		{3, units.MetersPerSecond, 3},
		{5, units.MinutesPerKm, 1000.0 / 300},
		{8, units.MinutesPerMile, 1609.344 / 480},
		{0, units.MinutesPerKm, 0},
		{-2, units.MinutesPerMile, 0},
	}
	for _, tc := range cases {
		got := units.SpeedToMetersPerSecond(tc.value, tc.unit)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("SpeedToMetersPerSecond(%v, %s): expected %v, got %v", tc.value, tc.unit, tc.want, got)
		}
	}
}

func TestSpeedAndPaceDisplayInvertConversion(t *testing.T) {
	t.Parallel()
	cases := []struct {
		value float64
		unit  units.SpeedUnit
		want  string
	}{
		{25, units.KilometersPerHour, "25.0 km/h"},
		{15, units.MilesPerHour, "15.0 mph"},
		{5.5, units.MinutesPerKm, "5:30 min/km"},
		{8.25, units.MinutesPerMile, "8:15 min/mi"},
	}
	for _, tc := range cases {
		mps := units.SpeedToMetersPerSecond(tc.value, tc.unit)
		if got := units.FormatSpeed(mps, "", tc.unit); got != tc.want {
			t.Fatalf("FormatSpeed for %v %s: expected %q, got %q", tc.value, tc.unit, tc.want, got)
		}
		if back := units.MetersPerSecondTo(mps, tc.unit); math.Abs(back-tc.value) > 0.05 {
			t.Fatalf("MetersPerSecondTo for %v %s: got %v", tc.value, tc.unit, back)
		}
	}
}

func TestRunningSpeedRendersAsPace(t *testing.T) {
	t.Parallel()
	mps := 10000.0 / 3000.0
	if got := units.FormatSpeed(mps, "Run", ""); got != "5:00 min/km" {
		t.Fatalf("expected 5:00 min/km, got %q", got)
	}
	if got := units.FormatPace(mps, units.MinutesPerKm); got != "5:00" {
		t.Fatalf("expected 5:00, got %q", got)
	}
	if got := units.FormatSpeed(mps, "Ride", ""); got != "12.0 km/h" {
		t.Fatalf("expected 12.0 km/h for cycling, got %q", got)
	}
}

func TestFormattersNeverFailOnBadInput(t *testing.T) {
	t.Parallel()
	if got := units.FormatSpeed(0, "Run", ""); got != units.NoValue {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if got := units.FormatPace(math.NaN(), units.MinutesPerKm); got != units.NoValue {
		t.Fatalf("expected placeholder for NaN, got %q", got)
	}
	if got := units.FormatSpeed(math.Inf(1), "Ride", ""); got != units.NoValue {
		t.Fatalf("expected placeholder for Inf, got %q", got)
	}
	if got := units.FormatDistance(0, units.Kilometers, 1); got != "0 m" {
		t.Fatalf("expected 0 m, got %q", got)
	}
	if got := units.FormatDuration(0, units.DurationShort); got != "0s" {
		t.Fatalf("expected 0s, got %q", got)
	}
	if got := units.FormatElevation(0, units.ElevationMeters); got != "no elevation" {
		t.Fatalf("expected no elevation, got %q", got)
	}
	if got := units.FormatHeartRate(0); got != units.NoValue {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFormatDistanceSmallValues(t *testing.T) {
	t.Parallel()
	if got := units.FormatDistance(850, units.Kilometers, 1); got != "850 m" {
		t.Fatalf("expected 850 m, got %q", got)
	}
	if got := units.FormatDistance(100, units.Miles, 1); got != "328 ft" {
		t.Fatalf("expected 328 ft, got %q", got)
	}
}

func TestFormatDurationStyles(t *testing.T) {
	t.Parallel()
	if got := units.FormatDuration(3661, units.DurationLong); got != "1 hour, 1 minute, 1 second" {
		t.Fatalf("unexpected long format %q", got)
	}
	if got := units.FormatDuration(3725, units.DurationCompact); got != "1:02:05" {
		t.Fatalf("unexpected compact format %q", got)
	}
	if got := units.FormatDuration(125, units.DurationCompact); got != "2:05" {
		t.Fatalf("unexpected compact format %q", got)
	}
	if got := units.FormatDuration(45, units.DurationShort); got != "45s" {
		t.Fatalf("unexpected short format %q", got)
	}
}

func TestPreferredSpeedUnit(t *testing.T) {
	t.Parallel()
	cases := map[string]units.SpeedUnit{
		"Run":            units.MinutesPerKm,
		"TrailRun":       units.MinutesPerKm,
		"Walk":           units.MinutesPerKm,
		"Swim":           units.MinutesPerKm,
		"Ride":           units.KilometersPerHour,
		"VirtualRide":    units.KilometersPerHour,
		"WeightTraining": units.KilometersPerHour,
	}
	for sport, want := range cases {
		if got := units.PreferredSpeedUnit(sport); got != want {
			t.Fatalf("PreferredSpeedUnit(%q): expected %s, got %s", sport, want, got)
		}
	}
}

func TestParseUnits(t *testing.T) {
	t.Parallel()
	if u, err := units.ParseDistanceUnit(" MI "); err != nil || u != units.Miles {
		t.Fatalf("expected mi, got %q (%v)", u, err)
	}
	if _, err := units.ParseDistanceUnit("parsec"); err == nil {
		t.Fatalf("expected unsupported unit error")
	}
	if _, err := units.ParseSpeedUnit("knots"); err == nil {
		t.Fatalf("expected unsupported unit error")
	}
	if u, err := units.ParseElevationUnit("ft"); err != nil || u != units.ElevationFeet {
		t.Fatalf("expected ft, got %q (%v)", u, err)
	}
}
