package activity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/nmiodice/riders-activity/internal/units"
)

var ErrInvalidDraft = errors.New("invalid activity")

// Draft is a manually entered activity in the units the user typed. ToActivity
// is the only way to turn it into a storage record.
type Draft struct {
	Name          string
	Type          string
	Distance      float64
	DistanceUnit  units.DistanceUnit
	Hours         float64
	Minutes       float64
	Seconds       float64
	Elevation     float64
	ElevationUnit units.ElevationUnit
	Start         time.Time
	Timezone      string

	// ElapsedSeconds is the wall clock duration when it is known separately
	// from the moving time, as for recorded tracks. Zero means unknown.
	ElapsedSeconds float64
}

func (d Draft) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrInvalidDraft, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(d.Name) == "" {
		invalid("name is required")
	}
	if strings.TrimSpace(d.Type) == "" {
		invalid("type is required")
	}
	if !(d.Distance > 0) || math.IsInf(d.Distance, 0) {
		invalid("distance must be greater than 0")
	}
	if _, err := units.ParseDistanceUnit(string(d.DistanceUnit)); err != nil {
		invalid("%v", err)
	}
	if d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0 {
		invalid("duration components must not be negative")
	} else if units.TimeToSeconds(d.Hours, d.Minutes, d.Seconds) <= 0 {
		invalid("duration is required")
	}
	if d.ElapsedSeconds < 0 || math.IsNaN(d.ElapsedSeconds) || math.IsInf(d.ElapsedSeconds, 0) {
		invalid("elapsed time must not be negative")
	}
	if d.Elevation < 0 {
		invalid("elevation must not be negative")
	}
	if d.ElevationUnit != "" {
		if _, err := units.ParseElevationUnit(string(d.ElevationUnit)); err != nil {
			invalid("%v", err)
		}
	}
	if d.Start.IsZero() {
		invalid("start time is required")
	}
	if d.Timezone != "" {
		if _, err := time.LoadLocation(d.Timezone); err != nil {
			invalid("unknown timezone %q", d.Timezone)
		}
	}

	return result.ErrorOrNil()
}

// ToActivity validates the draft and converts it to storage units. The id is a
// local placeholder; the server assigns the canonical one.
func (d Draft) ToActivity(now time.Time) (Activity, error) {
	if err := d.Validate(); err != nil {
		return Activity{}, err
	}

	distance := units.DistanceToMeters(d.Distance, d.DistanceUnit)
	moving := int(math.Round(units.TimeToSeconds(d.Hours, d.Minutes, d.Seconds)))
	elapsed := moving
	if e := int(math.Round(d.ElapsedSeconds)); e > moving {
		elapsed = e
	}

	var avg float64
	if moving > 0 {
		avg = distance / float64(moving)
	}

	tz := d.Timezone
	local := d.Start
	if tz != "" {
		loc, _ := time.LoadLocation(tz)
		local = d.Start.In(loc)
	} else if name := d.Start.Location().String(); name != "Local" {
		tz = name
	}

	a := Activity{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(d.Name),
		Type:              d.Type,
		SportType:         d.Type,
		Distance:          distance,
		MovingTime:        moving,
		ElapsedTime:       elapsed,
		TotalElevation:    units.ElevationToMeters(d.Elevation, d.ElevationUnit),
		StartDate:         d.Start.UTC(),
		StartDateLocal:    local,
		Timezone:          tz,
		AverageSpeed:      avg,
		MaxSpeed:          avg * MaxSpeedFactor,
		MaxSpeedEstimated: true,
		CreatedAt:         now.UTC(),
	}
	return a.Normalize(), nil
}
