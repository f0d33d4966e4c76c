package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

var ErrMalformed = errors.New("malformed activity payload")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// wireActivity mirrors the server payload. Pointers mark required fields so a
// missing value can be told apart from a zero one.
type wireActivity struct {
	ID             flexibleID `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	SportType      string     `json:"sportType"`
	Distance       *float64   `json:"distance"`
	MovingTime     *float64   `json:"movingTime"`
	ElapsedTime    *float64   `json:"elapsedTime"`
	TotalElevation float64    `json:"totalElevation"`
	StartDate      *string    `json:"startDate"`
	StartDateLocal string     `json:"startDateLocal"`
	Timezone       string     `json:"timezone"`
	AverageSpeed   float64    `json:"averageSpeed"`
	MaxSpeed       float64    `json:"maxSpeed"`
	MaxSpeedEst    bool       `json:"maxSpeedEstimated"`
	WorkoutType    *int       `json:"workoutType"`
	CreatedAt      string     `json:"createdAt"`
}

// flexibleID accepts both string and numeric identifiers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// DecodeActivity maps one wire record into an Activity, rejecting records
// that lack required fields or break the time/distance invariants.
func DecodeActivity(raw json.RawMessage) (Activity, error) {
	var w wireActivity
	if err := json.Unmarshal(raw, &w); err != nil {
		return Activity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var result *multierror.Error
	if w.ID == "" {
		result = multierror.Append(result, fmt.Errorf("%w: missing id", ErrMalformed))
	}
	if w.Distance == nil {
		result = multierror.Append(result, fmt.Errorf("%w: missing distance", ErrMalformed))
	} else if *w.Distance < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: negative distance %v", ErrMalformed, *w.Distance))
	}
	if w.MovingTime == nil {
		result = multierror.Append(result, fmt.Errorf("%w: missing movingTime", ErrMalformed))
	} else if *w.MovingTime < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: negative movingTime %v", ErrMalformed, *w.MovingTime))
	}

	var start time.Time
	if w.StartDate == nil {
		result = multierror.Append(result, fmt.Errorf("%w: missing startDate", ErrMalformed))
	} else {
		parsed, err := parseTime(*w.StartDate)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: startDate: %v", ErrMalformed, err))
		}
		start = parsed
	}
	if err := result.ErrorOrNil(); err != nil {
		return Activity{}, err
	}

	moving := int(*w.MovingTime)
	elapsed := moving
	if w.ElapsedTime != nil && int(*w.ElapsedTime) > moving {
		elapsed = int(*w.ElapsedTime)
	}

	local := start
	if w.StartDateLocal != "" {
		if parsed, err := parseTime(w.StartDateLocal); err == nil {
			local = parsed
		}
	}
	var created time.Time
	if w.CreatedAt != "" {
		created, _ = parseTime(w.CreatedAt)
	}

	a := Activity{
		ID:             string(w.ID),
		Name:           w.Name,
		Type:           w.Type,
		SportType:      w.SportType,
		Distance:       *w.Distance,
		MovingTime:     moving,
		ElapsedTime:    elapsed,
		TotalElevation: w.TotalElevation,
		StartDate:      start,
		StartDateLocal: local,
		Timezone:       w.Timezone,
		AverageSpeed:   w.AverageSpeed,
		MaxSpeed:       w.MaxSpeed,
		WorkoutType:    w.WorkoutType,
		CreatedAt:      created,
	}
	a.MaxSpeedEstimated = w.MaxSpeedEst
	return a.Normalize(), nil
}

// DecodeActivities decodes a page of records; one bad record fails the page.
func DecodeActivities(raws []json.RawMessage) ([]Activity, error) {
	activities := make([]Activity, 0, len(raws))
	for idx, raw := range raws {
		a, err := DecodeActivity(raw)
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", idx, err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func (p Pagination) Validate() error {
	if p.Total < 0 || p.Limit < 0 || p.Offset < 0 {
		return fmt.Errorf("%w: negative pagination value %+v", ErrMalformed, p)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
