package activity

import (
	"strings"
	"time"
)

// MaxSpeedFactor is the multiple of average speed used when a manually entered
// activity has no measured max speed.
const MaxSpeedFactor = 1.5

// Activity is a recorded session in storage units: meters, seconds and m/s.
type Activity struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	SportType         string    `json:"sportType,omitempty"`
	Distance          float64   `json:"distance"`
	MovingTime        int       `json:"movingTime"`
	ElapsedTime       int       `json:"elapsedTime"`
	TotalElevation    float64   `json:"totalElevation"`
	StartDate         time.Time `json:"startDate"`
	StartDateLocal    time.Time `json:"startDateLocal"`
	Timezone          string    `json:"timezone,omitempty"`
	AverageSpeed      float64   `json:"averageSpeed"`
	MaxSpeed          float64   `json:"maxSpeed"`
	MaxSpeedEstimated bool      `json:"maxSpeedEstimated,omitempty"`
	WorkoutType       *int      `json:"workoutType,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`

	// derived by Normalize, never sent or persisted
	Duration      int       `json:"-"`
	ElevationGain float64   `json:"-"`
	Date          time.Time `json:"-"`
}

// Normalize fills the convenience fields derived from the measured ones.
func (a Activity) Normalize() Activity {
	a.Duration = a.MovingTime
	a.ElevationGain = a.TotalElevation
	a.Date = a.StartDate
	return a
}

// Sport returns the sport type, falling back to the activity type.
func (a Activity) Sport() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

func (a Activity) Category() SportCategory {
	return Categorize(a.Sport())
}

type SportCategory string

const (
	Running  SportCategory = "running"
	Cycling  SportCategory = "cycling"
	Walking  SportCategory = "walking"
	Swimming SportCategory = "swimming"
	Strength SportCategory = "strength"
	Other    SportCategory = "other"
)

var Categories = []SportCategory{Running, Cycling, Walking, Swimming, Strength, Other}

// Categorize buckets a free-text sport type into one of Categories.
func Categorize(sportType string) SportCategory {
	sport := strings.ToLower(sportType)
	switch {
	case strings.Contains(sport, "run"):
		return Running
	case strings.Contains(sport, "bike"), strings.Contains(sport, "cycl"), strings.Contains(sport, "ride"):
		return Cycling
	case strings.Contains(sport, "walk"):
		return Walking
	case strings.Contains(sport, "swim"):
		return Swimming
	case strings.Contains(sport, "strength"), strings.Contains(sport, "weight"), strings.Contains(sport, "gym"):
		return Strength
	default:
		return Other
	}
}

// Filters are the query constraints remembered between page loads.
type Filters struct {
	SportType string `json:"sportType,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type Pagination struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasMore     bool `json:"hasMore"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
}
