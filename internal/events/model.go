package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

var ErrInvalidEvent = errors.New("invalid event")

type Category string

const (
	CategoryCycling  Category = "cycling"
	CategoryRunning  Category = "running"
	CategoryHiking   Category = "hiking"
	CategorySwimming Category = "swimming"
	CategoryOther    Category = "other"
)

var Categories = []Category{CategoryCycling, CategoryRunning, CategoryHiking, CategorySwimming, CategoryOther}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

type ParticipationStatus string

const (
	StatusRegistered ParticipationStatus = "registered"
	StatusWaitlist   ParticipationStatus = "waitlist"
	StatusCancelled  ParticipationStatus = "cancelled"
)

// Member is the denormalized user attached to events and participants.
type Member struct {
	Krid  string `json:"krid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Participant struct {
	ID           string              `json:"id"`
	EventID      string              `json:"eventId"`
	UserKrid     string              `json:"userKRId"`
	Status       ParticipationStatus `json:"status"`
	RegisteredAt time.Time           `json:"registeredAt"`
	User         *Member             `json:"user,omitempty"`
}

type Event struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	Description          string        `json:"description,omitempty"`
	Date                 time.Time     `json:"date"`
	Location             string        `json:"location"`
	MaxParticipants      *int          `json:"maxParticipants,omitempty"`
	Category             Category      `json:"category"`
	Difficulty           Difficulty    `json:"difficulty,omitempty"`
	Distance             *float64      `json:"distance,omitempty"`
	RegistrationDeadline *time.Time    `json:"registrationDeadline,omitempty"`
	IsActive             bool          `json:"isActive"`
	CreatedBy            string        `json:"createdBy"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
	Creator              *Member       `json:"creator,omitempty"`
	Participants         []Participant `json:"participants,omitempty"`
	ParticipantCount     *int          `json:"participantCount,omitempty"`
	UserParticipation    *Participant  `json:"userParticipation,omitempty"`
}

// Registered counts participants, preferring the server's count when the
// participant list was not included.
func (e Event) Registered() int {
	if e.ParticipantCount != nil {
		return *e.ParticipantCount
	}
	n := 0
	for _, p := range e.Participants {
		if p.Status == StatusRegistered {
			n++
		}
	}
	return n
}

// Joined reports whether the signed in user holds a live registration.
func (e Event) Joined() bool {
	return e.UserParticipation != nil && e.UserParticipation.Status != StatusCancelled
}

type Filters struct {
	Category   Category
	Difficulty Difficulty
	DateFrom   string
	DateTo     string
	Location   string
}

func (f Filters) params() map[string]string {
	params := map[string]string{}
	if f.Category != "" {
		params["category"] = string(f.Category)
	}
	if f.Difficulty != "" {
		params["difficulty"] = string(f.Difficulty)
	}
	if f.DateFrom != "" {
		params["dateFrom"] = f.DateFrom
	}
	if f.DateTo != "" {
		params["dateTo"] = f.DateTo
	}
	if f.Location != "" {
		params["location"] = f.Location
	}
	return params
}

// CreateRequest is a new event. Distance is in kilometers, as the events API
// stores it.
type CreateRequest struct {
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Date                 time.Time  `json:"date"`
	Location             string     `json:"location"`
	MaxParticipants      *int       `json:"maxParticipants,omitempty"`
	Category             Category   `json:"category"`
	Difficulty           Difficulty `json:"difficulty,omitempty"`
	Distance             *float64   `json:"distance,omitempty"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
}

func (r CreateRequest) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(r.Title) == "" {
		invalid("title is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		invalid("location is required")
	}
	if r.Date.IsZero() {
		invalid("date is required")
	}
	if !validCategory(r.Category) {
		invalid("unknown category %q", r.Category)
	}
	if r.Difficulty != "" && !validDifficulty(r.Difficulty) {
		invalid("unknown difficulty %q", r.Difficulty)
	}
	if r.MaxParticipants != nil && *r.MaxParticipants <= 0 {
		invalid("max participants must be positive")
	}
	if r.Distance != nil && *r.Distance < 0 {
		invalid("distance must not be negative")
	}
	if r.RegistrationDeadline != nil && !r.Date.IsZero() && r.RegistrationDeadline.After(r.Date) {
		invalid("registration deadline is after the event")
	}

	return result.ErrorOrNil()
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Title                *string     `json:"title,omitempty"`
	Description          *string     `json:"description,omitempty"`
	Date                 *time.Time  `json:"date,omitempty"`
	Location             *string     `json:"location,omitempty"`
	MaxParticipants      *int        `json:"maxParticipants,omitempty"`
	Category             *Category   `json:"category,omitempty"`
	Difficulty           *Difficulty `json:"difficulty,omitempty"`
	Distance             *float64    `json:"distance,omitempty"`
	RegistrationDeadline *time.Time  `json:"registrationDeadline,omitempty"`
}

func (r UpdateRequest) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...)))
	}

	if r == (UpdateRequest{}) {
		invalid("nothing to update")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		invalid("title must not be empty")
	}
	if r.Location != nil && strings.TrimSpace(*r.Location) == "" {
		invalid("location must not be empty")
	}
	if r.Category != nil && !validCategory(*r.Category) {
		invalid("unknown category %q", *r.Category)
	}
	if r.Difficulty != nil && !validDifficulty(*r.Difficulty) {
		invalid("unknown difficulty %q", *r.Difficulty)
	}
	if r.MaxParticipants != nil && *r.MaxParticipants <= 0 {
		invalid("max participants must be positive")
	}
	if r.Distance != nil && *r.Distance < 0 {
		invalid("distance must not be negative")
	}

	return result.ErrorOrNil()
}

func validCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func validDifficulty(d Difficulty) bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}
