package trip

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("trip not found")
	ErrBlankTitle       = errors.New("title must not be blank")
	ErrBlankDestination = errors.New("destination must not be blank")
)

type Trip struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Title         string          `json:"title"`
	Destination   string          `json:"destination"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Budget        float64         `json:"budget"`
	Description   string          `json:"description"`
	Itinerary     json.RawMessage `json:"itinerary"`
	Expenses      json.RawMessage `json:"expenses"`
	Photos        json.RawMessage `json:"photos"`
	IsPublic      bool            `json:"isPublic"`
	Preferences   json.RawMessage `json:"preferences"`
	GeneratedByAI bool            `json:"generatedByAI"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Duration is the inclusive day count of the trip.
func (t Trip) Duration() int {
	diff := t.EndDate.Sub(t.StartDate)
	days := int(diff.Hours() / 24)
	return days + 1 // both endpoints count
}

type CreateTripRequest struct {
	Title         string          `json:"title" binding:"required,min=1,max=1000"`
	Destination   string          `json:"destination" binding:"required"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	Budget        float64         `json:"budget" binding:"omitempty,gte=0"`
	Description   string          `json:"description"`
	Itinerary     json.RawMessage `json:"itinerary"`
	Expenses      json.RawMessage `json:"expenses"`
	Photos        json.RawMessage `json:"photos"`
	IsPublic      bool            `json:"isPublic"`
	Preferences   json.RawMessage `json:"preferences"`
	GeneratedByAI bool            `json:"generatedByAI"`
}

// partial update: nil means "leave as is"
type UpdateTripRequest struct {
	Title         *string          `json:"title" binding:"omitempty,min=1,max=1000"`
	Destination   *string          `json:"destination" binding:"omitempty,min=1"`
	StartDate     *time.Time       `json:"startDate"`
	EndDate       *time.Time       `json:"endDate"`
	Budget        *float64         `json:"budget" binding:"omitempty,gte=0"`
	Description   *string          `json:"description"`
	Itinerary     *json.RawMessage `json:"itinerary"`
	Expenses      *json.RawMessage `json:"expenses"`
	Photos        *json.RawMessage `json:"photos"`
	IsPublic      *bool            `json:"isPublic"`
	Preferences   *json.RawMessage `json:"preferences"`
	GeneratedByAI *bool            `json:"generatedByAI"`
}

var ErrDatesOutOfOrder = errors.New("end date must be after start date")

// Validate covers what binding tags cannot: the min tag counts raw
// characters, so whitespace-only values sneak past it and would be
// trimmed to empty strings at persistence.
func (r CreateTripRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrBlankTitle
	}
	if strings.TrimSpace(r.Destination) == "" {
		return ErrBlankDestination
	}
	return nil
}

// Validate covers what binding tags cannot: blank-after-trim fields and
// cross-field date checks on partial updates, where either endpoint may
// be absent.
func (r UpdateTripRequest) Validate(current Trip) error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrBlankTitle
	}
	if r.Destination != nil && strings.TrimSpace(*r.Destination) == "" {
		return ErrBlankDestination
	}

	start := current.StartDate
	end := current.EndDate

	if r.StartDate != nil {
		start = *r.StartDate
	}
	if r.EndDate != nil {
		end = *r.EndDate
	}

	if !end.After(start) {
		return ErrDatesOutOfOrder
	}

	return nil
}
