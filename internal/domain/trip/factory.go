package trip

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(userID string, req CreateTripRequest) Trip {
	now := time.Now().UTC()

	return Trip{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		Destination:   strings.TrimSpace(req.Destination),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Budget:        req.Budget,
		Description:   req.Description,
		Itinerary:     orEmptyArray(req.Itinerary),
		Expenses:      orEmptyArray(req.Expenses),
		Photos:        orEmptyArray(req.Photos),
		IsPublic:      req.IsPublic,
		Preferences:   orDefaultPreferences(req.Preferences),
		GeneratedByAI: req.GeneratedByAI,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func orEmptyArray(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`[]`)
	}
	return raw
}

func orDefaultPreferences(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{"travelType":[],"accommodationType":[],"interests":[]}`)
	}
	return raw
}
