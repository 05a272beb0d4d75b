package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/routewise/triphub/internal/domain/trip"
)

// TripsRepo is an in-memory mirror of the postgres repo, used by tests
// and local development. It follows the same contract: ownership-scoped
// reads, trimmed writes, and appends that stay atomic under concurrency.
type TripsRepo struct {
	mu    sync.Mutex
	items map[string]trip.Trip
}

func NewTripsRepo() *TripsRepo {
	return &TripsRepo{
		items: make(map[string]trip.Trip),
	}
}

func (r *TripsRepo) Create(ctx context.Context, userID string, req trip.CreateTripRequest) (trip.Trip, error) {
	t := trip.NewFromCreateRequest(userID, req)

	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TripsRepo) ListByUser(ctx context.Context, userID string) ([]trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	output := make([]trip.Trip, 0)

	for _, t := range r.items {
		if t.UserID == userID {
			output = append(output, t)
		}
	}

	// newest first, matching the postgres ordering
	sort.Slice(output, func(i, j int) bool {
		return output[i].CreatedAt.After(output[j].CreatedAt)
	})

	return output, nil
}

// GetByID is ownership-scoped: a trip owned by someone else reads as absent.
func (r *TripsRepo) GetByID(ctx context.Context, id, userID string) (trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.get(id, userID)
}

func (r *TripsRepo) get(id, userID string) (trip.Trip, error) {
	t, ok := r.items[id]

	if !ok || t.UserID != userID {
		return trip.Trip{}, trip.ErrNotFound
	}

	return t, nil
}

func (r *TripsRepo) Update(ctx context.Context, id, userID string, req trip.UpdateTripRequest) (trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.get(id, userID)

	if err != nil {
		return trip.Trip{}, err
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Destination != nil {
		t.Destination = strings.TrimSpace(*req.Destination)
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = *req.EndDate
	}
	if req.Budget != nil {
		t.Budget = *req.Budget
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Itinerary != nil {
		t.Itinerary = *req.Itinerary
	}
	if req.Expenses != nil {
		t.Expenses = *req.Expenses
	}
	if req.Photos != nil {
		t.Photos = *req.Photos
	}
	if req.IsPublic != nil {
		t.IsPublic = *req.IsPublic
	}
	if req.Preferences != nil {
		t.Preferences = *req.Preferences
	}
	if req.GeneratedByAI != nil {
		t.GeneratedByAI = *req.GeneratedByAI
	}

	t.UpdatedAt = time.Now().UTC()
	r.items[id] = t

	return t, nil
}

func (r *TripsRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(id, userID); err != nil {
		return err
	}

	delete(r.items, id)

	return nil
}

func (r *TripsRepo) AppendExpense(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error) {
	return r.appendToBlob(ctx, id, userID, entry, func(t *trip.Trip) *json.RawMessage {
		return &t.Expenses
	})
}

func (r *TripsRepo) AppendPhoto(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error) {
	return r.appendToBlob(ctx, id, userID, entry, func(t *trip.Trip) *json.RawMessage {
		return &t.Photos
	})
}

// appendToBlob runs read-append-write under the lock, so two concurrent
// appends both land. This is the in-memory analogue of the single jsonb
// concatenation UPDATE the postgres repo issues.
func (r *TripsRepo) appendToBlob(
	_ context.Context,
	id, userID string,
	entry json.RawMessage,
	blob func(*trip.Trip) *json.RawMessage,
) (trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.get(id, userID)

	if err != nil {
		return trip.Trip{}, err
	}

	target := blob(&t)

	var entries []json.RawMessage

	if len(*target) > 0 {
		if err := json.Unmarshal(*target, &entries); err != nil {
			return trip.Trip{}, err
		}
	}

	entries = append(entries, entry)

	updated, err := json.Marshal(entries)

	if err != nil {
		return trip.Trip{}, err
	}

	*target = updated
	t.UpdatedAt = time.Now().UTC()
	r.items[id] = t

	return t, nil
}
