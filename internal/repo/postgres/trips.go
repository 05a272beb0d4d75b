package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/routewise/triphub/internal/domain/trip"
	"github.com/routewise/triphub/internal/observability"
)

const tripColumns = `id, user_id, title, destination, start_date, end_date, budget,
	description, itinerary, expenses, photos, is_public, preferences,
	generated_by_ai, created_at, updated_at`

type TripsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTripsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TripsRepo {
	return &TripsRepo{pool: pool, prom: prom}
}

func (r *TripsRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}
	return r.prom.ObserveDB(op, fn)
}

func scanTrip(row pgx.Row) (trip.Trip, error) {
	var t trip.Trip

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Destination,
		&t.StartDate,
		&t.EndDate,
		&t.Budget,
		&t.Description,
		&t.Itinerary,
		&t.Expenses,
		&t.Photos,
		&t.IsPublic,
		&t.Preferences,
		&t.GeneratedByAI,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}

func (r *TripsRepo) Create(ctx context.Context, userID string, req trip.CreateTripRequest) (trip.Trip, error) {
	t := trip.NewFromCreateRequest(userID, req)

	err := r.observe("trips.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO trips(id, user_id, title, destination, start_date, end_date, budget,
				description, itinerary, expenses, photos, is_public, preferences,
				generated_by_ai, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			t.ID, t.UserID, t.Title, t.Destination, t.StartDate, t.EndDate, t.Budget,
			t.Description, t.Itinerary, t.Expenses, t.Photos, t.IsPublic, t.Preferences,
			t.GeneratedByAI, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return trip.Trip{}, err
	}

	return t, nil
}

func (r *TripsRepo) ListByUser(ctx context.Context, userID string) ([]trip.Trip, error) {
	var output []trip.Trip

	err := r.observe("trips.list_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+tripColumns+`
			 FROM trips
			 WHERE user_id = $1
			 ORDER BY created_at DESC`,
			userID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]trip.Trip, 0)

		for rows.Next() {
			t, err := scanTrip(rows)

			if err != nil {
				return err
			}

			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

// GetByID is ownership-scoped: a trip owned by someone else reads as absent.
func (r *TripsRepo) GetByID(ctx context.Context, id, userID string) (trip.Trip, error) {
	var t trip.Trip

	err := r.observe("trips.get_by_id", func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx,
			`SELECT `+tripColumns+`
			 FROM trips
			 WHERE id = $1 AND user_id = $2`,
			id, userID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.Trip{}, trip.ErrNotFound
		}
		return trip.Trip{}, err
	}

	return t, nil
}

func (r *TripsRepo) Update(ctx context.Context, id, userID string, req trip.UpdateTripRequest) (trip.Trip, error) {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}

	argsPosition := 1

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argsPosition))
		args = append(args, val)
		argsPosition++
	}

	if req.Title != nil {
		add("title", strings.TrimSpace(*req.Title))
	}
	if req.Destination != nil {
		add("destination", strings.TrimSpace(*req.Destination))
	}
	if req.StartDate != nil {
		add("start_date", *req.StartDate)
	}
	if req.EndDate != nil {
		add("end_date", *req.EndDate)
	}
	if req.Budget != nil {
		add("budget", *req.Budget)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Itinerary != nil {
		add("itinerary", *req.Itinerary)
	}
	if req.Expenses != nil {
		add("expenses", *req.Expenses)
	}
	if req.Photos != nil {
		add("photos", *req.Photos)
	}
	if req.IsPublic != nil {
		add("is_public", *req.IsPublic)
	}
	if req.Preferences != nil {
		add("preferences", *req.Preferences)
	}
	if req.GeneratedByAI != nil {
		add("generated_by_ai", *req.GeneratedByAI)
	}

	query := fmt.Sprintf(
		`UPDATE trips SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argsPosition, argsPosition+1, tripColumns,
	)
	args = append(args, id, userID)

	var t trip.Trip

	err := r.observe("trips.update", func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.Trip{}, trip.ErrNotFound
		}
		return trip.Trip{}, err
	}

	return t, nil
}

func (r *TripsRepo) Delete(ctx context.Context, id, userID string) error {
	return r.observe("trips.delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM trips WHERE id = $1 AND user_id = $2`,
			id, userID,
		)

		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return trip.ErrNotFound
		}

		return nil
	})
}

// AppendExpense appends one entry to the expenses blob inside a single
// UPDATE, so two concurrent appends both land: the concatenation happens
// in the database, not in application memory.
func (r *TripsRepo) AppendExpense(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error) {
	return r.appendToBlob(ctx, "trips.append_expense", "expenses", id, userID, entry)
}

// AppendPhoto is the photos counterpart of AppendExpense.
func (r *TripsRepo) AppendPhoto(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error) {
	return r.appendToBlob(ctx, "trips.append_photo", "photos", id, userID, entry)
}

func (r *TripsRepo) appendToBlob(ctx context.Context, op, column, id, userID string, entry json.RawMessage) (trip.Trip, error) {
	// jsonb || jsonb appends when the right side is a one-element array.
	element, err := json.Marshal([]json.RawMessage{entry})

	if err != nil {
		return trip.Trip{}, err
	}

	query := fmt.Sprintf(
		`UPDATE trips
		 SET %s = COALESCE(%s, '[]'::jsonb) || $3::jsonb,
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING %s`,
		column, column, tripColumns,
	)

	var t trip.Trip

	err = r.observe(op, func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx, query, id, userID, element))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.Trip{}, trip.ErrNotFound
		}
		return trip.Trip{}, err
	}

	return t, nil
}
