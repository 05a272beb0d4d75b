package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routewise/triphub/internal/config"
	"github.com/routewise/triphub/internal/domain/trip"
	"github.com/routewise/triphub/internal/http/middlewares"
)

// TripsStore is the ownership-scoped persistence seam: every read and
// write carries the authenticated user id alongside the trip id.
type TripsStore interface {
	Create(ctx context.Context, userID string, req trip.CreateTripRequest) (trip.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]trip.Trip, error)
	GetByID(ctx context.Context, id, userID string) (trip.Trip, error)
	Update(ctx context.Context, id, userID string, req trip.UpdateTripRequest) (trip.Trip, error)
	Delete(ctx context.Context, id, userID string) error
	AppendExpense(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error)
	AppendPhoto(ctx context.Context, id, userID string, entry json.RawMessage) (trip.Trip, error)
}

type TripsHandler struct {
	repo TripsStore
}

func NewTripsHandler(repo TripsStore) *TripsHandler {
	return &TripsHandler{repo: repo}
}

func (h *TripsHandler) CreateTrip(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	var req trip.CreateTripRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	t, err := h.repo.Create(cctx, userID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create trip")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    t,
	})
}

func (h *TripsHandler) ListTrips(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	trips, err := h.repo.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list trips")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(trips),
		"data":    trips,
	})
}

func (h *TripsHandler) GetTrip(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	t, err := h.repo.GetByID(cctx, ctx.Param("id"), userID)

	if err != nil {
		// absent and not-owned collapse into the same 404
		if errors.Is(err, trip.ErrNotFound) {
			RespondNotFound(ctx, "Trip not found")
			return
		}
		RespondInternal(ctx, "Could not fetch trip")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success": true,
		"data":    t,
	})
}

func (h *TripsHandler) UpdateTrip(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	var req trip.UpdateTripRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// ownership check first; also gives current dates for cross-field checks
	current, err := h.repo.GetByID(cctx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			RespondNotFound(ctx, "Trip not found")
			return
		}
		RespondInternal(ctx, "Could not update trip")
		return
	}

	if err := req.Validate(current); err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	updated, err := h.repo.Update(cctx, current.ID, userID, req)

	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			RespondNotFound(ctx, "Trip not found")
			return
		}
		RespondInternal(ctx, "Could not update trip")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

func (h *TripsHandler) DeleteTrip(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err := h.repo.Delete(cctx, ctx.Param("id"), userID)

	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			RespondNotFound(ctx, "Trip not found")
			return
		}
		RespondInternal(ctx, "Could not delete trip")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trip deleted",
	})
}

func (h *TripsHandler) AddExpense(ctx *gin.Context) {
	h.appendEntry(ctx, h.repo.AppendExpense, "Could not add expense")
}

func (h *TripsHandler) AddPhoto(ctx *gin.Context) {
	h.appendEntry(ctx, h.repo.AppendPhoto, "Could not add photo")
}

func (h *TripsHandler) appendEntry(
	ctx *gin.Context,
	append func(context.Context, string, string, json.RawMessage) (trip.Trip, error),
	failMessage string,
) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Missing identity")
		return
	}

	var entry json.RawMessage

	if err := ctx.ShouldBindJSON(&entry); err != nil || len(entry) == 0 {
		RespondBadRequest(ctx, "Invalid request body", nil)
		return
	}

	if !isJSONObject(entry) {
		RespondBadRequest(ctx, "Body must be a JSON object", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	t, err := append(cctx, ctx.Param("id"), userID, entry)

	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			RespondNotFound(ctx, "Trip not found")
			return
		}
		RespondInternal(ctx, failMessage)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    t,
	})
}

func isJSONObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c == '{'
		}
	}
	return false
}
