package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/routewise/triphub/internal/ai"
)

// AIService is the orchestration seam for the three travel intents.
type AIService interface {
	GenerateTravelPlan(ctx context.Context, content, model, apiKey string) (ai.Result, error)
	AnswerTravelQuestion(ctx context.Context, query, priorContext string) (ai.Result, error)
	RecommendDestinations(ctx context.Context, prefs ai.Preferences) (ai.Result, error)
}

type AIHandler struct {
	svc AIService
}

func NewAIHandler(svc AIService) *AIHandler {
	return &AIHandler{svc: svc}
}

type generateTripRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

type askQuestionRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type recommendRequest struct {
	Preferences ai.Preferences `json:"preferences"`
}

// GenerateTrip builds an itinerary. The bearer slot carries the vendor
// API key here, not a user token, so the route sits outside RequireAuth.
func (h *AIHandler) GenerateTrip(ctx *gin.Context) {
	var req generateTripRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		RespondBadRequest(ctx, "Content is required", nil)
		return
	}

	apiKey := ai.BearerFromHeader(ctx.GetHeader("Authorization"))

	result, err := h.svc.GenerateTravelPlan(ctx.Request.Context(), req.Content, req.Model, apiKey)

	if err != nil {
		// a missing key is the caller's to fix on this route: the bearer
		// slot is where the vendor key travels
		var failure *ai.Failure
		if errors.As(err, &failure) && failure.Kind == ai.KindMissingKey {
			RespondUnAuthorized(ctx, failure.Message)
			return
		}
		respondAIError(ctx, err)
		return
	}

	respondAIResult(ctx, result)
}

func (h *AIHandler) AskQuestion(ctx *gin.Context) {
	var req askQuestionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		RespondBadRequest(ctx, "Query is required", nil)
		return
	}

	result, err := h.svc.AnswerTravelQuestion(ctx.Request.Context(), req.Query, req.Context)

	if err != nil {
		respondAIError(ctx, err)
		return
	}

	respondAIResult(ctx, result)
}

func (h *AIHandler) RecommendDestinations(ctx *gin.Context) {
	var req recommendRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Preferences.IsZero() {
		RespondBadRequest(ctx, "Preferences are required", nil)
		return
	}

	result, err := h.svc.RecommendDestinations(ctx.Request.Context(), req.Preferences)

	if err != nil {
		respondAIError(ctx, err)
		return
	}

	respondAIResult(ctx, result)
}

func respondAIResult(ctx *gin.Context, result ai.Result) {
	body := gin.H{
		"success": true,
		"data":    result.Payload(),
	}

	if result.Incomplete {
		body["incomplete"] = true
	}

	ctx.JSON(http.StatusOK, body)
}

// respondAIError keeps the upstream message in the envelope. Every
// failure past credential resolution is a server-side failure of this
// endpoint: a vendor 401 means our key is bad, not the caller's token.
func respondAIError(ctx *gin.Context, err error) {
	var failure *ai.Failure

	if errors.As(err, &failure) {
		RespondInternal(ctx, failure.Message)
		return
	}

	RespondInternal(ctx, "AI request failed")
}
