package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/routewise/triphub/internal/config"
	"github.com/routewise/triphub/internal/observability"
)

// ChatCaller is the transport seam; tests substitute a fake.
type ChatCaller interface {
	CreateChatCompletion(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error)
}

// AnswerCache stores normalized answers keyed by request content. Both the
// redis-backed and the in-memory cache satisfy it.
type AnswerCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Service wires credential resolution, request building, the retrying
// transport and response normalization into the three travel intents.
type Service struct {
	cfg    config.AIConfig
	client ChatCaller
	cache  AnswerCache // nil when caching is disabled
	log    *slog.Logger
	prom   *observability.Prom
}

func NewService(cfg config.AIConfig, client ChatCaller, cache AnswerCache, log *slog.Logger, prom *observability.Prom) *Service {
	return &Service{
		cfg:    cfg,
		client: client,
		cache:  cache,
		log:    log,
		prom:   prom,
	}
}

// GenerateTravelPlan builds an itinerary. The caller may override the API
// key (vendor key passed in the bearer slot) and the model per request.
func (s *Service) GenerateTravelPlan(ctx context.Context, content, model, apiKey string) (Result, error) {
	creds, err := ResolveCredentials(apiKey, model, s.cfg)

	if err != nil {
		return Result{}, err
	}

	req := NewItineraryRequest(creds.Model, content)

	// itineraries are caller-specific; never cached
	return s.complete(ctx, IntentItinerary, creds.APIKey, req, false)
}

func (s *Service) AnswerTravelQuestion(ctx context.Context, query, priorContext string) (Result, error) {
	creds, err := ResolveCredentials("", "", s.cfg)

	if err != nil {
		return Result{}, err
	}

	req := NewQuestionRequest(creds.Model, query, priorContext)

	return s.complete(ctx, IntentQuestion, creds.APIKey, req, true)
}

func (s *Service) RecommendDestinations(ctx context.Context, prefs Preferences) (Result, error) {
	creds, err := ResolveCredentials("", "", s.cfg)

	if err != nil {
		return Result{}, err
	}

	req := NewRecommendationRequest(creds.Model, prefs)

	return s.complete(ctx, IntentRecommend, creds.APIKey, req, true)
}

func (s *Service) complete(ctx context.Context, intent Intent, apiKey string, req ChatRequest, cacheable bool) (Result, error) {
	start := time.Now()

	useCache := cacheable && s.cache != nil
	var key string

	if useCache {
		key = cacheKey(intent, req)

		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached Result

			if err := json.Unmarshal(raw, &cached); err == nil {
				s.log.Debug("ai answer served from cache", "intent", string(intent))
				return cached, nil
			}
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, apiKey, req)

	if err != nil {
		s.observe(intent, "failed", start)
		return Result{}, err
	}

	result, err := Normalize(resp)

	if err != nil {
		s.observe(intent, "failed", start)
		return Result{}, err
	}

	if result.Incomplete {
		s.observe(intent, "partial", start)
	} else {
		s.observe(intent, "ok", start)

		if useCache {
			if raw, err := json.Marshal(result); err == nil {
				s.cache.Set(ctx, key, raw)
			}
		}
	}

	return result, nil
}

func (s *Service) observe(intent Intent, result string, start time.Time) {
	if s.prom == nil {
		return
	}

	s.prom.AIResults.WithLabelValues(string(intent), result).Inc()
	s.prom.AIRequestDuration.WithLabelValues(string(intent), result).Observe(time.Since(start).Seconds())
}

func cacheKey(intent Intent, req ChatRequest) string {
	raw, _ := json.Marshal(req)

	sum := sha256.Sum256(raw)

	return "ai:" + string(intent) + ":" + hex.EncodeToString(sum[:])
}
