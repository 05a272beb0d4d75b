package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/routewise/triphub/internal/ai"
	"github.com/routewise/triphub/internal/auth"
	"github.com/routewise/triphub/internal/config"
	"github.com/routewise/triphub/internal/http/handlers"
	"github.com/routewise/triphub/internal/http/middlewares"
	"github.com/routewise/triphub/internal/observability"
	"github.com/routewise/triphub/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, answers ai.AnswerCache) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics registry, shared by the HTTP middleware, the repos and the
	// AI client
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("triphub"))
	r.Use(prom.GinHandleMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tripsRepo := postgres.NewTripsRepo(pool, prom)

	// auth
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	requireAuth := middlewares.NewAuthMiddleware(jwtManager).RequireAuth()

	// AI orchestration
	aiClient := ai.NewClient(cfg.AI, log, prom)
	aiService := ai.NewService(cfg.AI, aiClient, answers, log, prom)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	tripsHandler := handlers.NewTripsHandler(tripsRepo)
	aiHandler := handlers.NewAIHandler(aiService)

	// limiters: credential guessing keyed by IP, AI spend keyed by user
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)
	aiLimiter := middlewares.NewRateLimiter(10, time.Minute)

	api := r.Group("/api")

	api.GET("/health", health.Health)
	api.GET("/ready", health.Ready)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	authGroup.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	trips := api.Group("/trips", requireAuth)
	trips.POST("", tripsHandler.CreateTrip)
	trips.GET("", tripsHandler.ListTrips)
	trips.GET("/:id", tripsHandler.GetTrip)
	trips.PUT("/:id", tripsHandler.UpdateTrip)
	trips.DELETE("/:id", tripsHandler.DeleteTrip)
	trips.POST("/:id/expenses", tripsHandler.AddExpense)
	trips.POST("/:id/photos", tripsHandler.AddPhoto)

	aiGroup := api.Group("/ai")
	// generate-trip carries the vendor key in the bearer slot, so it
	// stays outside RequireAuth and is limited by IP instead
	aiGroup.POST("/generate-trip", aiLimiter.RateLimiterMiddleware(middlewares.KeyByIP), aiHandler.GenerateTrip)
	aiGroup.POST("/ask-question", requireAuth, aiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), aiHandler.AskQuestion)
	aiGroup.POST("/recommend-destinations", requireAuth, aiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), aiHandler.RecommendDestinations)

	return r
}
