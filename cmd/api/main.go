package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routewise/triphub/internal/ai"
	"github.com/routewise/triphub/internal/aicache"
	"github.com/routewise/triphub/internal/cache"
	"github.com/routewise/triphub/internal/config"
	"github.com/routewise/triphub/internal/db"
	httpx "github.com/routewise/triphub/internal/http"
	"github.com/routewise/triphub/internal/observability"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "triphub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdown(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// AI answer cache: redis when configured, in-process map otherwise
	var answers ai.AnswerCache

	if cfg.AI.CacheTTL > 0 {
		if cfg.RedisAddr != "" {
			rc := aicache.New(aicache.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
				TTL:      cfg.AI.CacheTTL,
			})

			pingCtx, cancel := config.WithTimeout(2 * time.Second)

			if err := rc.Ping(pingCtx); err != nil {
				log.Error("redis unreachable", "addr", cfg.RedisAddr, "err", err)
				cancel()
				os.Exit(1)
			}
			cancel()

			defer rc.Close()

			answers = rc
		} else {
			answers = cache.New(cfg.AI.CacheTTL)
		}
	}

	router := httpx.NewRouter(cfg, log, pool, answers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second, // AI calls can retry for a while
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
