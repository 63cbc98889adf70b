package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"ravewall/internal/cache"
	"ravewall/internal/config"
	"ravewall/internal/database"
	"ravewall/internal/handler"
	"ravewall/internal/queue"
	"ravewall/internal/redis"
	"ravewall/internal/repository"
	"ravewall/internal/scraper"
	"ravewall/internal/service"
	"ravewall/internal/worker"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (optional; the server degrades to uncached,
	// unthrottled operation without it)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Printf("[Server] Redis unavailable, continuing without it: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	} else {
		log.Println("[Server] REDIS_URL not set, running without cache, rate limits, and avatar archiving")
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	importRepo := repository.NewImportRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)

	// 5. Redis-backed pieces (nil when Redis is down)
	var (
		publisher   queue.Publisher
		limiter     cache.RateLimiter
		widgetCache cache.WidgetCache
	)
	if rdb != nil {
		publisher = queue.NewPublisher(rdb.Client)
		limiter = cache.NewRateLimiter(rdb.Client)
		widgetCache = cache.NewWidgetCache(rdb.Client)
	}

	// 6. Services
	scraperClient := scraper.NewHTTPClient(cfg.ScraperAPIURL, cfg.ScraperAPIToken, time.Duration(cfg.ScraperTimeout)*time.Second)
	authService := service.NewAuthService(userRepo, cfg)
	importService := service.NewImportService(scraperClient, importRepo, commentRepo, publisher, limiter)
	testimonialService := service.NewTestimonialService(testimonialRepo, commentRepo, importRepo, repository.NewTxRunner(db), widgetCache)

	// 7. Avatar archiving workers (require both Redis and R2)
	if rdb != nil {
		avatarService, err := service.NewAvatarService(ctx, cfg)
		if err != nil {
			log.Printf("[Server] Avatar archiving disabled: %v", err)
		} else {
			consumer := queue.NewConsumer(rdb.Client)
			workerHandler := worker.NewHandler(avatarService, commentRepo)
			manager := worker.NewManager(consumer, workerHandler, worker.ManagerConfig{})
			if err := manager.Start(ctx); err != nil {
				log.Printf("[Server] Failed to start workers: %v", err)
			} else {
				defer manager.Stop()
			}
		}
	}

	// 8. Handlers and Router
	router := NewRouter(RouterConfig{
		AuthHandler:        handler.NewAuthHandler(authService),
		ImportHandler:      handler.NewImportHandler(importService),
		TestimonialHandler: handler.NewTestimonialHandler(testimonialService),
		WidgetHandler:      handler.NewWidgetHandler(testimonialService),
		JWTSecret:          cfg.JWTSecret,
	})

	// 9. Serve with graceful shutdown
	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("[Server] Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("[Server] Stopped")
	return nil
}
