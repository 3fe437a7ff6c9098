package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/config"
	"studynotes-dashboard/internal/database"
	"studynotes-dashboard/internal/handlers"
	"studynotes-dashboard/internal/middleware"
	"studynotes-dashboard/internal/router"
	"studynotes-dashboard/internal/services"
	"studynotes-dashboard/internal/websocket"
	"studynotes-dashboard/internal/worker"
)

func main() {
	log.Println("🚀 Starting Study Notes dashboard...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Notes Backend Client ────
	client, err := api.New(api.Options{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout})
	if err != nil {
		log.Fatalf("✗ Notes backend client initialization failed: %v", err)
	}
	log.Printf("✓ Notes backend client ready (%s)", client.BaseURL())

	// ──── Initialize Services ────
	sessions := middleware.NewSessions(cfg.CookieSecret, cfg.IsProduction())
	resolver := services.NewVideoResolver()
	handlerBackend := handlers.BackendFor(func(token string) handlers.Backend { return client.WithToken(token) })
	workerBackend := worker.BackendFor(func(token string) worker.Backend { return client.WithToken(token) })

	// ──── Step 4: Start Watch Worker Pool ────
	workerPool := worker.NewPool(redisClients, workerBackend, cfg.WatchWorkers, cfg.ViewCacheTTL)
	workerPool.Start()
	log.Printf("✓ Watch pool started (%d goroutines)", cfg.WatchWorkers)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(handlerBackend, sessions)
	userHandler := handlers.NewUserHandler(handlerBackend, sessions)
	noteHandler := handlers.NewNoteHandler(handlerBackend, resolver, workerPool, redisClients)
	learningAidHandler := handlers.NewLearningAidHandler(handlerBackend, workerPool)
	studyPlanHandler := handlers.NewStudyPlanHandler(handlerBackend, workerPool)
	communityHandler := handlers.NewCommunityHandler(handlerBackend)
	exportHandler := handlers.NewExportHandler(handlerBackend)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients, sessions, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// Generation triggers each start an expensive upstream job (20 req/min per IP)
	generateLimiter := middleware.NewRateLimiter(20, time.Minute)

	r := router.New(
		sessions,
		authHandler,
		userHandler,
		noteHandler,
		learningAidHandler,
		studyPlanHandler,
		communityHandler,
		exportHandler,
		wsHub,
		authLimiter,
		generateLimiter,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Exports can be slow to come back from the notes backend
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		wsHub.Close()
		authLimiter.Stop()
		generateLimiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Study Notes dashboard ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
