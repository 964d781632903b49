// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/database"
	"github.com/sahayata/resource-engine/internal/handler"
	"github.com/sahayata/resource-engine/internal/metrics"
	"github.com/sahayata/resource-engine/internal/repository"
	"github.com/sahayata/resource-engine/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	// ── 1. Pick the store backend ─────────────────────────────────────────
	var (
		resStore   repository.ResourceStore
		reqStore   repository.RequestStore
		notifStore repository.NotificationStore
	)
	if getEnv("STORE", "postgres") == "memory" {
		mem := repository.NewMemory()
		resStore, reqStore, notifStore = mem.Resources(), mem.Requests(), mem.Notifications()
		log.Println("✓ Using in-memory store (ephemeral)")
	} else {
		pool, err := database.NewPool(ctx)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		resStore = repository.NewPostgresResourceStore(pool)
		reqStore = repository.NewPostgresRequestStore(pool)
		notifStore = repository.NewPostgresNotificationStore(pool)
		log.Println("✓ Connected to PostgreSQL")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	catalogSvc := service.NewCatalogService(resStore)
	requestSvc := service.NewRequestService(reqStore, resStore, notifStore)
	resourceHandler := handler.NewResourceHandler(catalogSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for the dashboards

	// Health and metrics
	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	// API routes: everything below requires a valid bearer token; mutating
	// catalog routes and request decisions additionally require a
	// city-provisioned admin.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.Secret()))

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", resourceHandler.List)
			r.Get("/{id}", resourceHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/", resourceHandler.Create)
				r.Put("/{id}", resourceHandler.Update)
				r.Delete("/{id}", resourceHandler.Delete)
				r.Post("/{id}/stock", resourceHandler.AddStock)
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandler.Create)
			r.Get("/mine", requestHandler.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/", requestHandler.List)
				r.Post("/{id}/decision", requestHandler.Decide)
			})
		})
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
