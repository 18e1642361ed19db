// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aptr/workshop-engine/internal/config"
	"github.com/aptr/workshop-engine/internal/database"
	"github.com/aptr/workshop-engine/internal/engagement"
	"github.com/aptr/workshop-engine/internal/handler"
	"github.com/aptr/workshop-engine/internal/logger"
	"github.com/aptr/workshop-engine/internal/repository"
	"github.com/aptr/workshop-engine/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.LogLevel)

	policy := engagement.PolicyAdvisory
	if strings.EqualFold(cfg.FeedbackPolicy, string(engagement.PolicyBlocking)) {
		policy = engagement.PolicyBlocking
	}

	// ── 2. Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	// ── 3. Wire up layers ────────────────────────────────────────────────
	workshopRepo := repository.NewWorkshopRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	svc := service.NewWorkshopService(workshopRepo, regRepo, policy, log)
	h := handler.NewWorkshopHandler(svc)

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(log))     // structured access log
	r.Use(handler.CORS)            // permissive CORS for browser dashboards

	// Health
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/workshops", func(r chi.Router) {
		r.Get("/", h.ListWorkshops)
		r.Post("/", h.CreateWorkshop)
		r.Get("/{id}", h.GetWorkshop)
		r.Put("/{id}", h.EditWorkshop)
		r.Delete("/{id}", h.DeleteWorkshop)
		r.Get("/{id}/constraints", h.EditConstraints)
		r.Get("/{id}/registrations", h.ListRegistrations)
		r.Get("/{id}/feedback", h.WorkshopFeedback)
		r.Post("/{id}/register", h.Register)
		r.Post("/{id}/deregister", h.Deregister)
	})
	r.Route("/attendees", func(r chi.Router) {
		r.Get("/{id}/attended", h.AttendedWorkshops)
		r.Get("/{id}/pending-feedback", h.PendingFeedback)
		r.Post("/{id}/feedback", h.SubmitFeedback)
	})

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Info("server listening", "port", cfg.Port, "feedback_policy", policy)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
