// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zerohour-app/zerohour-api/internal"
	"github.com/zerohour-app/zerohour-api/internal/auth"
	"github.com/zerohour-app/zerohour-api/internal/chat"
	"github.com/zerohour-app/zerohour-api/internal/config"
	"github.com/zerohour-app/zerohour-api/internal/delivery"
	"github.com/zerohour-app/zerohour-api/internal/handler"
	"github.com/zerohour-app/zerohour-api/internal/mailer"
	"github.com/zerohour-app/zerohour-api/internal/presence"
	"github.com/zerohour-app/zerohour-api/internal/ratelimiter"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	log.Println("Starting application...")
	log.Println("Running database migrations...")

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("%v", err)
	}

	log.Println("Initializing database connection...")

	db, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not connect to the postgresql database: %v", err)
	}

	// The delivery registry is constructed once here and injected into
	// every handler; it is the single source of truth for which users are
	// currently reachable.
	registry := delivery.NewRegistry(db)
	tracker := presence.NewTracker(db)
	ingress := chat.NewIngress(db, registry)
	h := handler.New(db, registry, ingress, tracker, cfg.JWTSecret)

	errMail := mailer.New(cfg)

	authLimiter := ratelimiter.NewIPRateLimiter(10, time.Minute, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})
	defer authLimiter.Cancel()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(internal.Recoverer(errMail))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(auth.Middleware(cfg.JWTSecret)).Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))
		r.Get("/api/users/search", h.SearchUsers)
		r.Post("/api/chats/create", h.CreateChat)
		r.Get("/api/chats/", h.ListChats)
		r.Get("/api/chats/{chatID}/messages", h.ChatMessages)
	})

	// Delivery endpoints address the user by path, matching the legacy
	// client contract.
	r.Get("/sse/{userID}", h.StreamSSE)
	r.Post("/send/{userID}", h.SendMessage)
	r.Get("/ws/{userID}", h.ServeWs)

	// No ReadTimeout/WriteTimeout: the SSE and websocket endpoints hold
	// their connections open far past any sane request deadline.
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	db.Close()

	log.Println("Server stopped")
}
