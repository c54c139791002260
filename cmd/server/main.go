package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"Embedfield/internal/api/middleware"
	"Embedfield/internal/api/routes"
	"Embedfield/internal/config"
	"Embedfield/internal/core/embeds"
	postgresRepo "Embedfield/internal/db/postgres"
	"Embedfield/internal/monitoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if cfg.SessionSecret == "" {
		log.Fatal("EMBEDFIELD_SESSION_SECRET must be set")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to embedfield database")

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}

	if err := goose.Up(db, cfg.MigrationsDir); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Migrations completed successfully")

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// Rate limiting: 100 requests per minute per IP
	rateLimiter := middleware.NewRateLimiter(100, 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	csrf := middleware.NewCSRF(cfg.SessionSecret)

	// Wire the resolution pipeline
	repo := postgresRepo.NewEmbedRepository(db)
	resolver := embeds.NewOEmbedResolver(
		embeds.WithTimeout(cfg.FetchTimeout),
		embeds.WithUserAgent(cfg.UserAgent),
	)
	normalizer := embeds.NewNormalizer(cfg.RewriteConfig())

	var opts []embeds.CoordinatorOption
	if cfg.RequiredEmbedType != "" {
		opts = append(opts, embeds.WithRequiredType(cfg.RequiredEmbedType))
	}
	coordinator := embeds.NewCoordinator(repo, resolver, normalizer, opts...)

	routes.RegisterEmbedFieldRoutes(r, coordinator, repo, csrf)

	r.Handle("/metrics", monitoring.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	fmt.Printf("Embedfield service starting on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
