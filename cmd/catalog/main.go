// cmd/catalog/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"rentnexus/internal/auth"
	"rentnexus/internal/catalog"
	"rentnexus/internal/config"
	"rentnexus/internal/obs"
	"rentnexus/pkg/eventstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadCatalog()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown := obs.InitTracer("catalog-service")
	defer shutdown(context.Background())

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	es := eventstore.NewEventStore(db.DB)

	index := catalog.NewMeiliIndex(cfg.MeiliHost, cfg.MeiliAPIKey)
	svc := catalog.NewService(es, db, index)
	index.Bind(svc)

	handler := catalog.NewHandler(svc)
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Hour, time.Now)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestCounter("catalog-service"))
	r.Mount("/", handler.Routes(auth.Middleware(issuer)))

	log.Printf("Catalog Service listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
