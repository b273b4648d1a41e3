// cmd/identity/main.go
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"rentnexus/internal/auth"
	"rentnexus/internal/config"
	"rentnexus/internal/identity"
	"rentnexus/internal/obs"
	"rentnexus/pkg/eventstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadIdentity()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown := obs.InitTracer("identity-service")
	defer shutdown(context.Background())

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	es := eventstore.NewEventStore(db)
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLMin)*time.Minute, time.Now)
	svc := identity.NewService(es, db, issuer)
	handler := identity.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestCounter("identity-service"))
	r.Mount("/", handler.Routes(auth.Middleware(issuer)))

	log.Printf("Identity Service listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
