// cmd/booking/main.go
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
	"rentnexus/internal/booking"
	"rentnexus/internal/clients"
	"rentnexus/internal/config"
	"rentnexus/internal/obs"
	"rentnexus/pkg/eventstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadBooking()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown := obs.InitTracer("booking-service")
	defer shutdown(context.Background())

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	es := eventstore.NewEventStore(db)
	store := booking.NewPostgresStore(db, es)
	properties := clients.NewPropertyClient(cfg.CatalogServiceURL)
	users := clients.NewIdentityClient(cfg.IdentityServiceURL)
	svc := booking.NewService(store, properties, users, es, time.Now)
	handler := booking.NewHandler(svc)

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Hour, time.Now)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestCounter("booking-service"))
	r.Route("/bookings", func(r chi.Router) {
		r.Use(auth.Middleware(issuer))
		r.Mount("/", handler.Routes())
	})

	log.Printf("Booking Service listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
