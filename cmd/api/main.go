// cmd/api/main.go
package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/joho/godotenv"

	"rentnexus/internal/config"
)

// The gateway is a thin reverse proxy: auth and business rules live in the
// services behind it.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadGateway()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	catalogURL, err := url.Parse(cfg.CatalogServiceURL)
	if err != nil {
		log.Fatalf("invalid catalog service url: %v", err)
	}
	bookingURL, err := url.Parse(cfg.BookingServiceURL)
	if err != nil {
		log.Fatalf("invalid booking service url: %v", err)
	}
	identityURL, err := url.Parse(cfg.IdentityServiceURL)
	if err != nil {
		log.Fatalf("invalid identity service url: %v", err)
	}

	catalogProxy := httputil.NewSingleHostReverseProxy(catalogURL)
	bookingProxy := httputil.NewSingleHostReverseProxy(bookingURL)
	identityProxy := httputil.NewSingleHostReverseProxy(identityURL)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/properties", http.StripPrefix("/api/v1", catalogProxy))
	mux.Handle("/api/v1/properties/", http.StripPrefix("/api/v1", catalogProxy))
	mux.Handle("/api/v1/bookings", http.StripPrefix("/api/v1", bookingProxy))
	mux.Handle("/api/v1/bookings/", http.StripPrefix("/api/v1", bookingProxy))
	mux.Handle("/api/v1/auth/", http.StripPrefix("/api/v1/auth", identityProxy))
	mux.Handle("/api/v1/users", http.StripPrefix("/api/v1", identityProxy))
	mux.Handle("/api/v1/users/", http.StripPrefix("/api/v1", identityProxy))

	log.Printf("API Gateway listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, mux))
}
