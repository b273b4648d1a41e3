// internal/clients/property_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"rentnexus/internal/catalog"
)

// PropertyClient fetches listings from the catalog service. Calls run
// through a circuit breaker so a dead catalog fails bookings fast instead
// of tying up request handlers.
type PropertyClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewPropertyClient(baseURL string) *PropertyClient {
	return &PropertyClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "catalog",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// GetProperty returns the listing, or (nil, nil) when it does not exist.
func (c *PropertyClient) GetProperty(ctx context.Context, id uuid.UUID) (*catalog.Property, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/properties/%s", c.baseURL, id), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return (*catalog.Property)(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog service: unexpected status code %d", resp.StatusCode)
		}

		var property catalog.Property
		if err := json.NewDecoder(resp.Body).Decode(&property); err != nil {
			return nil, err
		}
		return &property, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Property), nil
}
